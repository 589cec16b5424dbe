package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJinja2Compiler_RendersVariable(t *testing.T) {
	c := NewJinja2Compiler()
	out, err := c.Compile("Hello {{ name }}!", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)
}

func TestJinja2Compiler_RendersForLoop(t *testing.T) {
	c := NewJinja2Compiler()
	out, err := c.Compile("{% for x in items %}{{ x }},{% endfor %}", map[string]any{"items": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a,b,", out)
}

func TestJinja2Compiler_ExtractVariablesExcludesBuiltins(t *testing.T) {
	c := NewJinja2Compiler()
	vars, err := c.ExtractVariables("{% for x in items %}{{ loop.index }}{{ x }}{% endfor %}{% if flag %}y{% endif %}")
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "items"}, vars)
}

func TestJinja2Compiler_ValidateFlagsUnclosedForBlock(t *testing.T) {
	c := NewJinja2Compiler()
	result, err := c.Validate("{% for x in items %}{{ x }}")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors())
}

func TestJinja2Compiler_ValidateFlagsDanglingEndif(t *testing.T) {
	c := NewJinja2Compiler()
	result, err := c.Validate("no if here{% endif %}")
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
}

func TestJinja2Compiler_ValidateAcceptsWellFormedTemplate(t *testing.T) {
	c := NewJinja2Compiler()
	result, err := c.Validate("{% if flag %}{{ name }}{% endif %}")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
