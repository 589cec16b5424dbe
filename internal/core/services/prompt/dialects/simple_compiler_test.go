package dialects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleCompiler_SubstitutesKnownVariables(t *testing.T) {
	c := NewSimpleCompiler()
	out, err := c.Compile("Hello {name}, you are {age} years old.", map[string]any{"name": "Ada", "age": 30})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, you are 30 years old.", out)
}

func TestSimpleCompiler_PreservesMissingVariables(t *testing.T) {
	c := NewSimpleCompiler()
	out, err := c.Compile("Hello {name}.", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello {name}.", out)
}

func TestSimpleCompiler_ExtractVariablesDeduplicatesAndSorts(t *testing.T) {
	c := NewSimpleCompiler()
	vars, err := c.ExtractVariables("{b} and {a} and {b} again")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vars)
}

func TestSimpleCompiler_RejectsOversizedTemplate(t *testing.T) {
	c := NewSimpleCompiler()
	huge := strings.Repeat("x", 200*1024)
	_, err := c.Compile(huge, nil)
	assert.Error(t, err)
}

func TestSimpleCompiler_ValidateFlagsUnmatchedBraces(t *testing.T) {
	c := NewSimpleCompiler()
	result, err := c.Validate("Hello {name")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors())
}
