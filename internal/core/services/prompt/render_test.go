package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promptDomain "brokle/internal/core/domain/prompt"
)

func TestRenderer_SubstitutesProvidedVars(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("Hello {name}!", map[string]string{"name": "Ada"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)
}

func TestRenderer_AppliesDefaultWhenVarNotProvided(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"tone": promptDomain.VariableDef{HasDefault: true, Default: "formal"},
	}
	out, err := r.Render("Respond in a {tone} tone.", map[string]string{}, defs)
	require.NoError(t, err)
	assert.Equal(t, "Respond in a formal tone.", out)
}

func TestRenderer_ProvidedVarOverridesDefault(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"tone": promptDomain.VariableDef{HasDefault: true, Default: "formal"},
	}
	out, err := r.Render("Respond in a {tone} tone.", map[string]string{"tone": "casual"}, defs)
	require.NoError(t, err)
	assert.Equal(t, "Respond in a casual tone.", out)
}

func TestRenderer_MissingRequiredVarFails(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"name": promptDomain.VariableDef{Required: true},
	}
	_, err := r.Render("Hello {name}!", map[string]string{}, defs)
	require.Error(t, err)
	assert.ErrorIs(t, err, promptDomain.ErrMissingRequiredVar)
}

func TestRenderer_RequiredVarSatisfiedByDefaultPasses(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"name": promptDomain.VariableDef{Required: true, HasDefault: true, Default: "World"},
	}
	out, err := r.Render("Hello {name}!", map[string]string{}, defs)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", out)
}

func TestRenderer_RejectsUnsafeTemplateWithNoDeclaredVars(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("{{ __import__('os') }}", map[string]string{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, promptDomain.ErrUnsafeTemplate)
}

func TestRenderer_AllowsDoubleBraceSyntaxWhenVarsAreDeclared(t *testing.T) {
	r := NewRenderer()
	// A lone {{ }} expression with no dot/filter/section marker is rendered
	// through mustache; declaring a var suppresses the unsafe-template guard.
	out, err := r.Render("{{ name }}", map[string]string{"name": "Ada"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", out)
}

func TestRenderer_DispatchesToJinja2ForBlockSyntax(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"flag": promptDomain.VariableDef{HasDefault: true, Default: "yes"},
	}
	out, err := r.Render("{% if flag %}on{% endif %}", map[string]string{}, defs)
	require.NoError(t, err)
	assert.Equal(t, "on", out)
}

func TestRenderer_DispatchesToMustacheForSectionSyntax(t *testing.T) {
	r := NewRenderer()
	defs := promptDomain.TemplateVariables{
		"flag": promptDomain.VariableDef{HasDefault: true, Default: "true"},
	}
	out, err := r.Render("{{#flag}}on{{/flag}}", map[string]string{}, defs)
	require.NoError(t, err)
	assert.Equal(t, "on", out)
}
