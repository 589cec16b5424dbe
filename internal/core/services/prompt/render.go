package prompt

import (
	"strings"

	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/core/services/prompt/dialects"
)

// renderer implements promptDomain.TemplateRenderer on top of the
// dialect registry: single-brace {name} substitutions go through the
// simple compiler directly; content with {% %} control markers goes
// through the jinja2-family compiler; content with only {{ }}
// expressions goes through mustache. Follows a
// dialects.Registry/DetectDialect dispatch, generalized to the var_defs
// required/default overlay the render() contract adds.
type renderer struct {
	registry promptDomain.DialectRegistry
}

// NewRenderer builds a TemplateRenderer backed by the simple/mustache/
// jinja2 dialect compilers.
func NewRenderer() promptDomain.TemplateRenderer {
	return &renderer{registry: dialects.NewRegistry()}
}

func (r *renderer) Render(templateString string, vars map[string]string, varDefs promptDomain.TemplateVariables) (string, error) {
	overlaid := make(map[string]any, len(varDefs)+len(vars))

	for name, def := range varDefs {
		if def.HasDefault {
			overlaid[name] = def.Default
		}
	}
	for name, v := range vars {
		overlaid[name] = v
	}
	for name, def := range varDefs {
		if _, present := overlaid[name]; !present && def.Required {
			return "", promptDomain.NewMissingRequiredVarError(name)
		}
	}

	if len(varDefs) == 0 && len(vars) == 0 {
		if strings.Contains(templateString, "{{") || strings.Contains(templateString, "{%") || strings.Contains(templateString, "__") {
			return "", promptDomain.ErrUnsafeTemplate
		}
	}

	dialect := dialects.DetectDialect(templateString)
	if dialect == promptDomain.DialectSimple && strings.Contains(templateString, "{{") {
		dialect = promptDomain.DialectMustache
	}
	compiler, err := r.registry.Get(dialect)
	if err != nil {
		return "", err
	}

	return compiler.Compile(templateString, overlaid)
}
