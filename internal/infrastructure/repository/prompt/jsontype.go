package prompt

import (
	"gorm.io/datatypes"

	promptDomain "brokle/internal/core/domain/prompt"
)

func toJSONType(v promptDomain.TemplateVariables) datatypes.JSONType[promptDomain.TemplateVariables] {
	if v == nil {
		v = promptDomain.TemplateVariables{}
	}
	return datatypes.NewJSONType(v)
}

func toJSONTypeSlice(v []string) datatypes.JSONType[[]string] {
	if v == nil {
		v = []string{}
	}
	return datatypes.NewJSONType(v)
}

func toJSONTypeMap(v map[string]any) datatypes.JSONType[map[string]any] {
	if v == nil {
		v = map[string]any{}
	}
	return datatypes.NewJSONType(v)
}
