package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	editorExtensionKey = "x-editflow"

	extValidator = "validator"
	extLabel     = "label"
)

// SectionsFromOpenAPI derives a Registry from a component schema inside an
// OpenAPI 3 document. Object-typed top-level properties become sub-object
// sections (one section per sub-object); scalar top-level properties are
// grouped into a trailing "general" section. Field-level `x-editflow`
// extensions may override the validator or label.
//
// This gives metadata-driven hosts the same declarative source the built-in
// member editor hardcodes, without hand-writing FieldSpecs.
func SectionsFromOpenAPI(ctx context.Context, raw []byte, schemaName string) (*Registry, error) {
	if len(raw) == 0 {
		return nil, errors.New("registry: openapi document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("registry: load openapi document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("registry: openapi document declares no component schemas")
	}
	ref, ok := doc.Components.Schemas[schemaName]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("registry: schema %q not found", schemaName)
	}

	root := ref.Value
	required := make(map[string]struct{}, len(root.Required))
	for _, name := range root.Required {
		required[name] = struct{}{}
	}

	var (
		sections []Section
		general  Section
	)
	general.Key = "general"
	general.Title = "General"

	for _, name := range sortedPropertyNames(root.Properties) {
		property := root.Properties[name]
		if property == nil || property.Value == nil {
			continue
		}
		value := property.Value
		_, req := required[name]

		if schemaTypeIs(value, "object") && len(value.Properties) > 0 {
			section := Section{Key: name, Title: titleFromSchema(value, name)}
			nestedRequired := make(map[string]struct{}, len(value.Required))
			for _, nested := range value.Required {
				nestedRequired[nested] = struct{}{}
			}
			for _, nestedName := range sortedPropertyNames(value.Properties) {
				nested := value.Properties[nestedName]
				if nested == nil || nested.Value == nil {
					continue
				}
				_, nestedReq := nestedRequired[nestedName]
				field := fieldFromSchema(nestedName, name+"."+nestedName, nested.Value, nestedReq)
				section.Fields = append(section.Fields, field)
				if nestedReq {
					section.Required = append(section.Required, field.Path)
				}
			}
			sections = append(sections, section)
			continue
		}

		field := fieldFromSchema(name, name, value, req)
		general.Fields = append(general.Fields, field)
		if req {
			general.Required = append(general.Required, field.Path)
		}
	}

	if len(general.Fields) > 0 {
		sections = append(sections, general)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("registry: schema %q yields no editable sections", schemaName)
	}
	return New(sections...)
}

func fieldFromSchema(name, path string, schema *openapi3.Schema, required bool) FieldSpec {
	field := FieldSpec{
		Name:     name,
		Path:     path,
		Type:     fieldTypeFromSchema(schema),
		Required: required,
	}
	for _, option := range schema.Enum {
		field.Options = append(field.Options, fmt.Sprint(option))
	}
	if ext, ok := schema.Extensions[editorExtensionKey].(map[string]any); ok {
		if validator, ok := ext[extValidator].(string); ok {
			field.Validator = strings.TrimSpace(validator)
		}
		if label, ok := ext[extLabel].(string); ok {
			field.Label = strings.TrimSpace(label)
		}
	}
	if field.Label == "" {
		field.Label = schema.Title
	}
	return field
}

func fieldTypeFromSchema(schema *openapi3.Schema) FieldType {
	switch {
	case schema.Format == "binary" || schema.Format == "byte":
		return FieldTypeFile
	case schema.Format == "date" || schema.Format == "date-time":
		return FieldTypeDate
	case len(schema.Enum) > 0:
		return FieldTypeSelect
	case schema.Format == "textarea":
		return FieldTypeTextarea
	default:
		return FieldTypeText
	}
}

func schemaTypeIs(schema *openapi3.Schema, want string) bool {
	if schema.Type == nil {
		return false
	}
	return schema.Type.Is(want)
}

func titleFromSchema(schema *openapi3.Schema, fallback string) string {
	if strings.TrimSpace(schema.Title) != "" {
		return schema.Title
	}
	return fallback
}

func sortedPropertyNames(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
