package registry

import (
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the on-disk shape for declarative section definitions.
// Disabled predicates cannot be expressed in YAML; they reference the small
// built-in set by name instead.
type yamlDocument struct {
	Sections []yamlSection `yaml:"sections"`
}

type yamlSection struct {
	Key      string      `yaml:"key"`
	Title    string      `yaml:"title"`
	Fields   []yamlField `yaml:"fields"`
	Required []string    `yaml:"required"`
}

type yamlField struct {
	Name      string   `yaml:"name"`
	Path      string   `yaml:"path"`
	Type      string   `yaml:"type"`
	Label     string   `yaml:"label"`
	Required  bool     `yaml:"required"`
	Validator string   `yaml:"validator"`
	Options   []string `yaml:"options"`
	// DisabledWhen names a built-in predicate: "locked-once-set" or
	// "until-set:<path>".
	DisabledWhen string `yaml:"disabled_when"`
}

// ParseYAML decodes a YAML section definition into a Registry.
func ParseYAML(data []byte) (*Registry, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse yaml: %w", err)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("registry: yaml document declares no sections")
	}

	sections := make([]Section, 0, len(doc.Sections))
	for _, raw := range doc.Sections {
		section := Section{
			Key:      raw.Key,
			Title:    raw.Title,
			Required: raw.Required,
		}
		for _, rawField := range raw.Fields {
			path := rawField.Path
			if strings.TrimSpace(path) == "" {
				path = rawField.Name
			}
			field := FieldSpec{
				Name:      rawField.Name,
				Path:      path,
				Type:      fieldTypeFromString(rawField.Type),
				Label:     rawField.Label,
				Required:  rawField.Required,
				Validator: rawField.Validator,
				Options:   rawField.Options,
			}
			disabled, err := disabledFromString(rawField.DisabledWhen, field)
			if err != nil {
				return nil, fmt.Errorf("registry: section %q field %q: %w", raw.Key, rawField.Name, err)
			}
			field.Disabled = disabled
			section.Fields = append(section.Fields, field)
		}
		sections = append(sections, section)
	}
	return New(sections...)
}

// LoadYAMLFS reads one YAML file from the supplied filesystem and parses it.
func LoadYAMLFS(fsys fs.FS, path string) (*Registry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return ParseYAML(data)
}

func fieldTypeFromString(raw string) FieldType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "select":
		return FieldTypeSelect
	case "file":
		return FieldTypeFile
	case "date":
		return FieldTypeDate
	case "textarea":
		return FieldTypeTextarea
	default:
		return FieldTypeText
	}
}

func disabledFromString(raw string, field FieldSpec) (DisabledFunc, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if trimmed == "locked-once-set" {
		return LockedOnceSet(field.Path), nil
	}
	if rest, ok := strings.CutPrefix(trimmed, "until-set:"); ok {
		dep := strings.TrimSpace(rest)
		if dep == "" {
			return nil, fmt.Errorf("until-set predicate needs a path")
		}
		return DisabledUntilSet(dep), nil
	}
	return nil, fmt.Errorf("unknown disabled_when predicate %q", trimmed)
}
