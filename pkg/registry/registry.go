package registry

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType is the simplified enum for editor-friendly field kinds.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeSelect   FieldType = "select"
	FieldTypeFile     FieldType = "file"
	FieldTypeDate     FieldType = "date"
	FieldTypeTextarea FieldType = "textarea"
)

// DisabledFunc reports whether a field is currently non-editable. It must be
// a pure function of the supplied draft values; hosts evaluate it at render
// time so there is no separate mutable "disabled" flag to drift out of sync.
type DisabledFunc func(values map[string]any) bool

// FieldSpec is the declarative metadata for one editable field: where it
// lives in the draft, how it is rendered, and which validator gates it.
type FieldSpec struct {
	Name      string       `json:"name" yaml:"name"`
	Path      string       `json:"path" yaml:"path"`
	Type      FieldType    `json:"type" yaml:"type"`
	Label     string       `json:"label,omitempty" yaml:"label,omitempty"`
	Required  bool         `json:"required" yaml:"required"`
	Validator string       `json:"validator,omitempty" yaml:"validator,omitempty"`
	Options   []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Disabled  DisabledFunc `json:"-" yaml:"-"`
}

// Section is one topic-scoped page of the editor. Required lists the dotted
// paths that gate sequential forward navigation out of the section; it may
// nest one level (for example "address.city").
type Section struct {
	Key      string      `json:"key" yaml:"key"`
	Ordinal  int         `json:"ordinal" yaml:"-"`
	Title    string      `json:"title,omitempty" yaml:"title,omitempty"`
	Fields   []FieldSpec `json:"fields" yaml:"fields"`
	Required []string    `json:"required,omitempty" yaml:"required,omitempty"`
}

// FieldByName returns the section field whose Name matches.
func (s Section) FieldByName(name string) (FieldSpec, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// Registry holds the ordered section list for one editor. Ordinals are
// assigned from declaration order so navigation never depends on map
// iteration.
type Registry struct {
	sections []Section
	byKey    map[string]int
}

// New builds a registry from the supplied sections, validating key
// uniqueness and assigning ordinals. At least one section is required.
func New(sections ...Section) (*Registry, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("registry: at least one section is required")
	}

	reg := &Registry{
		sections: make([]Section, 0, len(sections)),
		byKey:    make(map[string]int, len(sections)),
	}
	for idx, section := range sections {
		key := strings.TrimSpace(section.Key)
		if key == "" {
			return nil, fmt.Errorf("registry: section %d has an empty key", idx)
		}
		if _, exists := reg.byKey[key]; exists {
			return nil, fmt.Errorf("registry: duplicate section key %q", key)
		}
		section.Key = key
		section.Ordinal = idx
		for fieldIdx, field := range section.Fields {
			if strings.TrimSpace(field.Name) == "" {
				return nil, fmt.Errorf("registry: section %q field %d has an empty name", key, fieldIdx)
			}
			if strings.TrimSpace(field.Path) == "" {
				section.Fields[fieldIdx].Path = field.Name
			}
		}
		reg.byKey[key] = idx
		reg.sections = append(reg.sections, section)
	}
	return reg, nil
}

// Sections returns the ordered section list (copy; callers cannot reorder
// the registry).
func (r *Registry) Sections() []Section {
	if r == nil {
		return nil
	}
	return append([]Section(nil), r.sections...)
}

// Section resolves a section by key.
func (r *Registry) Section(key string) (Section, bool) {
	if r == nil {
		return Section{}, false
	}
	idx, ok := r.byKey[key]
	if !ok {
		return Section{}, false
	}
	return r.sections[idx], true
}

// Len reports the number of registered sections.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sections)
}

// FieldByPath resolves a field spec by its dotted draft path, searching every
// section in order.
func (r *Registry) FieldByPath(path string) (FieldSpec, bool) {
	if r == nil {
		return FieldSpec{}, false
	}
	for _, section := range r.sections {
		for _, field := range section.Fields {
			if field.Path == path {
				return field, true
			}
		}
	}
	return FieldSpec{}, false
}

// OwnerOf reports which draft sub-object declares a field of the given name.
// Root-level fields return "". The attachment handler uses this to route a
// staged file to the correct sub-object without the caller spelling out the
// full path.
func (r *Registry) OwnerOf(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, section := range r.sections {
		for _, field := range section.Fields {
			last := field.Path
			if idx := strings.LastIndex(field.Path, "."); idx >= 0 {
				last = field.Path[idx+1:]
			}
			if last != name && field.Name != name {
				continue
			}
			if idx := strings.Index(field.Path, "."); idx >= 0 {
				return field.Path[:idx], true
			}
			return "", true
		}
	}
	return "", false
}

// RequiredPaths returns the union of every section's required list, sorted
// for deterministic output.
func (r *Registry) RequiredPaths() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, section := range r.sections {
		for _, path := range section.Required {
			seen[path] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
