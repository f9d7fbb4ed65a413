// Package editflow is a headless engine for editing a structured member or
// business record through topic-scoped sections. Hosts seed a Session from a
// fetched entity, route edits through section-scoped setters, and let the
// navigation controller gate sequential movement on section validation;
// submit hands the assembled payload to an external update collaborator.
// The engine performs no rendering, transport, or persistence of its own.
package editflow

import (
	"github.com/goliatone/go-editflow/pkg/draft"
	"github.com/goliatone/go-editflow/pkg/registry"
	"github.com/goliatone/go-editflow/pkg/validation"
)

// Section, FieldSpec, and FieldType re-export the registry types so most
// hosts only import the root package.
type Section = registry.Section
type FieldSpec = registry.FieldSpec
type FieldType = registry.FieldType

const (
	FieldTypeText     = registry.FieldTypeText
	FieldTypeSelect   = registry.FieldTypeSelect
	FieldTypeFile     = registry.FieldTypeFile
	FieldTypeDate     = registry.FieldTypeDate
	FieldTypeTextarea = registry.FieldTypeTextarea
)

// ErrorMap re-exports the validation error map.
type ErrorMap = validation.ErrorMap

// Draft re-exports the draft store type.
type Draft = draft.Draft

// MemberSections returns the built-in six-section member editor definition.
func MemberSections() []Section {
	return registry.MemberSections()
}

// FieldDisabled evaluates a field's disabled predicate against the current
// draft. Predicates are pure functions of draft state; there is no separate
// mutable flag to fall out of sync.
func FieldDisabled(field FieldSpec, d *Draft) bool {
	if field.Disabled == nil || d == nil {
		return false
	}
	return field.Disabled(d.Values())
}
