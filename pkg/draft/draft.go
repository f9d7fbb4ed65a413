// Package draft holds the in-memory working copy of the entity under edit.
// A Draft is created once per editing session, mutated only through scoped
// setters that replace one sub-object immutably, and discarded on cancel.
// Every declared sub-object is guaranteed to exist so dotted-path access
// never fails.
package draft

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFieldLocked is returned when a setter targets a path that became
	// permanently immutable after its first non-empty write.
	ErrFieldLocked = errors.New("draft: field is locked")
	// ErrUnknownSubObject is returned when a section merge targets a
	// sub-object the draft does not declare.
	ErrUnknownSubObject = errors.New("draft: unknown sub-object")
)

// DefaultSubObjects are the nested records every member draft carries.
var DefaultSubObjects = []string{"profile", "address", "company"}

// Draft is an immutable snapshot of the entity under edit. Setters return a
// new Draft sharing every untouched sub-object by reference.
type Draft struct {
	values     map[string]any
	subObjects []string
	locked     map[string]struct{}
	normalize  []Normalizer
}

// Option configures draft construction.
type Option func(*Draft)

// WithSubObjects overrides the declared sub-object set.
func WithSubObjects(names ...string) Option {
	return func(d *Draft) {
		d.subObjects = append([]string(nil), names...)
	}
}

// WithLockedOnceSet marks paths that become permanently immutable once they
// first hold a non-empty value. This is a domain rule (the value is a
// once-verified fact), not a display convenience.
func WithLockedOnceSet(paths ...string) Option {
	return func(d *Draft) {
		for _, path := range paths {
			d.locked[path] = struct{}{}
		}
	}
}

// WithNormalizers appends value normalizers applied on every SetField call.
func WithNormalizers(normalizers ...Normalizer) Option {
	return func(d *Draft) {
		d.normalize = append(d.normalize, normalizers...)
	}
}

// Seed builds the working copy by deep-merging the fetched entity over the
// default skeleton. Absent sub-objects come back as empty maps so later path
// access never fails. The source map is never retained or mutated.
func Seed(entity map[string]any, opts ...Option) *Draft {
	d := &Draft{
		subObjects: DefaultSubObjects,
		locked:     make(map[string]struct{}),
	}
	WithLockedOnceSet("profile.dob")(d)
	d.normalize = DefaultNormalizers()
	for _, opt := range opts {
		opt(d)
	}

	skeleton := make(map[string]any, len(d.subObjects))
	for _, name := range d.subObjects {
		skeleton[name] = map[string]any{}
	}
	d.values = deepMerge(skeleton, entity)
	return d
}

// Values exposes the raw value tree for read-only use (disabled predicates,
// payload assembly). Callers must not mutate it; use SetField/SetSection.
func (d *Draft) Values() map[string]any {
	if d == nil {
		return nil
	}
	return d.values
}

// SubObjects returns the declared sub-object names.
func (d *Draft) SubObjects() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.subObjects...)
}

// Value resolves a dotted path (at most one level of nesting).
func (d *Draft) Value(path string) (any, bool) {
	if d == nil || path == "" {
		return nil, false
	}
	head, tail, nested := strings.Cut(path, ".")
	if !nested {
		v, ok := d.values[path]
		return v, ok
	}
	sub, _ := d.values[head].(map[string]any)
	if sub == nil {
		return nil, false
	}
	v, ok := sub[tail]
	return v, ok
}

// String resolves a path to its string form; non-strings and absent values
// yield "".
func (d *Draft) String(path string) string {
	v, ok := d.Value(path)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Empty reports whether a path is absent, nil, or a blank string.
func (d *Draft) Empty(path string) bool {
	v, ok := d.Value(path)
	if !ok || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// SetField writes one leaf, normalizing the value and replacing only the
// owning sub-object. Writes to a locked path with an existing non-empty
// value return the receiver unchanged with ErrFieldLocked. Switching the
// payment method clears the fields exclusive to the previous choice.
func (d *Draft) SetField(path string, value any) (*Draft, error) {
	if d == nil {
		return nil, errors.New("draft: nil draft")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("draft: empty path")
	}
	if _, isLocked := d.locked[path]; isLocked && !d.Empty(path) {
		return d, fmt.Errorf("%w: %s", ErrFieldLocked, path)
	}

	value = applyNormalizers(d.normalize, path, value)

	next := d.shallowClone()
	head, tail, nested := strings.Cut(path, ".")
	if nested {
		sub := cloneSubObject(d.values, head)
		sub[tail] = value
		next.values[head] = sub
	} else {
		next.values[path] = value
	}

	if path == "payment_method" {
		next.clearInactivePaymentFields(fmt.Sprint(value))
	}
	return next, nil
}

// SetSection merges a partial object into one named sub-object, preserving
// every other sub-object by reference.
func (d *Draft) SetSection(sectionKey string, partial map[string]any) (*Draft, error) {
	if d == nil {
		return nil, errors.New("draft: nil draft")
	}
	if !d.declaresSubObject(sectionKey) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubObject, sectionKey)
	}

	next := d.shallowClone()
	sub := cloneSubObject(d.values, sectionKey)
	for key, value := range partial {
		path := sectionKey + "." + key
		if _, isLocked := d.locked[path]; isLocked && !d.Empty(path) {
			continue
		}
		sub[key] = applyNormalizers(d.normalize, path, value)
	}
	next.values[sectionKey] = sub
	return next, nil
}

func (d *Draft) declaresSubObject(name string) bool {
	for _, sub := range d.subObjects {
		if sub == name {
			return true
		}
	}
	return false
}

func (d *Draft) shallowClone() *Draft {
	values := make(map[string]any, len(d.values))
	for key, value := range d.values {
		values[key] = value
	}
	return &Draft{
		values:     values,
		subObjects: d.subObjects,
		locked:     d.locked,
		normalize:  d.normalize,
	}
}

func cloneSubObject(values map[string]any, name string) map[string]any {
	src, _ := values[name].(map[string]any)
	out := make(map[string]any, len(src)+1)
	for key, value := range src {
		out[key] = value
	}
	return out
}

func deepMerge(base map[string]any, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		out[key] = deepCopy(value)
	}
	for key, value := range overlay {
		existing, ok := out[key].(map[string]any)
		incoming, isMap := value.(map[string]any)
		if ok && isMap {
			out[key] = deepMerge(existing, incoming)
			continue
		}
		out[key] = deepCopy(value)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for key, nested := range typed {
			clone[key] = deepCopy(nested)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for idx, nested := range typed {
			clone[idx] = deepCopy(nested)
		}
		return clone
	default:
		return typed
	}
}
