package draft

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-editflow/pkg/registry"
)

// Normalizer rewrites a value on its way into the draft. Matching is by
// path so the same rule can serve a field wherever its sub-object declares
// it.
type Normalizer struct {
	// Match reports whether this normalizer applies to the path.
	Match func(path string) bool
	// Apply rewrites the value.
	Apply func(value any) any
}

const maxPhoneDigits = 10

// Field names (last path segment) treated as phone-like: every edit strips
// non-digits and truncates to ten characters regardless of which sub-object
// owns the field.
var phoneFieldNames = map[string]struct{}{
	"mobile":           {},
	"alternate_mobile": {},
	"phone":            {},
}

// Paths holding free text that is sanitised before storage.
var sanitizedPaths = map[string]struct{}{
	"profile.bio":     {},
	"company.address": {},
}

var strictPolicy = bluemonday.StrictPolicy()

// DefaultNormalizers returns the member-editor input rules: digit-stripped
// ten-digit phones, an upper-cased PAN, and sanitised free-text fields.
func DefaultNormalizers() []Normalizer {
	return []Normalizer{
		{
			Match: func(path string) bool {
				_, ok := phoneFieldNames[lastSegment(path)]
				return ok
			},
			Apply: func(value any) any {
				s, ok := value.(string)
				if !ok {
					return value
				}
				return truncate(digitsOnly(s), maxPhoneDigits)
			},
		},
		{
			Match: func(path string) bool { return lastSegment(path) == "pan" },
			Apply: func(value any) any {
				s, ok := value.(string)
				if !ok {
					return value
				}
				return strings.ToUpper(s)
			},
		},
		{
			Match: func(path string) bool {
				_, ok := sanitizedPaths[path]
				return ok
			},
			Apply: func(value any) any {
				s, ok := value.(string)
				if !ok {
					return value
				}
				return strictPolicy.Sanitize(s)
			},
		},
	}
}

func applyNormalizers(normalizers []Normalizer, path string, value any) any {
	for _, n := range normalizers {
		if n.Match != nil && n.Apply != nil && n.Match(path) {
			value = n.Apply(value)
		}
	}
	return value
}

// clearInactivePaymentFields empties the fields exclusive to the payment
// choice that just became inactive. The exclusive sets live on the registry
// so this cannot drift from the section definition. Called on a fresh clone
// only.
func (d *Draft) clearInactivePaymentFields(method string) {
	var cleared []string
	switch method {
	case registry.PaymentMethodUPI:
		cleared = registry.BankFields
	case registry.PaymentMethodBank:
		cleared = registry.UPIFields
	default:
		return
	}
	for _, path := range cleared {
		delete(d.values, path)
	}
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
