// Package validation implements the field and section validation engine:
// a named-validator registry, the format validators for Indian identity and
// payment fields, derived cross-field validators, and section gating that
// produces the ErrorMap consumed by navigation.
//
// Every validator is total over its input domain: empty, missing, and
// non-string inputs all map to a defined outcome and no validator panics.
// Emptiness itself is the required-field check's concern, so format
// validators accept empty input.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ErrorMap maps a draft field path to a human-readable failure message. A
// key is present only for a currently-failing field; absence means valid or
// untouched.
type ErrorMap map[string]string

// Empty reports whether no field is currently failing.
func (m ErrorMap) Empty() bool { return len(m) == 0 }

// Context carries the cross-field inputs a validator may need. Values is
// the full draft value tree; Now anchors date arithmetic (zero means the
// wall clock).
type Context struct {
	Values map[string]any
	Now    time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Func validates a single field value. A nil return means the value passes.
type Func func(value string, ctx Context) error

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarPattern = regexp.MustCompile(`^[2-9][0-9]{3}\s?[0-9]{4}\s?[0-9]{4}$`)
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	gstPattern     = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][A-Z0-9]Z[A-Z0-9]$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

const ifscLength = 11

// DateLayout is the wire format for date fields.
const DateLayout = "2006-01-02"

// User-facing validation messages. Kept in one place so both editors show
// identical wording for the same failure.
var (
	ErrPANFormat     = errors.New("enter a valid 10-character PAN, for example ABCDE1234F")
	ErrAadhaarFormat = errors.New("enter a valid 12-digit Aadhaar number")
	ErrMobileFormat  = errors.New("enter a valid 10-digit mobile number")
	ErrGSTFormat     = errors.New("enter a valid 15-character GST number")
	ErrPincodeFormat = errors.New("enter a valid 6-digit PIN code")
	ErrIFSCFormat    = errors.New("IFSC code must be exactly 11 characters")
	ErrUnderage      = errors.New("you must be at least 18 years old")
	ErrBadDate       = errors.New("enter a valid date (YYYY-MM-DD)")
	ErrNoMatch       = errors.New("values do not match")
)

// PAN validates the 10-character permanent account number format: five
// uppercase letters, four digits, one uppercase letter.
func PAN(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if !panPattern.MatchString(value) {
		return ErrPANFormat
	}
	return nil
}

// Aadhaar validates the 12-digit national ID: first digit 2-9, optionally
// grouped 4-4-4 with spaces.
func Aadhaar(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if !aadhaarPattern.MatchString(value) {
		return ErrAadhaarFormat
	}
	return nil
}

// Mobile validates a 10-digit mobile number with a leading 6-9.
func Mobile(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if !mobilePattern.MatchString(value) {
		return ErrMobileFormat
	}
	return nil
}

// GST validates the 15-character registration number: two digits, an
// embedded PAN, one alphanumeric, the fixed letter Z, one alphanumeric.
func GST(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if !gstPattern.MatchString(value) {
		return ErrGSTFormat
	}
	return nil
}

// Pincode validates a 6-digit postal code.
func Pincode(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if !pincodePattern.MatchString(value) {
		return ErrPincodeFormat
	}
	return nil
}

// IFSC validates the bank routing code by exact length only, matching the
// observed behaviour of both editors.
func IFSC(value string, _ Context) error {
	if value == "" {
		return nil
	}
	if len(value) != ifscLength {
		return ErrIFSCFormat
	}
	return nil
}

// Age18 validates a birth date using whole-year component subtraction, not
// elapsed-time division: the year difference is decremented while the
// month/day has not yet reached the birth anniversary. Exactly 18 on the
// anniversary passes; one component-day short fails.
func Age18(value string, ctx Context) error {
	if value == "" {
		return nil
	}
	dob, err := time.Parse(DateLayout, value)
	if err != nil {
		return ErrBadDate
	}
	now := ctx.now()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 18 {
		return ErrUnderage
	}
	return nil
}

// MatchesField builds a validator asserting exact string equality with the
// value at another draft path (password confirmation).
func MatchesField(path string, message error) Func {
	if message == nil {
		message = ErrNoMatch
	}
	return func(value string, ctx Context) error {
		other := stringAt(ctx.Values, path)
		if value != other {
			return message
		}
		return nil
	}
}

// Registry resolves validator ids declared on field specs. Later
// registrations override earlier ones, so hosts can replace a built-in
// without forking the set.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Func
}

// NewRegistry constructs a registry preloaded with the built-in validators.
func NewRegistry() *Registry {
	reg := &Registry{validators: make(map[string]Func)}
	reg.Register("pan", PAN)
	reg.Register("aadhaar", Aadhaar)
	reg.Register("mobile", Mobile)
	reg.Register("gst", GST)
	reg.Register("pincode", Pincode)
	reg.Register("ifsc", IFSC)
	reg.Register("age18", Age18)
	return reg
}

// Register adds or replaces a named validator.
func (r *Registry) Register(id string, fn Func) {
	if r == nil || fn == nil {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[id] = fn
}

// Validate runs the named validator against a value. Unknown ids pass: a
// field referencing a missing validator degrades to required-only checking
// rather than blocking the editor.
func (r *Registry) Validate(id, value string, ctx Context) error {
	if r == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	r.mu.RLock()
	fn, ok := r.validators[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return fn(value, ctx)
}

func stringAt(values map[string]any, path string) string {
	if values == nil {
		return ""
	}
	head, tail, nested := strings.Cut(path, ".")
	var v any
	if nested {
		sub, _ := values[head].(map[string]any)
		if sub == nil {
			return ""
		}
		v = sub[tail]
	} else {
		v = values[path]
	}
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func humanize(path string) string {
	last := path
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		last = path[idx+1:]
	}
	words := strings.Split(last, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func requiredMessage(label string) string {
	return fmt.Sprintf("%s is required", label)
}
