package validation

import (
	"strings"

	"github.com/goliatone/go-editflow/pkg/draft"
	"github.com/goliatone/go-editflow/pkg/registry"
)

// PaymentPolicy captures the per-call-site requiredness of bank payout
// fields. The two observed editors disagree: the wizard requires the bank
// fields outright when the bank method is active, while the metadata-driven
// modal only format-checks them when present. Both policies are preserved
// here until a product decision unifies them.
type PaymentPolicy struct {
	// RequireBankFields makes holder name, bank name, account number and
	// IFSC code required whenever the bank method is active.
	RequireBankFields bool
}

// WizardPaymentPolicy is the stricter call-site policy.
var WizardPaymentPolicy = PaymentPolicy{RequireBankFields: true}

// ModalPaymentPolicy format-checks bank fields only when non-empty.
var ModalPaymentPolicy = PaymentPolicy{}

const minAccountNumberLength = 9

// Engine gates sections: required-field presence, per-field format
// validators, and section-specific extra checks. It never returns an error
// and never panics; every failure is an ErrorMap entry.
type Engine struct {
	validators *Registry
	payment    PaymentPolicy
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithValidators overrides the validator registry.
func WithValidators(reg *Registry) EngineOption {
	return func(e *Engine) {
		if reg != nil {
			e.validators = reg
		}
	}
}

// WithPaymentPolicy selects the call-site payment requiredness policy.
func WithPaymentPolicy(policy PaymentPolicy) EngineOption {
	return func(e *Engine) {
		e.payment = policy
	}
}

// NewEngine constructs a section validation engine. The default payment
// policy is the modal one (format-check when present).
func NewEngine(opts ...EngineOption) *Engine {
	engine := &Engine{
		validators: NewRegistry(),
		payment:    ModalPaymentPolicy,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Validators exposes the underlying registry so hosts can add or replace
// named validators.
func (e *Engine) Validators() *Registry {
	if e == nil {
		return nil
	}
	return e.validators
}

// ValidateField runs the validator declared on a field spec against a raw
// value. Nil means pass.
func (e *Engine) ValidateField(field registry.FieldSpec, value string, ctx Context) error {
	if e == nil {
		return nil
	}
	return e.validators.Validate(field.Validator, value, ctx)
}

// ValidateSection checks one section against the draft and returns the
// ErrorMap for its currently-failing fields. An empty map gates forward
// navigation open.
//
// Order of checks per field: requiredness first (a missing value never also
// reports a format failure), then the declared validator on non-empty
// values, then section extras (payment policy, document presence).
func (e *Engine) ValidateSection(section registry.Section, d *draft.Draft, ctx Context) ErrorMap {
	errs := make(ErrorMap)
	if e == nil || d == nil {
		return errs
	}
	if ctx.Values == nil {
		ctx.Values = d.Values()
	}

	for _, path := range section.Required {
		if fieldSatisfied(d, path) {
			continue
		}
		errs[path] = requiredMessage(labelFor(section, path))
	}

	for _, field := range section.Fields {
		if _, failing := errs[field.Path]; failing {
			continue
		}
		if field.Validator == "" {
			continue
		}
		value := d.String(field.Path)
		if value == "" {
			continue
		}
		if err := e.validators.Validate(field.Validator, value, ctx); err != nil {
			errs[field.Path] = err.Error()
		}
	}

	if section.Key == registry.SectionPayment {
		e.validatePayment(d, errs)
	}
	return errs
}

// validatePayment applies the payment-method-conditional rules on top of
// the declarative checks.
func (e *Engine) validatePayment(d *draft.Draft, errs ErrorMap) {
	switch d.String("payment_method") {
	case registry.PaymentMethodUPI:
		if d.Empty("upi_id") {
			errs["upi_id"] = requiredMessage("UPI ID")
		}
	case registry.PaymentMethodBank:
		if e.payment.RequireBankFields {
			for _, path := range []string{"bank_holder_name", "bank_name", "account_number", "ifsc_code"} {
				if _, failing := errs[path]; failing {
					continue
				}
				if d.Empty(path) {
					errs[path] = requiredMessage(humanize(path))
				}
			}
		}
		if account := d.String("account_number"); account != "" && len(account) < minAccountNumberLength {
			errs["account_number"] = "account number must be at least 9 digits"
		}
		if ifsc := d.String("ifsc_code"); ifsc != "" && len(ifsc) != ifscLength {
			errs["ifsc_code"] = ErrIFSCFormat.Error()
		}
	}
}

// fieldSatisfied reports whether a required path holds a usable value. File
// fields are satisfied by either a previously persisted reference (opaque
// string) or a newly staged binary.
func fieldSatisfied(d *draft.Draft, path string) bool {
	v, ok := d.Value(path)
	if !ok || v == nil {
		return false
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed) != ""
	case []byte:
		return len(typed) > 0
	default:
		return true
	}
}

func labelFor(section registry.Section, path string) string {
	for _, field := range section.Fields {
		if field.Path == path && field.Label != "" {
			return field.Label
		}
	}
	return humanize(path)
}
