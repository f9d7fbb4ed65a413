package registry

import "strings"

// Well-known section keys for the built-in member editor.
const (
	SectionPersonal  = "personal"
	SectionDocuments = "documents"
	SectionAddress   = "address"
	SectionBusiness  = "business"
	SectionPayment   = "payment"
	SectionSocial    = "social"
)

// Payment method choices. Exactly one is active at a time; switching clears
// the fields exclusive to the other choice.
const (
	PaymentMethodUPI  = "upi"
	PaymentMethodBank = "bank"
)

// BankFields and UPIFields list the draft paths exclusive to each payment
// choice. The draft store clears the inactive set on a method switch.
var (
	BankFields = []string{"bank_holder_name", "bank_name", "account_number", "ifsc_code", "passbook_photo"}
	UPIFields  = []string{"upi_id"}
)

// valueAt resolves one level of dotted path against raw draft values. Kept
// local so disabled predicates stay dependency-free.
func valueAt(values map[string]any, path string) any {
	if values == nil {
		return nil
	}
	head, tail, nested := strings.Cut(path, ".")
	if !nested {
		return values[path]
	}
	sub, _ := values[head].(map[string]any)
	if sub == nil {
		return nil
	}
	return sub[tail]
}

func emptyAt(values map[string]any, path string) bool {
	v := valueAt(values, path)
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// LockedOnceSet disables a field after it first holds a non-empty value.
// Used for once-verified facts such as the birth date.
func LockedOnceSet(path string) DisabledFunc {
	return func(values map[string]any) bool {
		return !emptyAt(values, path)
	}
}

// DisabledUntilSet disables a field while another path is empty. Used for
// dependent selects such as district-until-state.
func DisabledUntilSet(path string) DisabledFunc {
	return func(values map[string]any) bool {
		return emptyAt(values, path)
	}
}

// MemberSections returns the built-in six-section member editor. Hosts that
// need a different shape load their own sections from YAML or an OpenAPI
// schema instead.
func MemberSections() []Section {
	return []Section{
		{
			Key:   SectionPersonal,
			Title: "Personal Details",
			Fields: []FieldSpec{
				{Name: "first_name", Path: "profile.first_name", Type: FieldTypeText, Label: "First Name", Required: true},
				{Name: "last_name", Path: "profile.last_name", Type: FieldTypeText, Label: "Last Name", Required: true},
				{Name: "dob", Path: "profile.dob", Type: FieldTypeDate, Label: "Date of Birth", Required: true, Validator: "age18", Disabled: LockedOnceSet("profile.dob")},
				{Name: "gender", Path: "profile.gender", Type: FieldTypeSelect, Label: "Gender", Options: []string{"female", "male", "other"}},
				{Name: "mobile", Path: "mobile", Type: FieldTypeText, Label: "Mobile Number", Required: true, Validator: "mobile"},
				{Name: "alternate_mobile", Path: "profile.alternate_mobile", Type: FieldTypeText, Label: "Alternate Mobile", Validator: "mobile"},
				{Name: "email", Path: "email", Type: FieldTypeText, Label: "Email", Required: true},
				{Name: "bio", Path: "profile.bio", Type: FieldTypeTextarea, Label: "About"},
			},
			Required: []string{"profile.first_name", "profile.last_name", "profile.dob", "mobile", "email"},
		},
		{
			Key:   SectionDocuments,
			Title: "Identity Documents",
			Fields: []FieldSpec{
				{Name: "pan", Path: "pan", Type: FieldTypeText, Label: "PAN Number", Required: true, Validator: "pan"},
				{Name: "aadhaar", Path: "aadhaar", Type: FieldTypeText, Label: "Aadhaar Number", Required: true, Validator: "aadhaar"},
				{Name: "photo", Path: "profile.photo", Type: FieldTypeFile, Label: "Profile Photo", Required: true},
				{Name: "pan_card", Path: "profile.pan_card", Type: FieldTypeFile, Label: "PAN Card", Required: true},
				{Name: "aadhaar_card", Path: "profile.aadhaar_card", Type: FieldTypeFile, Label: "Aadhaar Card"},
			},
			Required: []string{"pan", "aadhaar", "profile.photo", "profile.pan_card"},
		},
		{
			Key:   SectionAddress,
			Title: "Address",
			Fields: []FieldSpec{
				{Name: "street_address", Path: "address.street_address", Type: FieldTypeText, Label: "Street Address", Required: true},
				{Name: "city", Path: "address.city", Type: FieldTypeText, Label: "City", Required: true},
				{Name: "state", Path: "address.state", Type: FieldTypeSelect, Label: "State", Required: true},
				{Name: "district", Path: "address.district", Type: FieldTypeSelect, Label: "District", Required: true, Disabled: DisabledUntilSet("address.state")},
				{Name: "postal_code", Path: "address.postal_code", Type: FieldTypeText, Label: "PIN Code", Required: true, Validator: "pincode"},
			},
			Required: []string{"address.street_address", "address.city", "address.state", "address.district", "address.postal_code"},
		},
		{
			Key:   SectionBusiness,
			Title: "Business Details",
			Fields: []FieldSpec{
				{Name: "company_name", Path: "company.name", Type: FieldTypeText, Label: "Company Name"},
				{Name: "phone", Path: "company.phone", Type: FieldTypeText, Label: "Company Phone", Validator: "mobile"},
				{Name: "gst", Path: "company.gst", Type: FieldTypeText, Label: "GST Number", Validator: "gst"},
				{Name: "company_address", Path: "company.address", Type: FieldTypeTextarea, Label: "Company Address"},
			},
		},
		{
			Key:   SectionPayment,
			Title: "Payment Details",
			Fields: []FieldSpec{
				{Name: "payment_method", Path: "payment_method", Type: FieldTypeSelect, Label: "Payout Method", Required: true, Options: []string{PaymentMethodUPI, PaymentMethodBank}},
				{Name: "upi_id", Path: "upi_id", Type: FieldTypeText, Label: "UPI ID"},
				{Name: "bank_holder_name", Path: "bank_holder_name", Type: FieldTypeText, Label: "Account Holder Name"},
				{Name: "bank_name", Path: "bank_name", Type: FieldTypeText, Label: "Bank Name"},
				{Name: "account_number", Path: "account_number", Type: FieldTypeText, Label: "Account Number"},
				{Name: "ifsc_code", Path: "ifsc_code", Type: FieldTypeText, Label: "IFSC Code", Validator: "ifsc"},
				{Name: "passbook_photo", Path: "passbook_photo", Type: FieldTypeFile, Label: "Passbook / Cancelled Cheque"},
			},
			Required: []string{"payment_method"},
		},
		{
			Key:   SectionSocial,
			Title: "Social Links",
			Fields: []FieldSpec{
				{Name: "website", Path: "website", Type: FieldTypeText, Label: "Website"},
				{Name: "facebook", Path: "facebook", Type: FieldTypeText, Label: "Facebook"},
				{Name: "instagram", Path: "instagram", Type: FieldTypeText, Label: "Instagram"},
				{Name: "linkedin", Path: "linkedin", Type: FieldTypeText, Label: "LinkedIn"},
			},
		},
	}
}
