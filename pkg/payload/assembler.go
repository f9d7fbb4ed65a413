// Package payload reduces a draft into a submission-ready request body.
// Two shapes exist: the full-editor body (every sub-object plus allow-listed
// root scalars) and the single-section body (a section marker plus that
// section's fields). Staged attachments always travel as multipart binaries;
// previously persisted references are never echoed back.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/goliatone/go-editflow/pkg/attach"
	"github.com/goliatone/go-editflow/pkg/draft"
	"github.com/goliatone/go-editflow/pkg/registry"
)

// SectionMarkerField names the multipart field carrying the section key so
// the receiving collaborator knows which sub-resource to patch.
const SectionMarkerField = "section"

// RootScalars is the allow-list of root-level fields the full assembly may
// carry. Anything else at the draft root is dropped, and a listed field is
// included only when defined and non-nil so untouched server values are
// never overwritten with nulls. An explicit empty string passes through.
var RootScalars = []string{
	"username", "role", "email", "mobile",
	"pan", "aadhaar",
	"payment_method", "upi_id",
	"bank_holder_name", "bank_name", "account_number", "ifsc_code",
	"website", "facebook", "instagram", "linkedin",
}

// RequestBody is the assembled submission: JSON-able fields plus staged
// binaries keyed by field name.
type RequestBody struct {
	Fields map[string]any
	Files  map[string]*attach.Staged
}

// HasFiles reports whether the body must be encoded as multipart.
func (b RequestBody) HasFiles() bool { return len(b.Files) > 0 }

// EncodeJSON serialises the scalar fields as a JSON object.
func (b RequestBody) EncodeJSON() ([]byte, error) {
	data, err := json.Marshal(b.Fields)
	if err != nil {
		return nil, fmt.Errorf("payload: encode json: %w", err)
	}
	return data, nil
}

// EncodeMultipart serialises the body as multipart/form-data: files under
// their field names as binaries, scalars stringified (nested sub-objects as
// JSON). Returns the content type with its boundary and the raw body.
func (b RequestBody) EncodeMultipart() (string, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range b.Fields {
		text, err := stringifyField(value)
		if err != nil {
			return "", nil, fmt.Errorf("payload: field %s: %w", name, err)
		}
		if err := writer.WriteField(name, text); err != nil {
			return "", nil, fmt.Errorf("payload: write field %s: %w", name, err)
		}
	}
	for name, staged := range b.Files {
		if staged == nil {
			continue
		}
		filename := staged.Filename
		if filename == "" {
			filename = name
		}
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			return "", nil, fmt.Errorf("payload: create file part %s: %w", name, err)
		}
		if _, err := part.Write(staged.Data); err != nil {
			return "", nil, fmt.Errorf("payload: write file part %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", nil, fmt.Errorf("payload: close multipart body: %w", err)
	}
	return writer.FormDataContentType(), buf.Bytes(), nil
}

// Assembler walks the section registry to tell scalar fields from file
// fields while reducing a draft.
type Assembler struct {
	registry *registry.Registry
}

// New builds an assembler over the supplied registry.
func New(reg *registry.Registry) *Assembler {
	return &Assembler{registry: reg}
}

// AssembleFull produces the full-editor body: the profile, company, and
// address sub-objects in full plus the allow-listed root scalars. File
// fields contribute staged binaries only; an unchanged attachment is
// omitted entirely.
func (a *Assembler) AssembleFull(d *draft.Draft) RequestBody {
	body := RequestBody{
		Fields: make(map[string]any),
		Files:  make(map[string]*attach.Staged),
	}
	if d == nil {
		return body
	}
	values := d.Values()

	for _, name := range d.SubObjects() {
		sub, _ := values[name].(map[string]any)
		body.Fields[name] = a.reduceSubObject(name, sub, body.Files)
	}
	for _, name := range RootScalars {
		value, ok := values[name]
		if !ok || value == nil {
			continue
		}
		body.Fields[name] = value
	}
	a.collectRootFiles(values, body)
	return body
}

// AssembleSection produces the single-section body: the section marker,
// that section's scalar fields, and its staged files.
func (a *Assembler) AssembleSection(d *draft.Draft, sectionKey string) (RequestBody, error) {
	body := RequestBody{
		Fields: make(map[string]any),
		Files:  make(map[string]*attach.Staged),
	}
	section, ok := a.registry.Section(sectionKey)
	if !ok {
		return body, fmt.Errorf("payload: unknown section %q", sectionKey)
	}
	body.Fields[SectionMarkerField] = section.Key

	for _, field := range section.Fields {
		value, defined := d.Value(field.Path)
		if !defined || value == nil {
			continue
		}
		if staged, isStaged := value.(*attach.Staged); isStaged {
			body.Files[field.Name] = staged
			continue
		}
		if field.Type == registry.FieldTypeFile {
			// Unchanged persisted reference; never sent back.
			continue
		}
		body.Fields[field.Name] = value
	}
	return body, nil
}

// reduceSubObject copies a sub-object, extracting staged binaries into the
// files map and dropping persisted file references.
func (a *Assembler) reduceSubObject(name string, sub map[string]any, files map[string]*attach.Staged) map[string]any {
	out := make(map[string]any, len(sub))
	for key, value := range sub {
		if staged, isStaged := value.(*attach.Staged); isStaged {
			files[key] = staged
			continue
		}
		if a.isFileField(name+"."+key) && isString(value) {
			continue
		}
		out[key] = value
	}
	return out
}

func (a *Assembler) collectRootFiles(values map[string]any, body RequestBody) {
	for key, value := range values {
		staged, isStaged := value.(*attach.Staged)
		if !isStaged {
			continue
		}
		body.Files[key] = staged
		delete(body.Fields, key)
	}
}

func (a *Assembler) isFileField(path string) bool {
	field, ok := a.registry.FieldByPath(path)
	return ok && field.Type == registry.FieldTypeFile
}

func isString(value any) bool {
	_, ok := value.(string)
	return ok
}

func stringifyField(value any) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case nil:
		return "", nil
	case map[string]any, []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return strings.TrimSpace(fmt.Sprint(typed)), nil
	}
}
