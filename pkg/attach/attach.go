// Package attach stages user-selected files for the editor: size and type
// gating, uuid staging references, and asynchronous preview generation.
// Previews are display-only and discarded at submit; the payload assembler
// sends only the raw staged binary.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-editflow/pkg/registry"
)

// MaxFileSize is the staging limit. Checked before the type gate so an
// oversized PDF reports the size failure, matching the original editors.
const MaxFileSize = 5 << 20

var (
	// ErrTooLarge rejects files over MaxFileSize.
	ErrTooLarge = errors.New("file is larger than the 5 MB limit")
	// ErrBadType rejects anything that is neither an image nor a PDF.
	ErrBadType = errors.New("only image or PDF files are allowed")
	// ErrUnknownField is returned when no section declares the field.
	ErrUnknownField = errors.New("attach: no section declares this field")
)

// File is a user-selected binary on its way into the editor.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Staged is a validated attachment waiting for submit. Ref is an opaque
// staging id; the previously persisted server reference (if any) stays on
// the draft until the staged binary replaces it at submit.
type Staged struct {
	Ref      string
	Filename string
	MIME     string
	Data     []byte
}

// Handler validates and stages attachments. Preview decoding runs
// asynchronously; a per-path generation counter guarantees that when two
// files are staged for the same field in quick succession only the latest
// preview is ever published.
type Handler struct {
	registry *registry.Registry

	mu       sync.Mutex
	gen      map[string]uint64
	previews map[string]string
	pending  sync.WaitGroup
}

// NewHandler builds a handler that resolves field ownership through the
// supplied section registry.
func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{
		registry: reg,
		gen:      make(map[string]uint64),
		previews: make(map[string]string),
	}
}

// Stage validates the file and returns the resolved draft path plus the
// staged attachment the caller stores there. The owning sub-object is chosen
// by checking which section schema declares the field name; callers never
// spell out the path. On rejection nothing is staged and the previous
// preview (if any) is untouched.
func (h *Handler) Stage(fieldName string, file File) (string, *Staged, error) {
	path, err := h.resolvePath(fieldName)
	if err != nil {
		return "", nil, err
	}
	if len(file.Data) > MaxFileSize {
		return path, nil, ErrTooLarge
	}
	mime := file.MIME
	if mime == "" {
		mime = http.DetectContentType(file.Data)
	}
	if !allowedMIME(mime) {
		return path, nil, ErrBadType
	}

	staged := &Staged{
		Ref:      uuid.NewString(),
		Filename: file.Name,
		MIME:     mime,
		Data:     file.Data,
	}
	h.decodePreview(path, staged)
	return path, staged, nil
}

// Preview returns the embeddable display URI for a field path once its
// decode has completed.
func (h *Handler) Preview(path string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	uri, ok := h.previews[path]
	return uri, ok
}

// Flush blocks until every outstanding preview decode has settled. Hosts
// call it before tearing the session down; tests use it for determinism.
func (h *Handler) Flush() {
	h.pending.Wait()
}

// decodePreview publishes a data URI for the staged binary. The generation
// captured before the goroutine starts must still be current at publish
// time, otherwise a newer stage for the same path has superseded this one
// and the result is dropped.
func (h *Handler) decodePreview(path string, staged *Staged) {
	h.mu.Lock()
	h.gen[path]++
	current := h.gen[path]
	h.mu.Unlock()

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		uri := fmt.Sprintf("data:%s;base64,%s", staged.MIME, base64.StdEncoding.EncodeToString(staged.Data))

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.gen[path] != current {
			return
		}
		h.previews[path] = uri
	}()
}

func (h *Handler) resolvePath(fieldName string) (string, error) {
	owner, ok := h.registry.OwnerOf(fieldName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, fieldName)
	}
	if owner == "" {
		return fieldName, nil
	}
	return owner + "." + fieldName, nil
}

func allowedMIME(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	return strings.HasPrefix(mime, "image/") || mime == "application/pdf"
}
