package editflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-editflow/pkg/attach"
	"github.com/goliatone/go-editflow/pkg/draft"
	"github.com/goliatone/go-editflow/pkg/lookup"
	"github.com/goliatone/go-editflow/pkg/nav"
	"github.com/goliatone/go-editflow/pkg/payload"
	"github.com/goliatone/go-editflow/pkg/registry"
	"github.com/goliatone/go-editflow/pkg/validation"
)

// Updater is the external collaborator that persists an assembled request
// body. It returns the updated entity or a structured error; the session
// never retries.
type Updater interface {
	Update(ctx context.Context, body payload.RequestBody) (map[string]any, error)
}

// UpdaterFunc adapts a function into an Updater.
type UpdaterFunc func(ctx context.Context, body payload.RequestBody) (map[string]any, error)

// Update delegates to the underlying function.
func (fn UpdaterFunc) Update(ctx context.Context, body payload.RequestBody) (map[string]any, error) {
	return fn(ctx, body)
}

// Notifier receives human-readable success/failure strings, fire-and-forget.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(message string)

// Notify delegates to the underlying function.
func (fn NotifierFunc) Notify(message string) { fn(message) }

// Identity is the authenticated viewer, injected read-only so the engine is
// testable without a running session layer. It is never ambient state.
type Identity struct {
	UserID string
	Role   string
}

var errNoUpdater = errors.New("editflow: no updater configured")

// Session is one editing session over a single draft. It is privately owned
// by one user interaction and must not be shared across goroutines except
// through the documented submit guard.
type Session struct {
	id       string
	identity Identity

	registry    *registry.Registry
	draft       *draft.Draft
	engine      *validation.Engine
	modalEngine *validation.Engine
	nav         *nav.Controller
	attachments *attach.Handler
	assembler   *payload.Assembler

	regions  lookup.RegionProvider
	updater  Updater
	notifier Notifier
	onClose  func()
	now      func() time.Time

	mu         sync.Mutex
	submitting bool
	attachErrs validation.ErrorMap

	lookupMu        sync.Mutex
	lookupGen       uint64
	districtOptions []string
	lookupPending   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithSections replaces the built-in member sections.
func WithSections(sections ...registry.Section) Option {
	return func(s *Session) {
		if reg, err := registry.New(sections...); err == nil {
			s.registry = reg
		}
	}
}

// WithRegistry installs a prebuilt section registry (YAML- or
// OpenAPI-derived).
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithIdentity injects the read-only viewer context.
func WithIdentity(identity Identity) Option {
	return func(s *Session) { s.identity = identity }
}

// WithUpdater installs the update collaborator Save hands payloads to.
func WithUpdater(updater Updater) Option {
	return func(s *Session) { s.updater = updater }
}

// WithNotifier installs the notification collaborator.
func WithNotifier(notifier Notifier) Option {
	return func(s *Session) { s.notifier = notifier }
}

// WithRegionProvider installs the location hierarchy collaborator.
func WithRegionProvider(provider lookup.RegionProvider) Option {
	return func(s *Session) { s.regions = provider }
}

// WithPaymentPolicy selects the requiredness policy the sequential wizard
// gate applies to bank payout fields.
func WithPaymentPolicy(policy validation.PaymentPolicy) Option {
	return func(s *Session) {
		s.engine = validation.NewEngine(validation.WithPaymentPolicy(policy))
	}
}

// WithClock fixes the time source for date validation. Tests use this to
// pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOnClose registers the host callback invoked by Close.
func WithOnClose(fn func()) Option {
	return func(s *Session) { s.onClose = fn }
}

// NewSession seeds a draft from the fetched entity and positions the editor
// on the first section. The sequential gate defaults to the wizard payment
// policy; single-section saves keep the modal policy (the two observed call
// sites diverge and both behaviours are preserved).
func NewSession(entity map[string]any, opts ...Option) (*Session, error) {
	s := &Session{
		id:          uuid.NewString(),
		engine:      validation.NewEngine(validation.WithPaymentPolicy(validation.WizardPaymentPolicy)),
		modalEngine: validation.NewEngine(validation.WithPaymentPolicy(validation.ModalPaymentPolicy)),
		now:         time.Now,
		attachErrs:  validation.ErrorMap{},
	}
	reg, err := registry.New(registry.MemberSections()...)
	if err != nil {
		return nil, err
	}
	s.registry = reg

	for _, opt := range opts {
		opt(s)
	}

	s.draft = draft.Seed(entity)
	s.attachments = attach.NewHandler(s.registry)
	s.assembler = payload.New(s.registry)

	controller, err := nav.New(s.registry, func(section registry.Section) validation.ErrorMap {
		return s.engine.ValidateSection(section, s.draft, s.validationContext())
	})
	if err != nil {
		return nil, err
	}
	s.nav = controller
	return s, nil
}

// ID returns the opaque session id.
func (s *Session) ID() string { return s.id }

// Identity returns the injected viewer context.
func (s *Session) Identity() Identity { return s.identity }

// Draft exposes the current draft snapshot.
func (s *Session) Draft() *draft.Draft { return s.draft }

// Registry exposes the section registry driving this session.
func (s *Session) Registry() *registry.Registry { return s.registry }

// ActiveSection returns the section the editor is on.
func (s *Session) ActiveSection() registry.Section { return s.nav.Active() }

// Next advances one section, gated by validation of the active section.
func (s *Session) Next() error { return s.nav.Next() }

// Prev retreats one section under the same gate.
func (s *Session) Prev() error { return s.nav.Prev() }

// JumpTo activates a section directly, bypassing the gate by design.
func (s *Session) JumpTo(key string) error { return s.nav.JumpTo(key) }

// Errors returns the inline failures currently on display: the latest gated
// move's ErrorMap merged with attachment rejections.
func (s *Session) Errors() validation.ErrorMap {
	merged := validation.ErrorMap{}
	for path, msg := range s.nav.Errors() {
		merged[path] = msg
	}
	s.mu.Lock()
	for path, msg := range s.attachErrs {
		merged[path] = msg
	}
	s.mu.Unlock()
	return merged
}

// SetField routes one edit into the draft. Locked-field writes are silent
// no-ops (the draft retains its first value); a change to the governing
// region field reactively refreshes the district options.
func (s *Session) SetField(path string, value any) error {
	next, err := s.draft.SetField(path, value)
	if err != nil {
		if errors.Is(err, draft.ErrFieldLocked) {
			return nil
		}
		return err
	}
	s.draft = next

	if path == "address.state" {
		s.refreshDistricts(fmt.Sprint(value))
	}
	return nil
}

// SetSection merges a partial object into one sub-object. A merge that
// touches the governing region field refreshes the district options exactly
// as a single-field write does.
func (s *Session) SetSection(sectionKey string, partial map[string]any) error {
	next, err := s.draft.SetSection(sectionKey, partial)
	if err != nil {
		return err
	}
	s.draft = next

	if sectionKey == "address" {
		if _, ok := partial["state"]; ok {
			s.refreshDistricts(s.draft.String("address.state"))
		}
	}
	return nil
}

// StageAttachment validates and stages a file for the named field. A
// rejection surfaces inline under the field and leaves the draft untouched.
func (s *Session) StageAttachment(fieldName string, file attach.File) error {
	path, staged, err := s.attachments.Stage(fieldName, file)
	if err != nil {
		if path != "" {
			s.mu.Lock()
			s.attachErrs[path] = err.Error()
			s.mu.Unlock()
		}
		return err
	}
	s.mu.Lock()
	delete(s.attachErrs, path)
	s.mu.Unlock()

	next, setErr := s.draft.SetField(path, staged)
	if setErr != nil {
		return setErr
	}
	s.draft = next
	return nil
}

// AttachmentPreview returns the display URI for a staged field once its
// decode has completed. The URI is ephemeral and never persisted.
func (s *Session) AttachmentPreview(path string) (string, bool) {
	return s.attachments.Preview(path)
}

// StateOptions returns the governing region options from the lookup
// provider; nil when no provider is configured.
func (s *Session) StateOptions() []string {
	if s.regions == nil {
		return nil
	}
	options, err := s.regions.Regions(context.Background())
	if err != nil {
		return nil
	}
	return options
}

// DistrictOptions returns the options for the dependent district field; nil
// while the governing region field is empty.
func (s *Session) DistrictOptions() []string {
	s.lookupMu.Lock()
	defer s.lookupMu.Unlock()
	return append([]string(nil), s.districtOptions...)
}

// Submitting reports whether a submit is in flight so hosts can disable the
// affordance.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Save assembles the full-editor payload and hands it to the update
// collaborator. A second call while one is outstanding is a no-op; it is
// never queued. On rejection the draft is preserved unchanged for
// correction; the outcome reaches the notifier either way.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if s.updater == nil {
		return errNoUpdater
	}

	body := s.assembler.AssembleFull(s.draft)
	updated, err := s.updater.Update(ctx, body)
	if err != nil {
		s.notify("Profile update failed. Please try again.")
		return fmt.Errorf("editflow: submit rejected: %w", err)
	}
	if updated != nil {
		s.draft = draft.Seed(updated)
	}
	s.notify("Profile updated successfully.")
	return nil
}

// SaveSection validates one section under the modal call-site policy and
// submits it as a multipart patch with the section marker set.
func (s *Session) SaveSection(ctx context.Context, sectionKey string) error {
	section, ok := s.registry.Section(sectionKey)
	if !ok {
		return fmt.Errorf("editflow: unknown section %q", sectionKey)
	}
	if errs := s.modalEngine.ValidateSection(section, s.draft, s.validationContext()); !errs.Empty() {
		return fmt.Errorf("%w: %s", nav.ErrSectionBlocked, sectionKey)
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if s.updater == nil {
		return errNoUpdater
	}

	body, err := s.assembler.AssembleSection(s.draft, sectionKey)
	if err != nil {
		return err
	}
	updated, err := s.updater.Update(ctx, body)
	if err != nil {
		s.notify("Could not save this section. Please try again.")
		return fmt.Errorf("editflow: submit rejected: %w", err)
	}
	if updated != nil {
		s.draft = draft.Seed(updated)
	}
	s.notify("Section saved.")
	return nil
}

// Close discards the draft with no side effects beyond the host callback.
func (s *Session) Close() {
	s.attachments.Flush()
	s.lookupPending.Wait()
	if s.onClose != nil {
		s.onClose()
	}
}

// Flush waits for outstanding asynchronous work (preview decodes, district
// lookups). Tests use it for determinism.
func (s *Session) Flush() {
	s.attachments.Flush()
	s.lookupPending.Wait()
}

func (s *Session) validationContext() validation.Context {
	return validation.Context{
		Values: s.draft.Values(),
		Now:    s.now(),
	}
}

func (s *Session) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

// refreshDistricts clears the dependent district value and re-queries its
// option set. Responses are applied only when they still correspond to the
// latest request, so a slow lookup for a superseded region is dropped.
func (s *Session) refreshDistricts(state string) {
	if next, err := s.draft.SetField("address.district", ""); err == nil {
		s.draft = next
	}

	s.lookupMu.Lock()
	s.lookupGen++
	current := s.lookupGen
	if state == "" || s.regions == nil {
		s.districtOptions = nil
		s.lookupMu.Unlock()
		return
	}
	s.lookupMu.Unlock()

	s.lookupPending.Add(1)
	go func() {
		defer s.lookupPending.Done()
		options, err := s.regions.Districts(context.Background(), state)
		if err != nil {
			return
		}
		s.lookupMu.Lock()
		defer s.lookupMu.Unlock()
		if s.lookupGen != current {
			return
		}
		s.districtOptions = options
	}()
}
