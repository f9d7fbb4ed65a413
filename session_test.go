package editflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editflow/pkg/attach"
	"github.com/goliatone/go-editflow/pkg/lookup"
	"github.com/goliatone/go-editflow/pkg/nav"
	"github.com/goliatone/go-editflow/pkg/payload"
	"github.com/goliatone/go-editflow/pkg/registry"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestSession(t *testing.T, entity map[string]any, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(entity, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSession_NextBlockedOnEmptyAddress(t *testing.T) {
	s := newTestSession(t, nil)
	if err := s.JumpTo(registry.SectionAddress); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}

	err := s.Next()
	if !errors.Is(err, nav.ErrSectionBlocked) {
		t.Fatalf("Next err = %v, want ErrSectionBlocked", err)
	}
	if s.ActiveSection().Key != registry.SectionAddress {
		t.Fatalf("active moved to %s", s.ActiveSection().Key)
	}
	if got := len(s.Errors()); got != 5 {
		t.Fatalf("expected exactly 5 errors, got %d: %v", got, s.Errors())
	}
}

func TestSession_DistrictFollowsState(t *testing.T) {
	provider := lookup.NewStatic(map[string][]string{
		"S1": {"D1", "D2"},
		"S2": {"D3"},
	})
	s := newTestSession(t, nil, WithRegionProvider(provider))

	reg := s.Registry()
	section, _ := reg.Section(registry.SectionAddress)
	district, _ := section.FieldByName("district")

	if !FieldDisabled(district, s.Draft()) {
		t.Fatalf("district should start disabled with no state")
	}

	if err := s.SetField("address.state", "S1"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	s.Flush()

	if FieldDisabled(district, s.Draft()) {
		t.Fatalf("district should enable once state is set")
	}
	if diff := cmp.Diff([]string{"D1", "D2"}, s.DistrictOptions()); diff != "" {
		t.Fatalf("district options mismatch (-want +got):\n%s", diff)
	}

	if err := s.SetField("address.district", "D2"); err != nil {
		t.Fatalf("set district: %v", err)
	}

	// Clearing the governing field clears the dependent value and disables
	// the field again.
	if err := s.SetField("address.state", ""); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	s.Flush()

	if got := s.Draft().String("address.district"); got != "" {
		t.Fatalf("district should be cleared, got %q", got)
	}
	if !FieldDisabled(district, s.Draft()) {
		t.Fatalf("district should disable when state clears")
	}
	if len(s.DistrictOptions()) != 0 {
		t.Fatalf("options should clear, got %v", s.DistrictOptions())
	}
}

func TestSession_SetSectionRefreshesDistricts(t *testing.T) {
	provider := lookup.NewStatic(map[string][]string{
		"S1": {"D1", "D2"},
	})
	s := newTestSession(t, nil, WithRegionProvider(provider))

	// A section merge touching the governing field behaves exactly like a
	// single-field write: options refresh and the dependent value clears.
	if err := s.SetSection("address", map[string]any{"state": "S1", "city": "Pune"}); err != nil {
		t.Fatalf("SetSection: %v", err)
	}
	s.Flush()

	if diff := cmp.Diff([]string{"D1", "D2"}, s.DistrictOptions()); diff != "" {
		t.Fatalf("district options mismatch (-want +got):\n%s", diff)
	}
	if got := s.Draft().String("address.city"); got != "Pune" {
		t.Fatalf("merge dropped city: %q", got)
	}

	if err := s.SetField("address.district", "D2"); err != nil {
		t.Fatalf("set district: %v", err)
	}
	if err := s.SetSection("address", map[string]any{"state": ""}); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	s.Flush()

	if got := s.Draft().String("address.district"); got != "" {
		t.Fatalf("district should be cleared, got %q", got)
	}
	if len(s.DistrictOptions()) != 0 {
		t.Fatalf("options should clear, got %v", s.DistrictOptions())
	}
}

func TestSession_BirthDateWriteIsNoOpOnceSet(t *testing.T) {
	s := newTestSession(t, nil)

	if err := s.SetField("profile.dob", "1990-01-02"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.SetField("profile.dob", "2001-12-31"); err != nil {
		t.Fatalf("second write should be a silent no-op, got %v", err)
	}
	if got := s.Draft().String("profile.dob"); got != "1990-01-02" {
		t.Fatalf("dob = %q, want the first value", got)
	}
}

func TestSession_AttachmentRejectionInline(t *testing.T) {
	s := newTestSession(t, nil)

	err := s.StageAttachment("photo", attach.File{Name: "big.png", MIME: "image/png", Data: make([]byte, 6<<20)})
	if !errors.Is(err, attach.ErrTooLarge) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := s.Draft().Value("profile.photo"); ok {
		t.Fatalf("rejected file must not touch the draft")
	}
	if msg, ok := s.Errors()["profile.photo"]; !ok || msg == "" {
		t.Fatalf("rejection should surface inline, errors = %v", s.Errors())
	}

	// A subsequent valid stage clears the inline error and lands on the
	// draft.
	if err := s.StageAttachment("photo", attach.File{Name: "ok.png", MIME: "image/png", Data: []byte{1}}); err != nil {
		t.Fatalf("valid stage: %v", err)
	}
	if _, ok := s.Errors()["profile.photo"]; ok {
		t.Fatalf("inline error should clear after a valid stage")
	}
	stagedValue, _ := s.Draft().Value("profile.photo")
	if _, ok := stagedValue.(*attach.Staged); !ok {
		t.Fatalf("staged binary missing from draft")
	}
	s.Flush()
	if _, ok := s.AttachmentPreview("profile.photo"); !ok {
		t.Fatalf("preview should be available after flush")
	}
}

func TestSession_SubmitGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex

	updater := UpdaterFunc(func(_ context.Context, _ payload.RequestBody) (map[string]any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil, nil
	})
	s := newTestSession(t, nil, WithUpdater(updater))

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	<-started

	if !s.Submitting() {
		t.Fatalf("submitting flag should be up during an in-flight save")
	}
	// Second attempt while one is outstanding: a no-op, never queued.
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("concurrent save should be a no-op, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("updater called %d times, want 1", calls)
	}
}

func TestSession_SubmissionRejectedPreservesDraft(t *testing.T) {
	notifier := &recordingNotifier{}
	updater := UpdaterFunc(func(_ context.Context, _ payload.RequestBody) (map[string]any, error) {
		return nil, errors.New("backend said no")
	})
	s := newTestSession(t, nil, WithUpdater(updater), WithNotifier(notifier))

	if err := s.SetField("email", "a@b.example"); err != nil {
		t.Fatalf("set email: %v", err)
	}

	if err := s.Save(context.Background()); err == nil {
		t.Fatalf("rejected submit should error")
	}
	if s.Submitting() {
		t.Fatalf("submitting flag stuck after rejection")
	}
	if got := s.Draft().String("email"); got != "a@b.example" {
		t.Fatalf("draft should be preserved for correction, email = %q", got)
	}
	messages := notifier.all()
	if len(messages) != 1 || messages[0] == "" {
		t.Fatalf("expected one failure notification, got %v", messages)
	}
}

func TestSession_SaveSectionUsesModalPolicy(t *testing.T) {
	var received payload.RequestBody
	updater := UpdaterFunc(func(_ context.Context, body payload.RequestBody) (map[string]any, error) {
		received = body
		return nil, nil
	})
	s := newTestSession(t, map[string]any{
		"payment_method": registry.PaymentMethodBank,
	}, WithUpdater(updater))

	// The modal call site accepts empty bank fields; the wizard gate would
	// refuse this same draft.
	if err := s.SaveSection(context.Background(), registry.SectionPayment); err != nil {
		t.Fatalf("SaveSection: %v", err)
	}
	if received.Fields[payload.SectionMarkerField] != registry.SectionPayment {
		t.Fatalf("section marker missing: %v", received.Fields)
	}
}

func TestSession_CloseInvokesHostCallback(t *testing.T) {
	closed := false
	s := newTestSession(t, nil, WithOnClose(func() { closed = true }))
	s.Close()
	if !closed {
		t.Fatalf("onClose not invoked")
	}
}

func TestSession_IdentityIsInjected(t *testing.T) {
	s := newTestSession(t, nil, WithIdentity(Identity{UserID: "u-1", Role: "owner"}))
	if s.Identity().UserID != "u-1" || s.Identity().Role != "owner" {
		t.Fatalf("identity = %+v", s.Identity())
	}
	if s.ID() == "" {
		t.Fatalf("session id missing")
	}
}

func TestSession_ClockPinsAgeValidation(t *testing.T) {
	fixed := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSession(t, map[string]any{
		"mobile": "9876543210",
		"email":  "a@b.example",
		"profile": map[string]any{
			"first_name": "Asha",
			"last_name":  "Verma",
			"dob":        "2008-06-02", // one component-day short of 18
		},
	}, WithClock(func() time.Time { return fixed }))

	err := s.Next()
	if !errors.Is(err, nav.ErrSectionBlocked) {
		t.Fatalf("underage dob should block, got %v", err)
	}
	if _, ok := s.Errors()["profile.dob"]; !ok {
		t.Fatalf("dob error missing: %v", s.Errors())
	}
}
