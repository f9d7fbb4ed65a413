package tui

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	editflow "github.com/goliatone/go-editflow"
	"github.com/goliatone/go-editflow/pkg/lookup"
	"github.com/goliatone/go-editflow/pkg/payload"
	"github.com/goliatone/go-editflow/pkg/registry"
)

// scriptedDriver replays canned answers: inputs for Input prompts, options
// by label for Select prompts. It records the default index offered by each
// Select so tests can assert the current value is preselected.
type scriptedDriver struct {
	t        *testing.T
	inputs   []string
	selects  []string
	infos    []string
	defaults []int
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		d.t.Fatalf("unexpected input prompt %q", cfg.Message)
	}
	out := d.inputs[0]
	d.inputs = d.inputs[1:]
	return out, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.defaults = append(d.defaults, cfg.DefaultIndex)
	if len(d.selects) == 0 {
		d.t.Fatalf("unexpected select prompt %q", cfg.Message)
	}
	want := d.selects[0]
	d.selects = d.selects[1:]
	for i, option := range cfg.Options {
		if option == want {
			return i, nil
		}
	}
	d.t.Fatalf("option %q not offered in %v", want, cfg.Options)
	return -1, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	return cfg.Default, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestWizard_EditsAndSavesSingleSection(t *testing.T) {
	sections := []registry.Section{
		{
			Key:   "contact",
			Title: "Contact",
			Fields: []registry.FieldSpec{
				{Name: "email", Path: "email", Type: registry.FieldTypeText, Label: "Email", Required: true},
				{Name: "role", Path: "role", Type: registry.FieldTypeSelect, Label: "Role", Options: []string{"member", "admin"}},
			},
			Required: []string{"email"},
		},
	}

	var saved payload.RequestBody
	session, err := editflow.NewSession(nil,
		editflow.WithSections(sections...),
		editflow.WithUpdater(editflow.UpdaterFunc(func(_ context.Context, body payload.RequestBody) (map[string]any, error) {
			saved = body
			return nil, nil
		})),
	)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	driver := &scriptedDriver{
		t:       t,
		inputs:  []string{"a@b.example"},
		selects: []string{"admin", "Save changes"},
	}
	wizard := NewWizard(session, WithDriver(driver))

	if err := wizard.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if saved.Fields == nil {
		t.Fatalf("save never reached the updater")
	}
	if saved.Fields["email"] != "a@b.example" {
		t.Fatalf("email = %v", saved.Fields["email"])
	}
	if session.Draft().String("role") != "admin" {
		t.Fatalf("role = %q", session.Draft().String("role"))
	}
}

func TestWizard_SelectDefaultsToCurrentValue(t *testing.T) {
	sections := []registry.Section{
		{
			Key:   "contact",
			Title: "Contact",
			Fields: []registry.FieldSpec{
				{Name: "role", Path: "role", Type: registry.FieldTypeSelect, Label: "Role", Options: []string{"member", "admin"}},
			},
		},
	}

	session, err := editflow.NewSession(map[string]any{"role": "admin"}, editflow.WithSections(sections...))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	driver := &scriptedDriver{
		t:       t,
		selects: []string{"member", "Discard and quit"},
	}
	wizard := NewWizard(session, WithDriver(driver))

	if err := wizard.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(driver.defaults) == 0 || driver.defaults[0] != 1 {
		t.Fatalf("current value should be preselected, defaults = %v", driver.defaults)
	}
	if session.Draft().String("role") != "member" {
		t.Fatalf("role = %q", session.Draft().String("role"))
	}
}

func TestWizard_StateOptionsComeFromProvider(t *testing.T) {
	sections := []registry.Section{
		{
			Key:   "address",
			Title: "Address",
			Fields: []registry.FieldSpec{
				{Name: "state", Path: "address.state", Type: registry.FieldTypeSelect, Label: "State"},
			},
		},
	}
	provider := lookup.NewStatic(map[string][]string{
		"Karnataka":   {"Bengaluru Urban", "Mysuru"},
		"Maharashtra": {"Pune"},
	})

	session, err := editflow.NewSession(nil,
		editflow.WithSections(sections...),
		editflow.WithRegionProvider(provider),
	)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// The state field declares no static options; the wizard must offer the
	// provider's region list or the field can never be set interactively.
	driver := &scriptedDriver{
		t:       t,
		selects: []string{"Karnataka", "Discard and quit"},
	}
	wizard := NewWizard(session, WithDriver(driver))

	if err := wizard.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := session.Draft().String("address.state"); got != "Karnataka" {
		t.Fatalf("state = %q", got)
	}
	session.Flush()
	if diff := cmp.Diff([]string{"Bengaluru Urban", "Mysuru"}, session.DistrictOptions()); diff != "" {
		t.Fatalf("district options mismatch (-want +got):\n%s", diff)
	}
}

func TestWizard_ReportsBlockedSection(t *testing.T) {
	sections := []registry.Section{
		{
			Key:      "contact",
			Title:    "Contact",
			Fields:   []registry.FieldSpec{{Name: "email", Path: "email", Type: registry.FieldTypeText, Label: "Email", Required: true}},
			Required: []string{"email"},
		},
		{Key: "done", Title: "Done"},
	}

	session, err := editflow.NewSession(nil, editflow.WithSections(sections...))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	driver := &scriptedDriver{
		t:       t,
		inputs:  []string{"", "a@b.example"},
		selects: []string{"Next section", "Next section", "Discard and quit"},
	}
	wizard := NewWizard(session, WithDriver(driver))

	if err := wizard.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(driver.infos) == 0 {
		t.Fatalf("blocked Next should report the failing fields")
	}
	if session.ActiveSection().Key != "done" {
		t.Fatalf("second Next with a value should advance, active = %s", session.ActiveSection().Key)
	}
}
