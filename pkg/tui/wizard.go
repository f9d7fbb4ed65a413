package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	editflow "github.com/goliatone/go-editflow"
	"github.com/goliatone/go-editflow/pkg/attach"
	"github.com/goliatone/go-editflow/pkg/nav"
	"github.com/goliatone/go-editflow/pkg/registry"
)

// Wizard drives one editing session through the prompt driver: it walks the
// active section's fields, routes edits into the session, and offers the
// navigation and submit affordances between sections.
type Wizard struct {
	session *editflow.Session
	driver  PromptDriver
}

// WizardOption configures a Wizard.
type WizardOption func(*Wizard)

// WithDriver overrides the prompt driver (tests use a scripted one).
func WithDriver(driver PromptDriver) WizardOption {
	return func(w *Wizard) {
		if driver != nil {
			w.driver = driver
		}
	}
}

// NewWizard builds a wizard over an existing session.
func NewWizard(session *editflow.Session, opts ...WizardOption) *Wizard {
	w := &Wizard{session: session, driver: NewSurveyDriver()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

const (
	actionNext = "Next section"
	actionPrev = "Previous section"
	actionJump = "Jump to section"
	actionSave = "Save changes"
	actionQuit = "Discard and quit"
)

// Run loops until the user saves or quits. Validation refusals are printed
// and the section replays; the user is never trapped thanks to JumpTo.
func (w *Wizard) Run(ctx context.Context) error {
	for {
		section := w.session.ActiveSection()
		if err := w.driver.Info(ctx, fmt.Sprintf("— %s —", section.Title)); err != nil {
			return err
		}
		if err := w.editSection(ctx, section); err != nil {
			return err
		}

		action, err := w.chooseAction(ctx)
		if err != nil {
			return err
		}
		switch action {
		case actionNext:
			if err := w.session.Next(); err != nil {
				w.reportRefusal(ctx, err)
			}
		case actionPrev:
			if err := w.session.Prev(); err != nil {
				w.reportRefusal(ctx, err)
			}
		case actionJump:
			if err := w.jump(ctx); err != nil {
				return err
			}
		case actionSave:
			if err := w.session.Save(ctx); err != nil {
				if infoErr := w.driver.Info(ctx, fmt.Sprintf("save failed: %v", err)); infoErr != nil {
					return infoErr
				}
				continue
			}
			return nil
		case actionQuit:
			w.session.Close()
			return nil
		}
	}
}

func (w *Wizard) editSection(ctx context.Context, section registry.Section) error {
	for _, field := range section.Fields {
		if editflow.FieldDisabled(field, w.session.Draft()) {
			continue
		}
		if err := w.editField(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) editField(ctx context.Context, field registry.FieldSpec) error {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	current := w.session.Draft().String(field.Path)

	switch field.Type {
	case registry.FieldTypeSelect:
		options := field.Options
		switch field.Name {
		case "state":
			if states := w.session.StateOptions(); len(states) > 0 {
				options = states
			}
		case "district":
			options = w.session.DistrictOptions()
		}
		if len(options) == 0 {
			return nil
		}
		defaultIdx := indexOf(options, current)
		idx, err := w.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: defaultIdx})
		if err != nil {
			return err
		}
		if idx >= 0 {
			return w.session.SetField(field.Path, options[idx])
		}
		return nil

	case registry.FieldTypeFile:
		return w.editFileField(ctx, field, label)

	default:
		value, err := w.driver.Input(ctx, InputConfig{Message: label, Default: current})
		if err != nil {
			return err
		}
		return w.session.SetField(field.Path, value)
	}
}

// editFileField prompts for a local path and stages its contents. An empty
// answer keeps the current attachment (persisted or staged).
func (w *Wizard) editFileField(ctx context.Context, field registry.FieldSpec, label string) error {
	path, err := w.driver.Input(ctx, InputConfig{
		Message: label,
		Help:    "path to an image or PDF, blank to keep the current file",
	})
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return w.driver.Info(ctx, fmt.Sprintf("could not read %s: %v", path, err))
	}
	stageErr := w.session.StageAttachment(field.Name, attach.File{
		Name: filepath.Base(path),
		Data: data,
	})
	if stageErr != nil {
		return w.driver.Info(ctx, fmt.Sprintf("%s: %v", label, stageErr))
	}
	return nil
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func (w *Wizard) chooseAction(ctx context.Context) (string, error) {
	options := []string{actionNext, actionPrev, actionJump, actionSave, actionQuit}
	idx, err := w.driver.Select(ctx, SelectConfig{Message: "What next?", Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return actionQuit, nil
	}
	return options[idx], nil
}

func (w *Wizard) jump(ctx context.Context) error {
	sections := w.session.Registry().Sections()
	keys := make([]string, 0, len(sections))
	for _, section := range sections {
		keys = append(keys, section.Key)
	}
	idx, err := w.driver.Select(ctx, SelectConfig{Message: "Jump to", Options: keys})
	if err != nil {
		return err
	}
	if idx < 0 {
		return nil
	}
	return w.session.JumpTo(keys[idx])
}

// reportRefusal prints the blocked-section detail in a stable order.
func (w *Wizard) reportRefusal(ctx context.Context, cause error) {
	if errors.Is(cause, nav.ErrAtBoundary) {
		_ = w.driver.Info(ctx, "already at that end of the editor")
		return
	}
	errs := w.session.Errors()
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		_ = w.driver.Info(ctx, fmt.Sprintf("  %s: %s", path, errs[path]))
	}
}
