// Package nav implements the section-to-section state machine. Sequential
// moves are gated by section validation; direct jumps bypass the gate by
// design so users are never trapped on a failing section.
package nav

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-editflow/pkg/registry"
	"github.com/goliatone/go-editflow/pkg/validation"
)

var (
	// ErrSectionBlocked signals that the outgoing section failed validation
	// and the transition was refused. The controller's Errors() hold the
	// per-field detail.
	ErrSectionBlocked = errors.New("nav: section has validation errors")
	// ErrAtBoundary signals a Next on the last section or a Prev on the
	// first. Submit is a distinct action, not a terminal transition.
	ErrAtBoundary = errors.New("nav: no section in that direction")
	// ErrUnknownSection is returned by JumpTo for keys the registry does
	// not declare.
	ErrUnknownSection = errors.New("nav: unknown section")
)

// Gate validates the outgoing section. The controller stores the returned
// map; an empty map permits the move.
type Gate func(section registry.Section) validation.ErrorMap

// Controller tracks the active section. It never validates on JumpTo and
// never throws: refusals come back as sentinel errors with the ErrorMap
// retained for display.
type Controller struct {
	sections []registry.Section
	active   int
	gate     Gate
	errs     validation.ErrorMap
}

// New builds a controller positioned on the first section.
func New(reg *registry.Registry, gate Gate) (*Controller, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.New("nav: a registry with at least one section is required")
	}
	if gate == nil {
		return nil, errors.New("nav: a validation gate is required")
	}
	return &Controller{
		sections: reg.Sections(),
		gate:     gate,
		errs:     validation.ErrorMap{},
	}, nil
}

// Active returns the current section.
func (c *Controller) Active() registry.Section {
	return c.sections[c.active]
}

// Errors returns the ErrorMap produced by the most recent gated move (or
// explicit Revalidate). Empty means the last gate passed.
func (c *Controller) Errors() validation.ErrorMap {
	return c.errs
}

// Next validates the active section and advances one ordinal position. On
// validation failure the transition is refused, the ErrorMap updates, and
// the active section is unchanged.
func (c *Controller) Next() error {
	return c.step(1)
}

// Prev validates the active section and retreats one ordinal position,
// refusing on failure exactly as Next does.
func (c *Controller) Prev() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	target := c.active + delta
	if target < 0 || target >= len(c.sections) {
		return ErrAtBoundary
	}
	errs := c.gate(c.sections[c.active])
	c.errs = errs
	if !errs.Empty() {
		return fmt.Errorf("%w: %s", ErrSectionBlocked, c.sections[c.active].Key)
	}
	c.active = target
	return nil
}

// JumpTo activates a section by key without validating the outgoing one.
// This is the deliberate escape hatch for direct section-header selection;
// stale errors from the previous section are cleared.
func (c *Controller) JumpTo(key string) error {
	for idx, section := range c.sections {
		if section.Key == key {
			c.active = idx
			c.errs = validation.ErrorMap{}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownSection, key)
}

// Revalidate re-runs the gate for the active section without moving,
// refreshing the ErrorMap after edits.
func (c *Controller) Revalidate() validation.ErrorMap {
	c.errs = c.gate(c.sections[c.active])
	return c.errs
}

// AtStart and AtEnd report boundary positions so hosts can disable the
// corresponding affordances.
func (c *Controller) AtStart() bool { return c.active == 0 }
func (c *Controller) AtEnd() bool   { return c.active == len(c.sections)-1 }
