package wizard

import (
	"errors"

	"shipper/pkg/form"
	"shipper/pkg/models"
)

var (
	ErrStepInvalid = errors.New("current step has validation errors")
	ErrLastStep    = errors.New("already on the last step")
	ErrUnknownStep = errors.New("unknown step")
)

// Navigator moves through the form steps. Moving forward requires the
// current step's section to validate; moving back never does.
type Navigator struct {
	step models.Step
	form *form.State
}

// NewNavigator starts on the sender step
func NewNavigator(f *form.State) *Navigator {
	return &Navigator{step: models.StepSender, form: f}
}

// RestoreNavigator resumes on step
func RestoreNavigator(f *form.State, step models.Step) (*Navigator, error) {
	if !step.Valid() {
		return nil, ErrUnknownStep
	}
	return &Navigator{step: step, form: f}, nil
}

// Step returns the visible step
func (n *Navigator) Step() models.Step {
	return n.step
}

// IsLast reports whether the visible step is the package step
func (n *Navigator) IsLast() bool {
	return n.step.Index() == len(models.Steps)-1
}

// IsFirst reports whether there is no step to go back to
func (n *Navigator) IsFirst() bool {
	return n.step.Index() == 0
}

// CanAdvance reports whether the Next (or Submit) control is enabled. It only
// looks at the errors currently held for the step's section.
func (n *Navigator) CanAdvance() bool {
	return !n.form.HasErrors(n.step.Section())
}

// Next re-validates the current section and moves forward when it is valid
func (n *Navigator) Next() error {
	if n.IsLast() {
		return ErrLastStep
	}
	if !n.form.Trigger(n.step.Section()) {
		return ErrStepInvalid
	}
	n.step = models.Steps[n.step.Index()+1]
	return nil
}

// Previous moves back one step. On the first step it does nothing.
func (n *Navigator) Previous() {
	if n.IsFirst() {
		return
	}
	n.step = models.Steps[n.step.Index()-1]
}

// Reset returns to the first step
func (n *Navigator) Reset() {
	n.step = models.StepSender
}
