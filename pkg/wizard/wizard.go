// Package wizard drives the three-step label form: it owns the form state,
// the step navigator and the submit action.
package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"shipper/pkg/form"
	"shipper/pkg/models"
	"shipper/pkg/services"
	"shipper/pkg/validation"
)

var (
	ErrNotOnLastStep = errors.New("submit is only available on the package step")
	ErrSubmitting    = errors.New("a submission is already in flight")
	ErrFormInvalid   = errors.New("form has validation errors")
)

// FailureMessage is shown for any failed submission, whatever the stage
const FailureMessage = "Something went wrong creating the label. Please try again."

// NewTab is the window target used to open the label
const NewTab = "_blank"

// Opener opens a URL in a browser window
type Opener interface {
	Open(url, target string)
}

// Notifier shows a message to the user
type Notifier interface {
	Notify(message string)
}

// SubmissionTimeout bounds how long a submission counts as in flight. It is
// well above the three sequential EasyPost calls; a flag older than this was
// left behind by a request that never finished.
const SubmissionTimeout = 5 * time.Minute

// Wizard is one visitor's form session
type Wizard struct {
	Form       *form.State
	Nav        *Navigator
	Submitting bool
	// SubmissionID tags the in-flight submission so that only its own
	// FinishSubmit clears the flag.
	SubmissionID string
	SubmittedAt  time.Time
}

// Snapshot is the serialisable form of a Wizard
type Snapshot struct {
	Step         models.Step   `json:"step"`
	Form         form.Snapshot `json:"form"`
	Submitting   bool          `json:"submitting,omitempty"`
	SubmissionID string        `json:"submissionId,omitempty"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}

// New starts a wizard on the sender step with the default values
func New(schema *validation.Schema) *Wizard {
	f := form.New(schema, models.DefaultShipmentRequest())
	return &Wizard{Form: f, Nav: NewNavigator(f)}
}

// Restore rebuilds a wizard from a snapshot
func Restore(schema *validation.Schema, snap Snapshot) (*Wizard, error) {
	f := form.Restore(schema, snap.Form)
	nav, err := RestoreNavigator(f, snap.Step)
	if err != nil {
		return nil, err
	}
	return &Wizard{
		Form:         f,
		Nav:          nav,
		Submitting:   snap.Submitting,
		SubmissionID: snap.SubmissionID,
		SubmittedAt:  snap.SubmittedAt,
	}, nil
}

// Snapshot captures the wizard for storage
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		Step:         w.Nav.Step(),
		Form:         w.Form.Snapshot(),
		Submitting:   w.Submitting,
		SubmissionID: w.SubmissionID,
		SubmittedAt:  w.SubmittedAt,
	}
}

// InFlight reports whether a submission started less than
// SubmissionTimeout ago is still waiting for its result
func (w *Wizard) InFlight() bool {
	return w.Submitting && time.Since(w.SubmittedAt) < SubmissionTimeout
}

// Reset restores the default values and returns to the first step. It is
// refused while a submission is in flight.
func (w *Wizard) Reset() error {
	if w.InFlight() {
		return ErrSubmitting
	}
	w.Form.Reset(models.DefaultShipmentRequest())
	w.Nav.Reset()
	w.clearSubmission()
	return nil
}

// CanSubmit reports whether the submit control is enabled
func (w *Wizard) CanSubmit() bool {
	return w.Nav.IsLast() && !w.InFlight() && w.Nav.CanAdvance()
}

// BeginSubmit validates the whole form and marks the wizard as submitting
// under a new SubmissionID. The returned request is what should be handed to
// the label service.
func (w *Wizard) BeginSubmit() (models.ShipmentRequest, error) {
	if !w.Nav.IsLast() {
		return models.ShipmentRequest{}, ErrNotOnLastStep
	}
	if w.InFlight() {
		return models.ShipmentRequest{}, ErrSubmitting
	}
	req, ok := w.Form.Request()
	if !ok {
		return models.ShipmentRequest{}, ErrFormInvalid
	}
	w.Submitting = true
	w.SubmissionID = uuid.NewString()
	w.SubmittedAt = time.Now()
	return req, nil
}

// FinishSubmit reports the result of submission id: the label is opened in a
// new tab, anything else becomes a generic notification. The in-flight flag
// is only cleared when id is still the current submission.
func (w *Wizard) FinishSubmit(id string, result models.ShipmentResult, opener Opener, notifier Notifier) {
	if w.SubmissionID == id {
		w.clearSubmission()
	}
	if !result.OK() {
		notifier.Notify(FailureMessage)
		return
	}
	opener.Open(result.Data, NewTab)
}

// Submit runs a whole submission in one go
func (w *Wizard) Submit(ctx context.Context, svc services.LabelService, opener Opener, notifier Notifier) error {
	req, err := w.BeginSubmit()
	if err != nil {
		return err
	}
	w.FinishSubmit(w.SubmissionID, svc.CreateShipmentLabel(ctx, req), opener, notifier)
	return nil
}

func (w *Wizard) clearSubmission() {
	w.Submitting = false
	w.SubmissionID = ""
	w.SubmittedAt = time.Time{}
}
