package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shipper/pkg/form"
	"shipper/pkg/middleware"
	"shipper/pkg/models"
	"shipper/pkg/services"
	"shipper/pkg/store"
	"shipper/pkg/validation"
	"shipper/pkg/wizard"
)

const sessionCookie = "shipper_session"

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	sessions *store.Manager
	labels   services.LabelService
	schema   *validation.Schema
	// required holds the paths the schema checks
	required map[string]bool
}

// NewHandlers creates a new Handlers instance
func NewHandlers(sessions *store.Manager, labels services.LabelService, schema *validation.Schema) *Handlers {
	required := make(map[string]bool)
	for _, rule := range schema.Rules() {
		required[rule.Path] = true
	}

	return &Handlers{
		sessions: sessions,
		labels:   labels,
		schema:   schema,
		required: required,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ShowForm renders the visitor's current step
func (h *Handlers) ShowForm(c *gin.Context) {
	w, err := h.sessions.View(c.Request.Context(), h.sessionID(c))
	if err != nil {
		h.internalError(c, "Error loading session", err)
		return
	}
	h.render(c, http.StatusOK, w, nil)
}

// Next applies the posted fields of the current step and moves forward
func (h *Handlers) Next(c *gin.Context) {
	w, err := h.sessions.Update(c.Request.Context(), h.sessionID(c), func(w *wizard.Wizard) error {
		if err := applyStepFields(c, w); err != nil {
			return err
		}
		return w.Nav.Next()
	})

	switch {
	case err == nil:
		h.render(c, http.StatusOK, w, nil)
	case errors.Is(err, wizard.ErrStepInvalid), errors.Is(err, wizard.ErrLastStep):
		h.render(c, http.StatusUnprocessableEntity, w, nil)
	default:
		h.internalError(c, "Error moving to next step", err)
	}
}

// Previous keeps the posted values and moves back one step
func (h *Handlers) Previous(c *gin.Context) {
	w, err := h.sessions.Update(c.Request.Context(), h.sessionID(c), func(w *wizard.Wizard) error {
		if err := applyStepFields(c, w); err != nil {
			return err
		}
		w.Nav.Previous()
		return nil
	})
	if err != nil {
		h.internalError(c, "Error moving to previous step", err)
		return
	}
	h.render(c, http.StatusOK, w, nil)
}

type fieldRequest struct {
	Path  string `json:"path" binding:"required"`
	Value string `json:"value"`
}

type fieldResponse struct {
	Step       models.Step            `json:"step"`
	Errors     validation.FieldErrors `json:"errors"`
	CanAdvance bool                   `json:"canAdvance"`
	CanSubmit  bool                   `json:"canSubmit"`
}

// SetField updates one field and returns the state of the step's controls
func (h *Handlers) SetField(c *gin.Context) {
	var body fieldRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	w, err := h.sessions.Update(c.Request.Context(), h.sessionID(c), func(w *wizard.Wizard) error {
		return w.Form.SetField(body.Path, body.Value)
	})
	if errors.Is(err, form.ErrUnknownField) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown field " + body.Path})
		return
	}
	if err != nil {
		log.Printf("Error updating field %s: %v", body.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating field"})
		return
	}

	c.JSON(http.StatusOK, fieldResponse{
		Step:       w.Nav.Step(),
		Errors:     w.Form.Errors(""),
		CanAdvance: w.Nav.CanAdvance(),
		CanSubmit:  w.CanSubmit(),
	})
}

// Submit creates the label for the visitor's form. The session lock is only
// held while marking the submission as started and finished, never across
// the remote calls, so a second submit sees the in-flight flag.
func (h *Handlers) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := h.sessionID(c)

	var (
		req          models.ShipmentRequest
		submissionID string
	)
	w, err := h.sessions.Update(ctx, sessionID, func(w *wizard.Wizard) error {
		if err := applyStepFields(c, w); err != nil {
			return err
		}
		var err error
		req, err = w.BeginSubmit()
		submissionID = w.SubmissionID
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrSubmitting):
		h.render(c, http.StatusConflict, w, nil)
		return
	case errors.Is(err, wizard.ErrFormInvalid), errors.Is(err, wizard.ErrNotOnLastStep):
		h.render(c, http.StatusUnprocessableEntity, w, nil)
		return
	default:
		h.internalError(c, "Error starting submission", err)
		return
	}

	result := h.labels.CreateShipmentLabel(ctx, req)

	// The in-flight flag must be cleared even if the visitor went away
	effects := &pageEffects{}
	w, err = h.sessions.Update(context.WithoutCancel(ctx), sessionID, func(w *wizard.Wizard) error {
		w.FinishSubmit(submissionID, result, effects, effects)
		return nil
	})
	if err != nil {
		h.internalError(c, "Error finishing submission", err)
		return
	}
	h.render(c, http.StatusOK, w, effects)
}

// Reset puts the visitor back on a fresh form unless a label is being bought
func (h *Handlers) Reset(c *gin.Context) {
	w, err := h.sessions.Update(c.Request.Context(), h.sessionID(c), func(w *wizard.Wizard) error {
		return w.Reset()
	})
	if errors.Is(err, wizard.ErrSubmitting) {
		h.render(c, http.StatusConflict, w, nil)
		return
	}
	if err != nil {
		h.internalError(c, "Error resetting form", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// CreateLabel runs the label pipeline for a JSON ShipmentRequest
func (h *Handlers) CreateLabel(c *gin.Context) {
	var req models.ShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Error parsing JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if errs := h.schema.Validate(req); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Invalid shipment",
			"fields": errs,
		})
		return
	}

	result := h.labels.CreateShipmentLabel(c.Request.Context(), req)
	if !result.OK() {
		if result.Error == "" {
			result = models.Failure(services.ErrNoLabelURL)
		}
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// applyStepFields copies the posted values of the visible step into the form
func applyStepFields(c *gin.Context, w *wizard.Wizard) error {
	for _, f := range models.SectionFields(w.Nav.Step().Section()) {
		if value, ok := c.GetPostForm(f.Path); ok {
			if err := w.Form.SetField(f.Path, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// sessionID returns the visitor's session id, issuing a cookie when missing
func (h *Handlers) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}

func (h *Handlers) render(c *gin.Context, status int, w *wizard.Wizard, effects *pageEffects) {
	c.HTML(status, "form.html", newPageView(w, h.required, effects))
}

func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	log.Printf("%s (request %s): %v", msg, middleware.GetRequestID(c), err)
	c.String(http.StatusInternalServerError, msg)
}
