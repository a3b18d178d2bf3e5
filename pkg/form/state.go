// Package form holds the values and errors of one shipment form. A single
// State is shared by every step of the wizard.
package form

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"shipper/pkg/models"
	"shipper/pkg/validation"
)

var ErrUnknownField = errors.New("unknown form field")

// State is the form state container. It is not safe for concurrent use; the
// session manager serialises access to it.
type State struct {
	schema *validation.Schema
	values models.ShipmentRequest
	errors validation.FieldErrors
}

// Snapshot is the serialisable form of a State
type Snapshot struct {
	Values models.ShipmentRequest `json:"values"`
	Errors validation.FieldErrors `json:"errors,omitempty"`
}

// New creates a form prefilled with initial. No validation is run until the
// first edit or trigger.
func New(schema *validation.Schema, initial models.ShipmentRequest) *State {
	return &State{
		schema: schema,
		values: cloneRequest(initial),
		errors: validation.FieldErrors{},
	}
}

// Restore rebuilds a State from a snapshot
func Restore(schema *validation.Schema, snap Snapshot) *State {
	s := New(schema, snap.Values)
	for path, msg := range snap.Errors {
		s.errors[path] = msg
	}
	return s
}

// Snapshot captures the current values and errors
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Values: cloneRequest(s.values),
		Errors: s.copyErrors(""),
	}
}

// Reset restores initial values and clears all errors
func (s *State) Reset(initial models.ShipmentRequest) {
	s.values = cloneRequest(initial)
	s.errors = validation.FieldErrors{}
}

// Values returns a copy of the current values
func (s *State) Values() models.ShipmentRequest {
	return cloneRequest(s.values)
}

// Value renders the field at path as it would appear in an input
func (s *State) Value(path string) (string, error) {
	if ref, ok := s.values.StringRef(path); ok {
		return *ref, nil
	}
	if ref, ok := s.values.NumberRef(path); ok {
		if *ref == nil {
			return "", nil
		}
		return strconv.FormatFloat(**ref, 'f', -1, 64), nil
	}
	return "", ErrUnknownField
}

// SetField updates exactly one leaf and re-validates the section holding it
func (s *State) SetField(path, raw string) error {
	if ref, ok := s.values.StringRef(path); ok {
		*ref = raw
	} else if ref, ok := s.values.NumberRef(path); ok {
		*ref = parseNumber(raw)
	} else {
		return ErrUnknownField
	}

	s.revalidate(models.SectionOf(path))
	return nil
}

// Trigger re-validates a section on demand and reports whether it is valid
func (s *State) Trigger(section string) bool {
	s.revalidate(section)
	return !s.HasErrors(section)
}

// TriggerAll re-validates every section
func (s *State) TriggerAll() bool {
	valid := true
	for _, step := range models.Steps {
		if !s.Trigger(step.Section()) {
			valid = false
		}
	}
	return valid
}

// Error returns the current message for path, or "" when the field is valid
func (s *State) Error(path string) string {
	return s.errors[path]
}

// Errors returns the current errors under section; "" means all of them
func (s *State) Errors(section string) validation.FieldErrors {
	return s.copyErrors(section)
}

// HasErrors reports whether section currently holds any validation error
func (s *State) HasErrors(section string) bool {
	for path := range s.errors {
		if section == "" || models.SectionOf(path) == section {
			return true
		}
	}
	return false
}

// Request validates the whole form and returns the values when valid
func (s *State) Request() (models.ShipmentRequest, bool) {
	if !s.TriggerAll() {
		return models.ShipmentRequest{}, false
	}
	return s.Values(), true
}

func (s *State) revalidate(section string) {
	for path := range s.errors {
		if models.SectionOf(path) == section {
			delete(s.errors, path)
		}
	}
	for path, msg := range s.schema.ValidateSection(s.values, section) {
		s.errors[path] = msg
	}
}

func (s *State) copyErrors(section string) validation.FieldErrors {
	out := validation.FieldErrors{}
	for path, msg := range s.errors {
		if section == "" || models.SectionOf(path) == section {
			out[path] = msg
		}
	}
	return out
}

func parseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// cloneRequest copies the parcel pointers so callers never share them
func cloneRequest(r models.ShipmentRequest) models.ShipmentRequest {
	out := r
	out.Parcel = models.Parcel{
		Length: cloneFloat(r.Parcel.Length),
		Width:  cloneFloat(r.Parcel.Width),
		Height: cloneFloat(r.Parcel.Height),
		Weight: cloneFloat(r.Parcel.Weight),
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
