package api

import (
	"shipper/pkg/models"
	"shipper/pkg/wizard"
)

type fieldView struct {
	Path    string
	Label   string
	Value   string
	Error   string
	Numeric  bool
	IsState  bool
	Required bool
}

type pageView struct {
	Step       models.Step
	Legend     string
	StepNumber int
	StepCount  int
	Fields     []fieldView
	States     []string
	IsFirst    bool
	IsLast     bool
	CanAdvance bool
	CanSubmit  bool
	Submitting bool

	OpenURL    string
	OpenTarget string
	Toast      string
}

// pageEffects collects what a submission asked the browser to do. It is
// rendered into the next page.
type pageEffects struct {
	openURL    string
	openTarget string
	toast      string
}

func (e *pageEffects) Open(url, target string) {
	e.openURL, e.openTarget = url, target
}

func (e *pageEffects) Notify(message string) {
	e.toast = message
}

var (
	_ wizard.Opener   = (*pageEffects)(nil)
	_ wizard.Notifier = (*pageEffects)(nil)
)

func newPageView(w *wizard.Wizard, required map[string]bool, effects *pageEffects) pageView {
	step := w.Nav.Step()

	var fields []fieldView
	for _, f := range models.SectionFields(step.Section()) {
		value, _ := w.Form.Value(f.Path)
		fields = append(fields, fieldView{
			Path:     f.Path,
			Label:    f.Label,
			Value:    value,
			Error:    w.Form.Error(f.Path),
			Numeric:  f.Numeric,
			IsState:  models.SectionOf(f.Path) != models.SectionParcel && f.Label == "State",
			Required: required[f.Path],
		})
	}

	view := pageView{
		Step:       step,
		Legend:     step.Legend(),
		StepNumber: step.Index() + 1,
		StepCount:  len(models.Steps),
		Fields:     fields,
		States:     models.USStates,
		IsFirst:    w.Nav.IsFirst(),
		IsLast:     w.Nav.IsLast(),
		CanAdvance: w.Nav.CanAdvance(),
		CanSubmit:  w.CanSubmit(),
		Submitting: w.InFlight(),
	}
	if effects != nil {
		view.OpenURL = effects.openURL
		view.OpenTarget = effects.openTarget
		view.Toast = effects.toast
	}
	return view
}
