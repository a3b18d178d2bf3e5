// Package validation holds the declarative rules for the shipment form.
//
// A schema is a table of rules keyed by field path. Each rule is checked with
// the validator library and failures are turned into the messages shown next
// to the field.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"shipper/pkg/models"
)

// Mode selects one of the two rule sets
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeMinimal Mode = "minimal"
)

// FieldErrors maps a field path such as "fromAddress.name" to its message
type FieldErrors map[string]string

// Rule is one declarative check against a field
type Rule struct {
	Path  string
	Label string
	// Tag is a validator tag list; numeric fields are checked for presence
	// before the tag is applied.
	Tag string
}

// Schema validates ShipmentRequests against a rule table
type Schema struct {
	mode     Mode
	rules    []Rule
	validate *validator.Validate
}

// ParseMode maps a config value to a Mode, defaulting to strict
func ParseMode(v string) Mode {
	if strings.EqualFold(strings.TrimSpace(v), string(ModeMinimal)) {
		return ModeMinimal
	}
	return ModeStrict
}

// New builds the schema for mode
func New(mode Mode) *Schema {
	v := validator.New()
	err := v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		return models.IsUSState(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: registering usstate: %v", err))
	}

	return &Schema{
		mode:     mode,
		rules:    rulesFor(mode),
		validate: v,
	}
}

// Strict trims strings, requires a known state code and positive parcel numbers
func Strict() *Schema { return New(ModeStrict) }

// Minimal only checks that required fields are present
func Minimal() *Schema { return New(ModeMinimal) }

// Mode returns the rule set in use
func (s *Schema) Mode() Mode { return s.mode }

// Rules returns a copy of the rule table
func (s *Schema) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

func rulesFor(mode Mode) []Rule {
	stateTag, numberTag := "required,usstate", "gt=0"
	if mode == ModeMinimal {
		stateTag, numberTag = "required", ""
	}

	var rules []Rule
	for _, section := range []string{models.SectionFrom, models.SectionTo} {
		for _, f := range models.SectionFields(section) {
			switch {
			case strings.HasSuffix(f.Path, ".state"):
				rules = append(rules, Rule{Path: f.Path, Label: "State", Tag: stateTag})
			case strings.HasSuffix(f.Path, ".phone"), strings.HasSuffix(f.Path, ".street2"):
				// optional
			default:
				rules = append(rules, Rule{Path: f.Path, Label: f.Label, Tag: "required"})
			}
		}
	}
	for _, f := range models.SectionFields(models.SectionParcel) {
		label, _, _ := strings.Cut(f.Label, " (")
		rules = append(rules, Rule{Path: f.Path, Label: label, Tag: numberTag})
	}
	return rules
}

// Validate checks every rule and returns the failures, empty when valid
func (s *Schema) Validate(req models.ShipmentRequest) FieldErrors {
	return s.ValidateSection(req, "")
}

// ValidateSection checks only the rules under section. An empty section
// validates the whole request.
func (s *Schema) ValidateSection(req models.ShipmentRequest, section string) FieldErrors {
	errs := FieldErrors{}
	for _, rule := range s.rules {
		if section != "" && models.SectionOf(rule.Path) != section {
			continue
		}
		if msg, ok := s.check(&req, rule); !ok {
			errs[rule.Path] = msg
		}
	}
	return errs
}

func (s *Schema) check(req *models.ShipmentRequest, rule Rule) (string, bool) {
	if ref, ok := req.StringRef(rule.Path); ok {
		value := *ref
		if s.mode == ModeStrict {
			value = strings.TrimSpace(value)
		}
		return s.run(value, rule, false)
	}

	if ref, ok := req.NumberRef(rule.Path); ok {
		if *ref == nil {
			return s.message(rule, "required", true), false
		}
		if rule.Tag == "" {
			return "", true
		}
		return s.run(**ref, rule, true)
	}

	return fmt.Sprintf("unknown field %s", rule.Path), false
}

func (s *Schema) run(value any, rule Rule, numeric bool) (string, bool) {
	err := s.validate.Var(value, rule.Tag)
	if err == nil {
		return "", true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return s.message(rule, verrs[0].Tag(), numeric), false
	}
	return err.Error(), false
}

func (s *Schema) message(rule Rule, tag string, numeric bool) string {
	if s.mode == ModeMinimal {
		if numeric {
			return "Required"
		}
		return "Must contain at least 1 character"
	}

	switch tag {
	case "required":
		return rule.Label + " is required"
	case "gt":
		return rule.Label + " must be greater than 0"
	case "usstate":
		return rule.Label + " must be a valid 2-letter code"
	}
	return rule.Label + " is invalid"
}
