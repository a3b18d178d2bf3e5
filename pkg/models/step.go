package models

// Step is one section of the multi-step form
type Step string

const (
	StepSender    Step = "sender"
	StepRecipient Step = "recipient"
	StepPackage   Step = "package"
)

// Sections of a ShipmentRequest, as used in field paths
const (
	SectionFrom   = "fromAddress"
	SectionTo     = "toAddress"
	SectionParcel = "parcel"
)

// Steps lists the form steps in navigation order
var Steps = []Step{StepSender, StepRecipient, StepPackage}

// Section returns the part of the request validated by this step
func (s Step) Section() string {
	switch s {
	case StepSender:
		return SectionFrom
	case StepRecipient:
		return SectionTo
	case StepPackage:
		return SectionParcel
	}
	return ""
}

// Legend is the heading shown above the step's fields
func (s Step) Legend() string {
	switch s {
	case StepSender:
		return "Sender"
	case StepRecipient:
		return "Recipient"
	case StepPackage:
		return "Package"
	}
	return ""
}

// Index returns the position of the step, or -1 if it is not a known step
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known steps
func (s Step) Valid() bool {
	return s.Index() >= 0
}
