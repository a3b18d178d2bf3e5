package models

import "strings"

// Field describes one leaf of a ShipmentRequest
type Field struct {
	Path    string
	Label   string
	Numeric bool
}

var addressFields = []Field{
	{Path: "name", Label: "Name"},
	{Path: "phone", Label: "Phone"},
	{Path: "street1", Label: "Street 1"},
	{Path: "street2", Label: "Street 2"},
	{Path: "city", Label: "City"},
	{Path: "state", Label: "State"},
	{Path: "zip", Label: "Postal Code"},
}

var parcelFields = []Field{
	{Path: "length", Label: "Length (in)", Numeric: true},
	{Path: "width", Label: "Width (in)", Numeric: true},
	{Path: "height", Label: "Height (in)", Numeric: true},
	{Path: "weight", Label: "Weight (oz)", Numeric: true},
}

// SectionFields returns the fields of a section with fully qualified paths
func SectionFields(section string) []Field {
	var leaves []Field
	switch section {
	case SectionFrom, SectionTo:
		leaves = addressFields
	case SectionParcel:
		leaves = parcelFields
	default:
		return nil
	}

	fields := make([]Field, len(leaves))
	for i, f := range leaves {
		f.Path = section + "." + f.Path
		fields[i] = f
	}
	return fields
}

// AllFields lists every leaf of a ShipmentRequest in form order
func AllFields() []Field {
	var fields []Field
	for _, step := range Steps {
		fields = append(fields, SectionFields(step.Section())...)
	}
	return fields
}

// SectionOf returns the section part of a field path
func SectionOf(path string) string {
	section, _, _ := strings.Cut(path, ".")
	return section
}

// StringRef returns a pointer to the string leaf at path
func (r *ShipmentRequest) StringRef(path string) (*string, bool) {
	section, leaf, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}

	var addr *Address
	switch section {
	case SectionFrom:
		addr = &r.FromAddress
	case SectionTo:
		addr = &r.ToAddress
	default:
		return nil, false
	}

	switch leaf {
	case "name":
		return &addr.Name, true
	case "phone":
		return &addr.Phone, true
	case "street1":
		return &addr.Street1, true
	case "street2":
		return &addr.Street2, true
	case "city":
		return &addr.City, true
	case "state":
		return &addr.State, true
	case "zip":
		return &addr.Zip, true
	}
	return nil, false
}

// NumberRef returns a pointer to the numeric leaf at path
func (r *ShipmentRequest) NumberRef(path string) (**float64, bool) {
	section, leaf, ok := strings.Cut(path, ".")
	if !ok || section != SectionParcel {
		return nil, false
	}

	switch leaf {
	case "length":
		return &r.Parcel.Length, true
	case "width":
		return &r.Parcel.Width, true
	case "height":
		return &r.Parcel.Height, true
	case "weight":
		return &r.Parcel.Weight, true
	}
	return nil, false
}
