package models

// Address is one side of a shipment as entered in the form
type Address struct {
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Street1 string `json:"street1" yaml:"street1"`
	Street2 string `json:"street2,omitempty" yaml:"street2,omitempty"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
	Zip     string `json:"zip" yaml:"zip"`
}

// Parcel dimensions are in inches, weight in ounces. A nil value means the
// field has not been filled in yet.
type Parcel struct {
	Length *float64 `json:"length" yaml:"length"`
	Width  *float64 `json:"width" yaml:"width"`
	Height *float64 `json:"height" yaml:"height"`
	Weight *float64 `json:"weight" yaml:"weight"`
}

// ShipmentRequest is everything needed to rate and buy a label
type ShipmentRequest struct {
	FromAddress Address `json:"fromAddress" yaml:"fromAddress"`
	ToAddress   Address `json:"toAddress" yaml:"toAddress"`
	Parcel      Parcel  `json:"parcel" yaml:"parcel"`
}

// Float returns a pointer to v, handy for filling in a Parcel
func Float(v float64) *float64 {
	return &v
}

// DefaultShipmentRequest is the prefilled form a new session starts with
func DefaultShipmentRequest() ShipmentRequest {
	return ShipmentRequest{
		FromAddress: Address{
			Name:    "John Doe",
			Street1: "417 MONTGOMERY ST",
			Street2: "FLOOR 5",
			City:    "SAN FRANCISCO",
			State:   "CA",
			Zip:     "94104",
		},
		ToAddress: Address{
			Name:    "Dr. Steve Brule",
			Street1: "179 N Harbor Dr",
			City:    "Redondo Beach",
			State:   "CA",
			Zip:     "90277",
			Phone:   "4155559999",
		},
		Parcel: Parcel{
			Length: Float(8),
			Width:  Float(5),
			Height: Float(5),
			Weight: Float(5),
		},
	}
}
