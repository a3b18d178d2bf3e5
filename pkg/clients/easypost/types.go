package easypost

// Address as accepted by the shipments endpoint. The SDK types stay inside
// this package; callers only see these.
type Address struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Parcel dimensions in inches and weight in ounces
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// ShipmentParams is the body of a create shipment call
type ShipmentParams struct {
	FromAddress Address `json:"from_address"`
	ToAddress   Address `json:"to_address"`
	Parcel      Parcel  `json:"parcel"`
}

// Rate is a priced option for a shipment. EasyPost sends amounts as decimal
// strings.
type Rate struct {
	ID         string `json:"id"`
	ShipmentID string `json:"shipment_id,omitempty"`
	Carrier    string `json:"carrier"`
	Service    string `json:"service"`
	Rate       string `json:"rate"`
	Currency   string `json:"currency,omitempty"`
}

type PostageLabel struct {
	ID       string `json:"id,omitempty"`
	LabelURL string `json:"label_url"`
}

// Shipment as returned by create and buy
type Shipment struct {
	ID           string        `json:"id"`
	Rates        []Rate        `json:"rates"`
	SelectedRate *Rate         `json:"selected_rate,omitempty"`
	PostageLabel *PostageLabel `json:"postage_label,omitempty"`
	TrackingCode string        `json:"tracking_code,omitempty"`
}

// LabelURL returns the purchased label URL, or "" when there is none
func (s *Shipment) LabelURL() string {
	if s == nil || s.PostageLabel == nil {
		return ""
	}
	return s.PostageLabel.LabelURL
}
