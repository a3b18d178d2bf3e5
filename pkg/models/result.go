package models

// ShipmentResult carries either a label URL or an error message, never both
type ShipmentResult struct {
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps a label URL
func Success(labelURL string) ShipmentResult {
	return ShipmentResult{Data: labelURL}
}

// Failure wraps a user-facing error message
func Failure(message string) ShipmentResult {
	return ShipmentResult{Error: message}
}

// OK reports whether the result holds a usable label URL
func (r ShipmentResult) OK() bool {
	return r.Error == "" && r.Data != ""
}
