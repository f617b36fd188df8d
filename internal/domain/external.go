package domain

// ExternalRecord is what the external reconciliation system knows about one
// device identifier.
type ExternalRecord struct {
	Identifier string `json:"imei"`
	Technician string `json:"technician"`
	Status     string `json:"status"`
	Date       string `json:"date,omitempty"`
}
