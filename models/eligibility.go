package models

// Eligibility is the payment-method eligibility snapshot fetched once per
// checkout session. The zero value is fully restricted: no active bank,
// no loan headroom.
type Eligibility struct {
	HasActiveBank bool    `json:"has_active_bank"`
	CanLoan       bool    `json:"can_loan"`
	MaxLoanAmount float64 `json:"max_loan_amount"`
}
