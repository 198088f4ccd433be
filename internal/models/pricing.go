package models

// PriceLine is the cost of one demand item in a quote. Amounts are in
// minor currency units.
type PriceLine struct {
	SubjectID  string `json:"subject_id"`
	Sessions   int    `json:"sessions"`
	UnitAmount int64  `json:"unit_amount"`
	Amount     int64  `json:"amount"`
}

// PriceQuote is the pricing collaborator's answer for a demand set.
type PriceQuote struct {
	Currency    string      `json:"currency"`
	TotalAmount int64       `json:"total_amount"`
	Lines       []PriceLine `json:"lines"`
}
