package event

import "github.com/shopspring/decimal"

type Pricing struct {
	Individual float64 `json:"individual"`
}

func (p Pricing) IsFree() bool {
	return p.Individual == 0
}

// Label renders the individual price the way the listing shows it: "Free" or "$12.5".
func (p Pricing) Label() string {
	if p.IsFree() {
		return "Free"
	}
	return "$" + decimal.NewFromFloat(p.Individual).String()
}
