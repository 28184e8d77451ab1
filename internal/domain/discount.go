package domain

import "github.com/shopspring/decimal"

// DiscountTerms is the pricing-relevant part of a discount. Exactly one of
// Percentage or Absolute is set. OnlyRegistration restricts the discount to
// the registration total, excluding add-ons.
type DiscountTerms struct {
	OnlyRegistration bool             `json:"only_registration"`
	Percentage       *int32           `json:"percentage,omitempty"`
	Absolute         *decimal.Decimal `json:"absolute,omitempty"`
}

// DiscountCode is redeemed by typing the code during registration.
type DiscountCode struct {
	ID      int32  `json:"id"`
	EventID int32  `json:"event_id"`
	Code    string `json:"code"`
	DiscountTerms
}

// GroupDiscount applies automatically to every member of a named user group.
type GroupDiscount struct {
	ID      int32  `json:"id"`
	EventID int32  `json:"event_id"`
	Group   string `json:"group"`
	DiscountTerms
}
