package core

import (
	"errors"
	"time"
)

// ChargeFrequency is how often a recurring charge hits the ledger.
type ChargeFrequency string

const (
	FrequencyMonthly   ChargeFrequency = "monthly"
	FrequencyQuarterly ChargeFrequency = "quarterly"
	FrequencyYearly    ChargeFrequency = "yearly"
)

// RecurringCharge is a standing cost (parking, insurance and so on)
// applied to a car's ledger on a schedule. Category names one of the
// ledger's expense fields.
type RecurringCharge struct {
	ID          int64           `json:"id"`
	CarID       int64           `json:"car_id"`
	Category    string          `json:"category"`
	Amount      Money           `json:"amount"`
	Frequency   ChargeFrequency `json:"frequency"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date,omitzero"`
	LastApplied time.Time       `json:"last_applied,omitzero"`
	CreatedAt   time.Time       `json:"created_at"`
}

var (
	ErrInvalidFrequency = errors.New("invalid charge frequency")
	ErrInvalidCategory  = errors.New("invalid charge category")
)

func (f ChargeFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// ChargeCategories are the ledger fields a recurring charge may target.
var ChargeCategories = map[string]bool{
	"maintenance":       true,
	"repairs":           true,
	"detailing":         true,
	"insurance_bill":    true,
	"registration_bill": true,
	"parking":           true,
	"labor":             true,
}

func (c RecurringCharge) Validate() error {
	if c.CarID <= 0 {
		return errors.New("missing car id")
	}
	if !ChargeCategories[c.Category] {
		return ErrInvalidCategory
	}
	if c.Amount.Cents <= 0 {
		return ErrNegativeAmount
	}
	if !c.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if c.StartDate.IsZero() {
		return errors.New("missing start date")
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return errors.New("end date before start date")
	}
	return nil
}

// MonthsBetweenApplications is the charge's period in months.
func (c RecurringCharge) MonthsBetweenApplications() int {
	switch c.Frequency {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}
