package core

import (
	"errors"
	"fmt"
	"time"
)

// SplitMode selects which revenue-split formula applies for a month.
// 50 is the "50:50" mode (pool split evenly, costs shared); 70 is the
// "30:70" mode (owner takes 70% of income and bears the car costs).
type SplitMode int

const (
	SplitEven       SplitMode = 50
	SplitOwnerHeavy SplitMode = 70
)

// Party identifies who an income line is attributed to.
type Party string

const (
	PartyOwner      Party = "owner"
	PartyManagement Party = "management"
)

// MonthRecord is one car's income/expense ledger for a single month.
// All monetary fields are integer cents.
type MonthRecord struct {
	CarID int64 `json:"car_id"`
	Year  int   `json:"year"`
	Month int   `json:"month"` // 1-12

	// Income
	RentalIncome   int64 `json:"rental_income"`
	DeliveryIncome int64 `json:"delivery_income"`
	OtherIncome    int64 `json:"other_income"`
	SkiRackIncome  int64 `json:"ski_rack_income"`

	// Direct-delivery costs
	DeliveryFuel  int64 `json:"delivery_fuel"`
	DeliveryTolls int64 `json:"delivery_tolls"`
	DeliveryLabor int64 `json:"delivery_labor"`

	// COGS
	Maintenance int64 `json:"maintenance"`
	Repairs     int64 `json:"repairs"`
	Detailing   int64 `json:"detailing"`

	// Bills fronted by management, reimbursed by the owner
	InsuranceBill    int64 `json:"insurance_bill"`
	RegistrationBill int64 `json:"registration_bill"`

	// Parking and labor
	Parking int64 `json:"parking"`
	Labor   int64 `json:"labor"`

	// History (informational, not part of any formula)
	Trips int64 `json:"trips"`
	Miles int64 `json:"miles"`

	Mode         SplitMode `json:"mode"`
	SkiRackOwner Party     `json:"ski_rack_owner"`

	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// YearLedger holds a car's twelve month records for one year, indexed
// by month. Months with no data are simply absent.
type YearLedger struct {
	CarID  int64                `json:"car_id"`
	Year   int                  `json:"year"`
	Months map[int]*MonthRecord `json:"months"`
}

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidMode    = errors.New("invalid split mode")
	ErrInvalidParty   = errors.New("invalid ski rack owner")
	ErrNegativeAmount = errors.New("negative amount")
)

func (m SplitMode) Valid() bool {
	return m == SplitEven || m == SplitOwnerHeavy
}

func (p Party) Valid() bool {
	return p == PartyOwner || p == PartyManagement
}

// IncomeTotal is the split base income: everything earned except the
// ski rack, which is attributed separately.
func (r MonthRecord) IncomeTotal() int64 {
	return r.RentalIncome + r.DeliveryIncome + r.OtherIncome
}

func (r MonthRecord) DirectDeliveryTotal() int64 {
	return r.DeliveryFuel + r.DeliveryTolls + r.DeliveryLabor
}

func (r MonthRecord) COGSTotal() int64 {
	return r.Maintenance + r.Repairs + r.Detailing
}

func (r MonthRecord) ReimbursedBillsTotal() int64 {
	return r.InsuranceBill + r.RegistrationBill
}

func (r MonthRecord) ParkingLaborTotal() int64 {
	return r.Parking + r.Labor
}

func (r MonthRecord) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	if r.Year < 2019 || r.Year > time.Now().Year()+1 {
		return fmt.Errorf("year %d outside ledger range: %w", r.Year, ErrInvalidYear)
	}
	if !r.Mode.Valid() {
		return ErrInvalidMode
	}
	if !r.SkiRackOwner.Valid() {
		return ErrInvalidParty
	}
	for _, v := range []int64{
		r.RentalIncome, r.DeliveryIncome, r.OtherIncome, r.SkiRackIncome,
		r.DeliveryFuel, r.DeliveryTolls, r.DeliveryLabor,
		r.Maintenance, r.Repairs, r.Detailing,
		r.InsuranceBill, r.RegistrationBill,
		r.Parking, r.Labor, r.Trips, r.Miles,
	} {
		if v < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// EmptyMonth returns the record used when a month has no stored data:
// all zeros, even split. Carry-over math treats missing months this way.
func EmptyMonth(carID int64, year, month int) MonthRecord {
	return MonthRecord{
		CarID:        carID,
		Year:         year,
		Month:        month,
		Mode:         SplitEven,
		SkiRackOwner: PartyManagement,
	}
}

// Record returns the stored month or the empty month when absent.
func (l YearLedger) Record(month int) MonthRecord {
	if rec, ok := l.Months[month]; ok && rec != nil {
		return *rec
	}
	return EmptyMonth(l.CarID, l.Year, month)
}
