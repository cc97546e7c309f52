package core

import (
	"errors"
	"testing"
)

func TestCarValidate(t *testing.T) {
	good := Car{
		VIN:    "1HGBH41JXMN109186",
		Make:   "Toyota",
		Model:  "RAV4",
		Year:   2021,
		Status: StatusAvailable,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Car)
		want   error
	}{
		{"short vin", func(c *Car) { c.VIN = "ABC123" }, ErrInvalidVIN},
		{"long vin", func(c *Car) { c.VIN = "1HGBH41JXMN1091860" }, ErrInvalidVIN},
		{"bad year", func(c *Car) { c.Year = 1900 }, ErrInvalidYear},
		{"bad status", func(c *Car) { c.Status = "flying" }, ErrInvalidStatus},
	}
	for _, tc := range cases {
		c := good
		tc.mutate(&c)
		if err := c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestOnboardingValidateOptionalVIN(t *testing.T) {
	o := Onboarding{FirstName: "Ada", LastName: "Rossi"}
	if err := o.Validate(); err != nil {
		t.Fatalf("empty vin should be allowed during intake: %v", err)
	}
	o.VIN = "TOO_SHORT"
	if err := o.Validate(); !errors.Is(err, ErrInvalidVIN) {
		t.Fatalf("expected ErrInvalidVIN, got %v", err)
	}
}

func TestMonthRecordValidate(t *testing.T) {
	rec := EmptyMonth(1, 2024, 3)
	rec.RentalIncome = 120000
	if err := rec.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := rec
	bad.Month = 13
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}

	bad = rec
	bad.Mode = 60
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}

	bad = rec
	bad.SkiRackOwner = "renter"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidParty) {
		t.Fatalf("expected ErrInvalidParty, got %v", err)
	}

	bad = rec
	bad.Repairs = -1
	if err := bad.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestYearLedgerRecordFallsBackToEmptyMonth(t *testing.T) {
	l := YearLedger{CarID: 7, Year: 2024, Months: map[int]*MonthRecord{}}
	rec := l.Record(5)
	if rec.Mode != SplitEven || rec.Month != 5 || rec.CarID != 7 {
		t.Fatalf("unexpected empty month: %+v", rec)
	}
}
