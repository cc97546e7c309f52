package earnings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdesk/internal/core"
)

func ledger(year int, months map[int]*core.MonthRecord) core.YearLedger {
	for m, rec := range months {
		rec.CarID = 1
		rec.Year = year
		rec.Month = m
		if rec.Mode == 0 {
			rec.Mode = core.SplitEven
		}
		if rec.SkiRackOwner == "" {
			rec.SkiRackOwner = core.PartyManagement
		}
	}
	return core.YearLedger{CarID: 1, Year: year, Months: months}
}

func TestSplitEvenMode(t *testing.T) {
	// income 1000.00, delivery costs 100.00, COGS 200.00, parking 100.00
	// pool = 600.00 -> 300.00 each side
	rec := core.EmptyMonth(1, 2024, 4)
	rec.RentalIncome = 100000
	rec.DeliveryFuel = 10000
	rec.Maintenance = 20000
	rec.Parking = 10000

	e := New(ledger(2024, map[int]*core.MonthRecord{4: &rec}))
	res := e.ComputeMonth(2024, 4)

	assert.Equal(t, int64(30000), res.OwnerShare)
	assert.Equal(t, int64(30000), res.ManagementNet)
	assert.Equal(t, int64(30000), res.Payout)
	assert.Zero(t, res.CarryOut)
}

func TestSplitOwnerHeavyMode(t *testing.T) {
	// income 1000.00, delivery 100.00 -> base 900.00
	// owner: 0.7*900 - 200 (COGS) - 100 (parking) = 330.00
	// management: 0.3*900 = 270.00
	rec := core.EmptyMonth(1, 2024, 4)
	rec.Mode = core.SplitOwnerHeavy
	rec.RentalIncome = 100000
	rec.DeliveryFuel = 10000
	rec.Repairs = 20000
	rec.Labor = 10000

	e := New(ledger(2024, map[int]*core.MonthRecord{4: &rec}))
	res := e.ComputeMonth(2024, 4)

	assert.Equal(t, int64(33000), res.OwnerShare)
	assert.Equal(t, int64(27000), res.ManagementNet)
}

func TestSkiRackAttribution(t *testing.T) {
	base := core.EmptyMonth(1, 2024, 6)
	base.RentalIncome = 50000
	base.SkiRackIncome = 5000

	ownerSide := base
	ownerSide.SkiRackOwner = core.PartyOwner
	mgmtSide := base
	mgmtSide.SkiRackOwner = core.PartyManagement

	eOwner := New(ledger(2024, map[int]*core.MonthRecord{6: &ownerSide}))
	eMgmt := New(ledger(2024, map[int]*core.MonthRecord{6: &mgmtSide}))

	resOwner := eOwner.ComputeMonth(2024, 6)
	resMgmt := eMgmt.ComputeMonth(2024, 6)

	// The rack income moves between the parties; the split itself is untouched.
	assert.Equal(t, resOwner.OwnerShare, resMgmt.OwnerShare)
	assert.Equal(t, resOwner.OwnerGross-resMgmt.OwnerGross, int64(5000))
	assert.Equal(t, resMgmt.ManagementNet-resOwner.ManagementNet, int64(5000))
}

func TestReimbursedBillsMoveToManagement(t *testing.T) {
	rec := core.EmptyMonth(1, 2024, 2)
	rec.RentalIncome = 100000
	rec.InsuranceBill = 8000
	rec.RegistrationBill = 2000

	e := New(ledger(2024, map[int]*core.MonthRecord{2: &rec}))
	res := e.ComputeMonth(2024, 2)

	assert.Equal(t, int64(50000-10000), res.OwnerGross)
	assert.Equal(t, int64(50000+10000), res.ManagementNet)
}

func TestCarryOverIsNeverPositive(t *testing.T) {
	months := map[int]*core.MonthRecord{}
	for m := 1; m <= 12; m++ {
		rec := core.EmptyMonth(1, 2024, m)
		rec.RentalIncome = int64(m%3) * 40000
		rec.Repairs = 60000 // heavy repair bill every month
		months[m] = &rec
	}
	e := New(ledger(2024, months))
	for m := 1; m <= 12; m++ {
		res := e.ComputeMonth(2024, m)
		assert.LessOrEqual(t, res.CarryIn, int64(0), "month %d carry-in", m)
		assert.LessOrEqual(t, res.CarryOut, int64(0), "month %d carry-out", m)
		assert.GreaterOrEqual(t, res.Payout, int64(0), "month %d payout", m)
	}
}

func TestBaseYearCarriesNothingIn(t *testing.T) {
	months := map[int]*core.MonthRecord{}
	for m := 1; m <= 12; m++ {
		rec := core.EmptyMonth(1, 2019, m)
		rec.Repairs = 100000 // every month deep in the red
		months[m] = &rec
	}
	e := New(ledger(2019, months))
	for m := 1; m <= 12; m++ {
		assert.Zero(t, e.CarryInto(2019, m), "month %d", m)
	}
}

func TestDeficitCarriesAcrossMonths(t *testing.T) {
	jan := core.EmptyMonth(1, 2024, 1)
	jan.Repairs = 40000 // owner closes January at -200.00 (even split)
	feb := core.EmptyMonth(1, 2024, 2)
	feb.RentalIncome = 100000 // owner share 500.00

	e := New(ledger(2024, map[int]*core.MonthRecord{1: &jan, 2: &feb}))

	require.Equal(t, int64(-20000), e.CarryInto(2024, 2))
	res := e.ComputeMonth(2024, 2)
	assert.Equal(t, int64(50000), res.OwnerGross)
	assert.Equal(t, int64(30000), res.Payout)
	assert.Zero(t, res.CarryOut)
}

func TestJanuaryPullsFromPreviousDecember(t *testing.T) {
	dec := core.EmptyMonth(1, 2023, 12)
	dec.Repairs = 50000 // -250.00 under even split

	jan := core.EmptyMonth(1, 2024, 1)
	jan.RentalIncome = 20000 // owner share 100.00

	e := New(
		ledger(2023, map[int]*core.MonthRecord{12: &dec}),
		ledger(2024, map[int]*core.MonthRecord{1: &jan}),
	)

	require.Equal(t, int64(-25000), e.CarryInto(2024, 1))
	res := e.ComputeMonth(2024, 1)
	assert.Equal(t, int64(-15000), res.OwnerNet)
	assert.Zero(t, res.Payout)
	assert.Equal(t, int64(-15000), res.CarryOut)
}

func TestJanuaryWithoutPreviousYearLedger(t *testing.T) {
	jan := core.EmptyMonth(1, 2024, 1)
	jan.RentalIncome = 10000

	e := New(ledger(2024, map[int]*core.MonthRecord{1: &jan}))
	assert.Zero(t, e.CarryInto(2024, 1))
}

func TestPreviousYearPathHonorsStoredMode(t *testing.T) {
	// December 2023 runs 30:70: owner takes 0.7*1000 - 900 repairs = -200.00.
	// Under a mode pinned to 50 it would close at (1000-900)/2 = +50.00 and
	// carry nothing; the stored mode must win.
	dec := core.EmptyMonth(1, 2023, 12)
	dec.Mode = core.SplitOwnerHeavy
	dec.RentalIncome = 100000
	dec.Repairs = 90000

	e := New(
		ledger(2023, map[int]*core.MonthRecord{12: &dec}),
		ledger(2024, map[int]*core.MonthRecord{}),
	)
	assert.Equal(t, int64(-20000), e.CarryInto(2024, 1))
}

func TestMonthDependsOnlyOnPriorChain(t *testing.T) {
	jan := core.EmptyMonth(1, 2024, 1)
	jan.RentalIncome = 60000
	feb := core.EmptyMonth(1, 2024, 2)
	feb.RentalIncome = 80000

	withMarch := map[int]*core.MonthRecord{1: &jan, 2: &feb}
	marchRec := core.EmptyMonth(1, 2024, 3)
	marchRec.RentalIncome = 999999
	withMarch[3] = &marchRec

	withoutMarch := map[int]*core.MonthRecord{1: &jan, 2: &feb}

	a := New(ledger(2024, withMarch)).ComputeMonth(2024, 2)
	b := New(ledger(2024, withoutMarch)).ComputeMonth(2024, 2)
	assert.Equal(t, a, b)
}

func TestComputeYearTotals(t *testing.T) {
	months := map[int]*core.MonthRecord{}
	for m := 1; m <= 12; m++ {
		rec := core.EmptyMonth(1, 2024, m)
		rec.RentalIncome = 100000
		rec.Maintenance = 20000
		months[m] = &rec
	}
	e := New(ledger(2024, months))
	yr := e.ComputeYear(2024)

	require.Len(t, yr.Months, 12)
	// owner share each month: (1000-200)/2 = 400.00
	assert.Equal(t, int64(12*40000), yr.OwnerPayoutTotal)
	assert.Equal(t, int64(12*40000), yr.ManagementTotal)
	assert.Zero(t, yr.CarryIntoNext)
	assert.Equal(t, int64(1), yr.CarID)
}

func TestOddCentRounding(t *testing.T) {
	// pool of 333.33 splits to 166.67 / 166.66 (half-up on the owner side)
	rec := core.EmptyMonth(1, 2024, 7)
	rec.RentalIncome = 33333

	e := New(ledger(2024, map[int]*core.MonthRecord{7: &rec}))
	res := e.ComputeMonth(2024, 7)

	assert.Equal(t, int64(16667), res.OwnerShare)
	assert.Equal(t, int64(16666), res.ManagementNet)
}
