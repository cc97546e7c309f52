// Package earnings implements the monthly owner/management split and the
// negative-balance carry-over recurrence for a car's ledger.
//
// The split rules mirror the company's books: under the 50:50 mode the
// owner and management share the month's pool (income after direct
// delivery, COGS and parking/labor) evenly; under the 30:70 mode the
// owner takes 70% of income after direct delivery but bears the car
// costs alone, and management keeps a flat 30%. Ski-rack income is
// attributed wholly to whichever party owns the rack. Bills fronted by
// management (insurance, registration) move from the owner's side to
// management's in full.
//
// A month that ends with a negative owner balance carries the deficit
// into the next month; surpluses never carry. January pulls its deficit
// from the previous year's December. 2019 is the first year on the
// books: no deficit is ever carried into any of its months.
package earnings

import (
	"github.com/shopspring/decimal"

	"fleetdesk/internal/core"
)

// BaseYear is the first ledger year; no deficit is carried into it or
// into any earlier year.
const BaseYear = 2019

var (
	half        = decimal.NewFromFloat(0.5)
	ownerHeavy  = decimal.NewFromFloat(0.7)
	mgmtResidue = decimal.NewFromFloat(0.3)
)

// MonthResult is the computed earnings picture for one month.
// All values are integer cents; CarryIn and CarryOut are never positive.
type MonthResult struct {
	Month         int            `json:"month"`
	Mode          core.SplitMode `json:"mode"`
	CarryIn       int64          `json:"carry_in"`
	OwnerShare    int64          `json:"owner_share"`
	ManagementNet int64          `json:"management_net"`
	OwnerGross    int64          `json:"owner_gross"`
	OwnerNet      int64          `json:"owner_net"`
	Payout        int64          `json:"payout"`
	CarryOut      int64          `json:"carry_out"`
}

// YearBreakdown is a full year of month results plus the year totals.
type YearBreakdown struct {
	CarID            int64         `json:"car_id"`
	Year             int           `json:"year"`
	Months           []MonthResult `json:"months"`
	OwnerPayoutTotal int64         `json:"owner_payout_total"`
	ManagementTotal  int64         `json:"management_total"`
	CarryIntoNext    int64         `json:"carry_into_next"`
}

// Engine evaluates the recurrence over the year ledgers it was given.
// Months of years it does not hold evaluate as empty, so a January with
// no previous-year ledger carries nothing in.
type Engine struct {
	ledgers map[int]core.YearLedger
}

// New builds an engine over the given ledgers. Pass the previous year's
// ledger alongside the current one to resolve January carry-over.
func New(ledgers ...core.YearLedger) *Engine {
	m := make(map[int]core.YearLedger, len(ledgers))
	for _, l := range ledgers {
		m[l.Year] = l
	}
	return &Engine{ledgers: m}
}

func (e *Engine) record(year, month int) core.MonthRecord {
	if l, ok := e.ledgers[year]; ok {
		return l.Record(month)
	}
	return core.EmptyMonth(0, year, month)
}

// CarryInto returns the deficit carried into (year, month). The result
// is always <= 0.
//
// The recurrence: months 2-12 take the previous month's closing
// balance; January takes the previous year's December. Everything up to
// and including BaseYear closes at zero. The stored per-month mode is
// honored on the previous-year path too: the books this replaces kept
// a second copy of the formula for the previous year that silently
// pinned the mode to 50, and that inconsistency is deliberately not
// reproduced.
func (e *Engine) CarryInto(year, month int) int64 {
	if year <= BaseYear {
		return 0
	}
	if month == 1 {
		return clampDeficit(e.ownerNet(year-1, 12))
	}
	return clampDeficit(e.ownerNet(year, month-1))
}

// ownerNet is the owner's closing balance for the month: the split
// result plus the deficit carried in.
func (e *Engine) ownerNet(year, month int) int64 {
	rec := e.record(year, month)
	gross := ownerGross(rec)
	return gross + e.CarryInto(year, month)
}

// ComputeMonth evaluates a single month against the engine's ledgers.
func (e *Engine) ComputeMonth(year, month int) MonthResult {
	rec := e.record(year, month)
	carryIn := e.CarryInto(year, month)

	ownerShare, mgmtShare := split(rec)
	gross := ownerShare
	mgmtNet := mgmtShare + rec.ReimbursedBillsTotal()
	switch rec.SkiRackOwner {
	case core.PartyOwner:
		gross += rec.SkiRackIncome
	default:
		mgmtNet += rec.SkiRackIncome
	}
	gross -= rec.ReimbursedBillsTotal()

	net := gross + carryIn
	res := MonthResult{
		Month:         month,
		Mode:          rec.Mode,
		CarryIn:       carryIn,
		OwnerShare:    ownerShare,
		ManagementNet: mgmtNet,
		OwnerGross:    gross,
		OwnerNet:      net,
		Payout:        net,
		CarryOut:      0,
	}
	if net < 0 {
		res.Payout = 0
		res.CarryOut = net
	}
	return res
}

// ComputeYear evaluates all twelve months of the given year.
func (e *Engine) ComputeYear(year int) YearBreakdown {
	var carID int64
	if l, ok := e.ledgers[year]; ok {
		carID = l.CarID
	}
	out := YearBreakdown{CarID: carID, Year: year, Months: make([]MonthResult, 0, 12)}
	for m := 1; m <= 12; m++ {
		res := e.ComputeMonth(year, m)
		out.Months = append(out.Months, res)
		out.OwnerPayoutTotal += res.Payout
		out.ManagementTotal += res.ManagementNet
	}
	out.CarryIntoNext = out.Months[11].CarryOut
	return out
}

// split returns the owner's and management's share of the month before
// ski-rack attribution and bill reimbursement, per the month's mode.
func split(rec core.MonthRecord) (owner, mgmt int64) {
	splitBase := decimal.NewFromInt(rec.IncomeTotal() - rec.DirectDeliveryTotal())
	carCosts := decimal.NewFromInt(rec.COGSTotal() + rec.ParkingLaborTotal())

	switch rec.Mode {
	case core.SplitOwnerHeavy:
		ownerD := ownerHeavy.Mul(splitBase).Sub(carCosts)
		mgmtD := mgmtResidue.Mul(splitBase)
		return toCents(ownerD), toCents(mgmtD)
	default:
		pool := splitBase.Sub(carCosts)
		owner = toCents(half.Mul(pool))
		// Management takes the remainder so the two sides always sum
		// to the pool even on odd cents.
		return owner, pool.IntPart() - owner
	}
}

func ownerGross(rec core.MonthRecord) int64 {
	owner, _ := split(rec)
	if rec.SkiRackOwner == core.PartyOwner {
		owner += rec.SkiRackIncome
	}
	return owner - rec.ReimbursedBillsTotal()
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func clampDeficit(net int64) int64 {
	if net > 0 {
		return 0
	}
	return net
}
