package services

import (
	"context"
	"fmt"
	"time"

	"fleetdesk/internal/cache"
	"fleetdesk/internal/core"
	"fleetdesk/internal/earnings"
	"fleetdesk/internal/storage"
)

// EarningsService computes owner/management breakdowns from stored
// ledgers. Results are cached briefly; ledger writes invalidate the
// car's entries via InvalidateCar.
type EarningsService struct {
	storage *storage.SQLiteRepository
	results *cache.TTLCache[earnings.YearBreakdown]
}

func NewEarningsService(storage *storage.SQLiteRepository) *EarningsService {
	return &EarningsService{
		storage: storage,
		results: cache.New[earnings.YearBreakdown](256, 5*time.Minute),
	}
}

// ComputeYear evaluates a car's breakdown for one year. Every stored
// year back to the first one on the books is loaded, so January's
// carry-over resolves through gap years too.
//
// The year is bounded to the ledger range before the recurrence runs:
// it walks month by month back to the base year, so an arbitrarily
// large year from a request path must never reach it.
func (s *EarningsService) ComputeYear(ctx context.Context, carID int64, year int) (earnings.YearBreakdown, error) {
	if year < earnings.BaseYear || year > time.Now().Year()+1 {
		return earnings.YearBreakdown{}, fmt.Errorf("year %d: %w", year, core.ErrInvalidYear)
	}

	key := yearKey(carID, year)
	if cached, ok := s.results.Get(key); ok {
		return cached, nil
	}

	years, err := s.storage.LedgerYears(ctx, carID)
	if err != nil {
		return earnings.YearBreakdown{}, fmt.Errorf("ledger years: %w", err)
	}

	ledgers := make([]core.YearLedger, 0, len(years))
	for _, y := range years {
		if y > year {
			continue
		}
		l, err := s.storage.GetYearLedger(ctx, carID, y)
		if err != nil {
			return earnings.YearBreakdown{}, fmt.Errorf("load ledger %d: %w", y, err)
		}
		ledgers = append(ledgers, l)
	}

	engine := earnings.New(ledgers...)
	breakdown := engine.ComputeYear(year)
	breakdown.CarID = carID

	s.results.Put(key, breakdown)
	return breakdown, nil
}

// InvalidateCar drops every cached breakdown for the car. A write to
// any month can change every later year through the carry chain.
func (s *EarningsService) InvalidateCar(carID int64) {
	s.results.InvalidatePrefix(fmt.Sprintf("car:%d:", carID))
}

func yearKey(carID int64, year int) string {
	return fmt.Sprintf("car:%d:%d", carID, year)
}
