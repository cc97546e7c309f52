package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fleetdesk/internal/core"
	"fleetdesk/internal/earnings"
	"fleetdesk/internal/storage"
)

// CarTotals pairs a car with its computed year breakdown.
type CarTotals struct {
	Car       core.Car               `json:"car"`
	Breakdown earnings.YearBreakdown `json:"breakdown"`
}

// TotalsReport is a client's earnings picture for one year across all
// their cars.
type TotalsReport struct {
	ClientID         int64       `json:"client_id"`
	Year             int         `json:"year"`
	Cars             []CarTotals `json:"cars"`
	OwnerPayoutTotal int64       `json:"owner_payout_total"`
	ManagementTotal  int64       `json:"management_total"`
}

// TotalsService aggregates per-car earnings into client totals,
// fanning the per-car computation out concurrently.
type TotalsService struct {
	storage  *storage.SQLiteRepository
	earnings *EarningsService
}

func NewTotalsService(storage *storage.SQLiteRepository, earnings *EarningsService) *TotalsService {
	return &TotalsService{storage: storage, earnings: earnings}
}

// ClientTotals computes the year report for every car the client owns.
func (s *TotalsService) ClientTotals(ctx context.Context, clientID int64, year int) (TotalsReport, error) {
	if _, err := s.storage.GetClient(ctx, clientID); err != nil {
		return TotalsReport{}, fmt.Errorf("look up client: %w", err)
	}

	cars, err := s.storage.ListCars(ctx, clientID, "")
	if err != nil {
		return TotalsReport{}, fmt.Errorf("list cars: %w", err)
	}

	report := TotalsReport{
		ClientID: clientID,
		Year:     year,
		Cars:     make([]CarTotals, len(cars)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, car := range cars {
		g.Go(func() error {
			breakdown, err := s.earnings.ComputeYear(gctx, car.ID, year)
			if err != nil {
				return fmt.Errorf("car %d: %w", car.ID, err)
			}
			report.Cars[i] = CarTotals{Car: car, Breakdown: breakdown}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TotalsReport{}, err
	}

	for _, ct := range report.Cars {
		report.OwnerPayoutTotal += ct.Breakdown.OwnerPayoutTotal
		report.ManagementTotal += ct.Breakdown.ManagementTotal
	}
	return report, nil
}
