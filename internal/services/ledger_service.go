package services

import (
	"context"
	"fmt"
	"log/slog"

	"fleetdesk/internal/amqp"
	"fleetdesk/internal/core"
	"fleetdesk/internal/storage"
)

// LedgerService orchestrates ledger writes across SQLite and AMQP.
// The database is the source of truth; the sync message to the
// spreadsheet mirror is best-effort and never fails the request.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	onWrite    []func(carID int64)
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// OnWrite registers a callback invoked after every successful ledger
// write, used to drop cached computations for the car.
func (s *LedgerService) OnWrite(fn func(carID int64)) {
	s.onWrite = append(s.onWrite, fn)
}

// SaveMonth validates and stores one month record, then queues it for
// spreadsheet sync.
func (s *LedgerService) SaveMonth(ctx context.Context, rec core.MonthRecord) (int64, error) {
	// The car must exist; a typo'd car id must not create orphan rows.
	if _, err := s.storage.GetCar(ctx, rec.CarID); err != nil {
		return 0, fmt.Errorf("look up car: %w", err)
	}

	version, err := s.storage.UpsertMonth(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save ledger month: %w", err)
	}

	for _, fn := range s.onWrite {
		fn(rec.CarID)
	}

	if err := s.publishSyncMessage(ctx, rec.CarID, rec.Year, rec.Month, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"car_id", rec.CarID, "year", rec.Year, "month", rec.Month, "error", err)
		// Don't fail the request - the month is saved locally and the
		// worker's periodic sweep will pick it up.
	}

	return version, nil
}

func (s *LedgerService) GetMonth(ctx context.Context, carID int64, year, month int) (core.MonthRecord, error) {
	return s.storage.GetMonth(ctx, carID, year, month)
}

func (s *LedgerService) GetYear(ctx context.Context, carID int64, year int) (core.YearLedger, error) {
	return s.storage.GetYearLedger(ctx, carID, year)
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, carID int64, year, month int, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishLedgerSync(ctx, carID, year, month, version)
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
