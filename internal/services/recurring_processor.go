package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fleetdesk/internal/storage"
)

// RecurringProcessor materializes recurring charges (parking, insurance
// and so on) into the monthly ledger when they come due.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	ledger  *LedgerService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		ledger:  ledger,
	}
}

// ProcessDueCharges applies every charge that is due at the given time
// and returns how many were applied.
func (p *RecurringProcessor) ProcessDueCharges(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	charges, err := p.storage.ListRecurringCharges(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list recurring charges: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring charges",
		"total", len(charges),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, charge := range charges {
		if now.Before(charge.StartDate) {
			continue
		}
		if !charge.EndDate.IsZero() && now.After(charge.EndDate) {
			continue
		}

		checker, err := GetDuenessChecker(charge.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping charge with unknown frequency",
				"id", charge.ID, "frequency", charge.Frequency)
			continue
		}
		if !checker.IsDue(charge.LastApplied, now, charge.StartDate) {
			continue
		}

		if err := p.storage.ApplyChargeToMonth(ctx, charge, now.Year(), int(now.Month())); err != nil {
			slog.ErrorContext(ctx, "Failed to apply recurring charge",
				"id", charge.ID,
				"car_id", charge.CarID,
				"category", charge.Category,
				"error", err)
			continue
		}

		if err := p.storage.MarkChargeApplied(ctx, charge.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to mark charge applied",
				"id", charge.ID, "error", err)
			// Continue anyway - the ledger row was updated.
		}

		// The ledger changed behind the API's back: drop cached
		// breakdowns. The row is flagged pending, so the worker's
		// periodic sweep will mirror it to the spreadsheet.
		if p.ledger != nil {
			for _, fn := range p.ledger.onWrite {
				fn(charge.CarID)
			}
		}

		processedCount++
		slog.InfoContext(ctx, "Applied recurring charge",
			"id", charge.ID,
			"car_id", charge.CarID,
			"category", charge.Category,
			"amount_cents", charge.Amount.Cents,
			"frequency", charge.Frequency)
	}

	slog.InfoContext(ctx, "Recurring charge processing complete",
		"applied", processedCount,
		"total_checked", len(charges))

	return processedCount, nil
}
