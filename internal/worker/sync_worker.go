package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fleetdesk/internal/amqp"
	"fleetdesk/internal/sheets"
	"fleetdesk/internal/storage"
)

// SyncWorker mirrors ledger months from SQLite to the Google
// spreadsheet. The normal path is AMQP-driven; pending-row sweeps at
// startup and on a timer catch anything a lost message left behind.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sheets    sheets.MonthWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sheets sheets.MonthWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one ledger sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"car_id", msg.CarID,
		"year", msg.Year,
		"month", msg.Month,
		"version", msg.Version)

	rec, err := w.storage.GetMonth(ctx, msg.CarID, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("get ledger month from storage: %w", err)
	}

	return w.syncMonthToSheets(ctx, storage.PendingMonth{Record: rec, Version: msg.Version})
}

// ProcessPendingMonths mirrors any months that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingMonths(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncMonths(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending months: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending ledger months", "count", len(pending))

	for _, p := range pending {
		if err := w.syncMonthToSheets(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to sync ledger month",
				"car_id", p.Record.CarID,
				"year", p.Record.Year,
				"month", p.Record.Month,
				"error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck sweeps pending months at worker startup, recovering
// from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Use a larger batch for the startup sweep.
	pending, err := w.storage.GetPendingSyncMonths(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending months for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending ledger months found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending ledger months on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.syncMonthToSheets(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to sync ledger month during startup",
				"car_id", p.Record.CarID,
				"year", p.Record.Year,
				"month", p.Record.Month,
				"error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncMonthToSheets(ctx context.Context, p storage.PendingMonth) error {
	rec := p.Record

	ref, err := w.sheets.WriteMonth(ctx, rec)
	if err != nil {
		if markErr := w.storage.MarkMonthSyncError(ctx, rec.CarID, rec.Year, rec.Month); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"car_id", rec.CarID, "year", rec.Year, "month", rec.Month, "error", markErr)
		}
		return fmt.Errorf("write month to sheets: %w", err)
	}

	// Only the synced version is marked: if the row was edited again in
	// the meantime it stays pending and gets mirrored on the next pass.
	if err := w.storage.MarkMonthSynced(ctx, rec.CarID, rec.Year, rec.Month, p.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"car_id", rec.CarID, "year", rec.Year, "month", rec.Month, "error", err)
		// Don't return error here - the sync actually worked.
	}

	slog.InfoContext(ctx, "Synced ledger month",
		"car_id", rec.CarID,
		"year", rec.Year,
		"month", rec.Month,
		"version", p.Version,
		"sheets_ref", ref)

	return nil
}
