package sheets

import (
	"context"

	"fleetdesk/internal/core"
)

// Ports for outbound adapters.
type (
	// MonthWriter mirrors one ledger month to the spreadsheet, writing
	// the whole row idempotently: the same (car, year, month) always
	// lands on the same row.
	MonthWriter interface {
		WriteMonth(ctx context.Context, rec core.MonthRecord) (rowRef string, err error)
	}
)
