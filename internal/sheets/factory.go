package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"fleetdesk/internal/sheets/google"
	"fleetdesk/internal/sheets/memory"
)

// NewWriter selects the mirror backend by name. "google" writes to the
// configured spreadsheet; "memory" keeps rows in process, which is what
// development and tests run against.
func NewWriter(ctx context.Context, backend string) (MonthWriter, error) {
	switch backend {
	case "google":
		cli, err := google.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize google sheets client: %w", err)
		}
		slog.InfoContext(ctx, "Google Sheets mirror initialized")
		return cli, nil
	case "memory":
		slog.InfoContext(ctx, "In-memory mirror initialized - rows are not persisted")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported sheets backend %q", backend)
	}
}
