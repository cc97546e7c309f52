package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fleetdesk/internal/core"
)

// Client mirrors ledger months to a Google spreadsheet. Each year gets
// its own sheet named "<year> <base>" (e.g. "2024 Ledger"); each month
// of each car occupies one row, rewritten in place on every sync.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year; code prefixes the record's year.
	ledgerBase string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_LEDGER_SHEET_NAME (default "Ledger") and service
// account credentials via GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerBase := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerBase == "" {
		ledgerBase = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerBase:    ledgerBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// WriteMonth writes the record's row on its year sheet, updating in
// place when a row for the same car and month already exists.
func (c *Client) WriteMonth(ctx context.Context, rec core.MonthRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := c.ledgerSheetName(rec.Year)

	// Scan car-id and month columns to find an existing row.
	rng := fmt.Sprintf("%s!A:B", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", sheetName, err)
	}

	row := 0
	for i, cols := range resp.Values {
		if len(cols) < 2 {
			continue
		}
		carID, err1 := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(cols[0])), 10, 64)
		month, err2 := strconv.Atoi(strings.TrimSpace(fmt.Sprint(cols[1])))
		if err1 == nil && err2 == nil && carID == rec.CarID && month == rec.Month {
			row = i + 1
			break
		}
	}
	if row == 0 {
		row = len(resp.Values) + 1
	}

	dataRange := fmt.Sprintf("%s!A%d:T%d", sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{monthRow(rec)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update row in sheet %s: %w", sheetName, err)
	}

	return dataRange, nil
}

// monthRow is the spreadsheet row layout: identifiers first, then the
// income, cost and history columns, amounts in euros.
func monthRow(rec core.MonthRecord) []any {
	return []any{
		rec.CarID,
		rec.Month,
		euros(rec.RentalIncome),
		euros(rec.DeliveryIncome),
		euros(rec.OtherIncome),
		euros(rec.SkiRackIncome),
		euros(rec.DeliveryFuel),
		euros(rec.DeliveryTolls),
		euros(rec.DeliveryLabor),
		euros(rec.Maintenance),
		euros(rec.Repairs),
		euros(rec.Detailing),
		euros(rec.InsuranceBill),
		euros(rec.RegistrationBill),
		euros(rec.Parking),
		euros(rec.Labor),
		rec.Trips,
		rec.Miles,
		int(rec.Mode),
		string(rec.SkiRackOwner),
	}
}

func euros(cents int64) float64 {
	return float64(cents) / 100.0
}

func (c *Client) ledgerSheetName(year int) string {
	return yearPrefixedName(c.ledgerBase, year)
}

// yearPrefixedName returns "<year> <base>" unless base already starts
// with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
