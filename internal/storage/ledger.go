package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fleetdesk/internal/core"
)

// Sync statuses for ledger months mirrored to the spreadsheet.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingMonth is a ledger month awaiting spreadsheet sync, carrying
// the version the sync should stamp on completion.
type PendingMonth struct {
	Record  core.MonthRecord
	Version int64
}

const monthColumns = `car_id, year, month,
	rental_income, delivery_income, other_income, ski_rack_income,
	delivery_fuel, delivery_tolls, delivery_labor,
	maintenance, repairs, detailing,
	insurance_bill, registration_bill,
	parking, labor, trips, miles,
	mode, ski_rack_owner, updated_at`

func scanMonth(row interface{ Scan(...any) error }) (core.MonthRecord, error) {
	var rec core.MonthRecord
	err := row.Scan(&rec.CarID, &rec.Year, &rec.Month,
		&rec.RentalIncome, &rec.DeliveryIncome, &rec.OtherIncome, &rec.SkiRackIncome,
		&rec.DeliveryFuel, &rec.DeliveryTolls, &rec.DeliveryLabor,
		&rec.Maintenance, &rec.Repairs, &rec.Detailing,
		&rec.InsuranceBill, &rec.RegistrationBill,
		&rec.Parking, &rec.Labor, &rec.Trips, &rec.Miles,
		&rec.Mode, &rec.SkiRackOwner, &rec.UpdatedAt)
	return rec, err
}

// UpsertMonth writes a full month record, bumping the row version and
// re-flagging it for sync. Returns the new version.
func (r *SQLiteRepository) UpsertMonth(ctx context.Context, rec core.MonthRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("validate month record: %w", err)
	}

	var version int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ledger_months (car_id, year, month,
			rental_income, delivery_income, other_income, ski_rack_income,
			delivery_fuel, delivery_tolls, delivery_labor,
			maintenance, repairs, detailing,
			insurance_bill, registration_bill,
			parking, labor, trips, miles,
			mode, ski_rack_owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(car_id, year, month) DO UPDATE SET
			rental_income = excluded.rental_income,
			delivery_income = excluded.delivery_income,
			other_income = excluded.other_income,
			ski_rack_income = excluded.ski_rack_income,
			delivery_fuel = excluded.delivery_fuel,
			delivery_tolls = excluded.delivery_tolls,
			delivery_labor = excluded.delivery_labor,
			maintenance = excluded.maintenance,
			repairs = excluded.repairs,
			detailing = excluded.detailing,
			insurance_bill = excluded.insurance_bill,
			registration_bill = excluded.registration_bill,
			parking = excluded.parking,
			labor = excluded.labor,
			trips = excluded.trips,
			miles = excluded.miles,
			mode = excluded.mode,
			ski_rack_owner = excluded.ski_rack_owner,
			version = version + 1,
			sync_status = 'pending',
			synced_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		RETURNING version`,
		rec.CarID, rec.Year, rec.Month,
		rec.RentalIncome, rec.DeliveryIncome, rec.OtherIncome, rec.SkiRackIncome,
		rec.DeliveryFuel, rec.DeliveryTolls, rec.DeliveryLabor,
		rec.Maintenance, rec.Repairs, rec.Detailing,
		rec.InsuranceBill, rec.RegistrationBill,
		rec.Parking, rec.Labor, rec.Trips, rec.Miles,
		rec.Mode, rec.SkiRackOwner).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("upsert ledger month: %w", err)
	}

	slog.InfoContext(ctx, "Ledger month saved",
		"car_id", rec.CarID, "year", rec.Year, "month", rec.Month, "version", version)
	return version, nil
}

func (r *SQLiteRepository) GetMonth(ctx context.Context, carID int64, year, month int) (core.MonthRecord, error) {
	rec, err := scanMonth(r.db.QueryRowContext(ctx, `
		SELECT `+monthColumns+` FROM ledger_months
		WHERE car_id = ? AND year = ? AND month = ?`, carID, year, month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthRecord{}, fmt.Errorf("ledger month %d/%d for car %d: %w",
			month, year, carID, core.ErrNotFound)
	}
	if err != nil {
		return core.MonthRecord{}, fmt.Errorf("get ledger month: %w", err)
	}
	return rec, nil
}

// GetYearLedger loads every stored month of the year. Missing months
// are simply absent from the map; an empty ledger is not an error.
func (r *SQLiteRepository) GetYearLedger(ctx context.Context, carID int64, year int) (core.YearLedger, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+monthColumns+` FROM ledger_months
		WHERE car_id = ? AND year = ? ORDER BY month`, carID, year)
	if err != nil {
		return core.YearLedger{}, fmt.Errorf("get year ledger: %w", err)
	}
	defer rows.Close()

	ledger := core.YearLedger{CarID: carID, Year: year, Months: make(map[int]*core.MonthRecord)}
	for rows.Next() {
		rec, err := scanMonth(rows)
		if err != nil {
			return core.YearLedger{}, fmt.Errorf("scan ledger month: %w", err)
		}
		ledger.Months[rec.Month] = &rec
	}
	return ledger, rows.Err()
}

// LedgerYears returns the distinct years with data for a car, oldest first.
func (r *SQLiteRepository) LedgerYears(ctx context.Context, carID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT year FROM ledger_months WHERE car_id = ? ORDER BY year`, carID)
	if err != nil {
		return nil, fmt.Errorf("ledger years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan ledger year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// GetPendingSyncMonths returns up to limit months flagged for sync,
// oldest change first.
func (r *SQLiteRepository) GetPendingSyncMonths(ctx context.Context, limit int) ([]PendingMonth, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+monthColumns+`, version FROM ledger_months
		WHERE sync_status = ? ORDER BY updated_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync months: %w", err)
	}
	defer rows.Close()

	var out []PendingMonth
	for rows.Next() {
		var p PendingMonth
		if err := rows.Scan(&p.Record.CarID, &p.Record.Year, &p.Record.Month,
			&p.Record.RentalIncome, &p.Record.DeliveryIncome, &p.Record.OtherIncome, &p.Record.SkiRackIncome,
			&p.Record.DeliveryFuel, &p.Record.DeliveryTolls, &p.Record.DeliveryLabor,
			&p.Record.Maintenance, &p.Record.Repairs, &p.Record.Detailing,
			&p.Record.InsuranceBill, &p.Record.RegistrationBill,
			&p.Record.Parking, &p.Record.Labor, &p.Record.Trips, &p.Record.Miles,
			&p.Record.Mode, &p.Record.SkiRackOwner, &p.Record.UpdatedAt, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending month: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkMonthSynced records a successful sync, but only if the row has
// not been edited again since the synced version was read.
func (r *SQLiteRepository) MarkMonthSynced(ctx context.Context, carID int64, year, month int, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledger_months
		SET sync_status = ?, synced_at = CURRENT_TIMESTAMP
		WHERE car_id = ? AND year = ? AND month = ? AND version = ?`,
		SyncSynced, carID, year, month, version)
	if err != nil {
		return fmt.Errorf("mark month synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkMonthSyncError(ctx context.Context, carID int64, year, month int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledger_months SET sync_status = ?
		WHERE car_id = ? AND year = ? AND month = ?`,
		SyncError, carID, year, month)
	if err != nil {
		return fmt.Errorf("mark month sync error: %w", err)
	}
	return nil
}

// --- Recurring charges ---

func (r *SQLiteRepository) AddRecurringCharge(ctx context.Context, c core.RecurringCharge) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("validate recurring charge: %w", err)
	}
	var endDate any
	if !c.EndDate.IsZero() {
		endDate = c.EndDate
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_charges (car_id, category, amount_cents, frequency, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.CarID, c.Category, c.Amount.Cents, c.Frequency, c.StartDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("add recurring charge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring charge insert id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring charge created",
		"id", id, "car_id", c.CarID, "category", c.Category, "frequency", c.Frequency)
	return id, nil
}

// ListRecurringCharges returns the charges for one car, or for every
// car when carID is zero.
func (r *SQLiteRepository) ListRecurringCharges(ctx context.Context, carID int64) ([]core.RecurringCharge, error) {
	q := `SELECT id, car_id, category, amount_cents, frequency, start_date, end_date, last_applied, created_at
		FROM recurring_charges`
	var args []any
	if carID > 0 {
		q += ` WHERE car_id = ?`
		args = append(args, carID)
	}
	q += ` ORDER BY car_id, category`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringCharge
	for rows.Next() {
		var c core.RecurringCharge
		var endDate, lastApplied sql.NullTime
		if err := rows.Scan(&c.ID, &c.CarID, &c.Category, &c.Amount.Cents,
			&c.Frequency, &c.StartDate, &endDate, &lastApplied, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recurring charge: %w", err)
		}
		if endDate.Valid {
			c.EndDate = endDate.Time
		}
		if lastApplied.Valid {
			c.LastApplied = lastApplied.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkChargeApplied(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_charges SET last_applied = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("mark charge applied: %w", err)
	}
	return requireRow(res, "recurring charge", id)
}

// ApplyChargeToMonth adds the charge amount to its ledger column for
// the given month, creating the row if needed. The category is checked
// against the known columns, never interpolated from user input.
func (r *SQLiteRepository) ApplyChargeToMonth(ctx context.Context, charge core.RecurringCharge, year, month int) error {
	if !core.ChargeCategories[charge.Category] {
		return fmt.Errorf("apply charge %d: %w", charge.ID, core.ErrInvalidCategory)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_months (car_id, year, month, `+charge.Category+`)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(car_id, year, month) DO UPDATE SET
			`+charge.Category+` = `+charge.Category+` + excluded.`+charge.Category+`,
			version = version + 1,
			sync_status = 'pending',
			synced_at = NULL,
			updated_at = CURRENT_TIMESTAMP`,
		charge.CarID, year, month, charge.Amount.Cents)
	if err != nil {
		return fmt.Errorf("apply charge to month: %w", err)
	}

	slog.InfoContext(ctx, "Recurring charge applied",
		"charge_id", charge.ID, "car_id", charge.CarID,
		"year", year, "month", month, "amount", charge.Amount.Format())
	return nil
}
