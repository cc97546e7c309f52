package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fleetdesk/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns all fleet data: clients, cars, onboarding
// records, banking details, stored files and the per-car ledger.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Clients ---

func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (name, email, phone, address, active)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Address, c.Active)
	if err != nil {
		return 0, fmt.Errorf("create client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("client insert id: %w", err)
	}

	slog.InfoContext(ctx, "Client created", "id", id, "name", c.Name)
	return id, nil
}

func (r *SQLiteRepository) UpdateClient(ctx context.Context, c core.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, address = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Address, c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res, "client", c.ID)
}

func (r *SQLiteRepository) GetClient(ctx context.Context, id int64) (core.Client, error) {
	var c core.Client
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, active, last_login, created_at, updated_at
		FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Active,
			&lastLogin, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Client{}, fmt.Errorf("client %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Client{}, fmt.Errorf("get client: %w", err)
	}
	if lastLogin.Valid {
		c.LastLogin = lastLogin.Time
	}
	return c, nil
}

// ListClients filters by a free-text query against name/email and,
// optionally, the active flag.
func (r *SQLiteRepository) ListClients(ctx context.Context, query string, activeOnly bool) ([]core.Client, error) {
	q := `SELECT id, name, email, phone, address, active, last_login, created_at, updated_at FROM clients`
	var conds []string
	var args []any
	if s := strings.TrimSpace(query); s != "" {
		conds = append(conds, "(name LIKE ? OR email LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	if activeOnly {
		conds = append(conds, "active = 1")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		var c core.Client
		var lastLogin sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
			&c.Active, &lastLogin, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		if lastLogin.Valid {
			c.LastLogin = lastLogin.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TouchClientLogin records a staff-portal login for the client.
func (r *SQLiteRepository) TouchClientLogin(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touch client login: %w", err)
	}
	return requireRow(res, "client", id)
}

// --- Cars ---

func (r *SQLiteRepository) CreateCar(ctx context.Context, c core.Car) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cars (client_id, vin, make, model, year, license_plate,
			mileage, status, fuel_type, tire_type, oil_type, listing_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClientID, c.VIN, c.Make, c.Model, c.Year, c.LicensePlate,
		c.Mileage, c.Status, c.FuelType, c.TireType, c.OilType, c.ListingURL)
	if err != nil {
		return 0, fmt.Errorf("create car: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("car insert id: %w", err)
	}

	slog.InfoContext(ctx, "Car created", "id", id, "vin", c.VIN, "client_id", c.ClientID)
	return id, nil
}

func (r *SQLiteRepository) UpdateCar(ctx context.Context, c core.Car) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cars
		SET client_id = ?, vin = ?, make = ?, model = ?, year = ?, license_plate = ?,
			mileage = ?, status = ?, fuel_type = ?, tire_type = ?, oil_type = ?, listing_url = ?
		WHERE id = ?`,
		c.ClientID, c.VIN, c.Make, c.Model, c.Year, c.LicensePlate,
		c.Mileage, c.Status, c.FuelType, c.TireType, c.OilType, c.ListingURL, c.ID)
	if err != nil {
		return fmt.Errorf("update car: %w", err)
	}
	return requireRow(res, "car", c.ID)
}

const carColumns = `id, client_id, vin, make, model, year, license_plate,
	mileage, status, fuel_type, tire_type, oil_type, listing_url`

func scanCar(row interface{ Scan(...any) error }) (core.Car, error) {
	var c core.Car
	err := row.Scan(&c.ID, &c.ClientID, &c.VIN, &c.Make, &c.Model, &c.Year,
		&c.LicensePlate, &c.Mileage, &c.Status, &c.FuelType, &c.TireType,
		&c.OilType, &c.ListingURL)
	return c, err
}

func (r *SQLiteRepository) GetCar(ctx context.Context, id int64) (core.Car, error) {
	c, err := scanCar(r.db.QueryRowContext(ctx,
		`SELECT `+carColumns+` FROM cars WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Car{}, fmt.Errorf("car %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Car{}, fmt.Errorf("get car: %w", err)
	}
	return c, nil
}

// ListCars filters by client and status; zero values mean no filter.
func (r *SQLiteRepository) ListCars(ctx context.Context, clientID int64, status core.CarStatus) ([]core.Car, error) {
	q := `SELECT ` + carColumns + ` FROM cars`
	var conds []string
	var args []any
	if clientID > 0 {
		conds = append(conds, "client_id = ?")
		args = append(args, clientID)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY make, model"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	var out []core.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Onboarding ---

func (r *SQLiteRepository) UpsertOnboarding(ctx context.Context, o core.Onboarding) error {
	var submittedAt any
	if !o.SubmittedAt.IsZero() {
		submittedAt = o.SubmittedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO onboarding (client_id, first_name, last_name, email, phone, address,
			driver_license_no, vin, car_make, car_model, car_year, license_plate, mileage,
			insurance_company, policy_number, bank_name, iban, monthly_target_cents,
			submitted, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone = excluded.phone,
			address = excluded.address,
			driver_license_no = excluded.driver_license_no,
			vin = excluded.vin,
			car_make = excluded.car_make,
			car_model = excluded.car_model,
			car_year = excluded.car_year,
			license_plate = excluded.license_plate,
			mileage = excluded.mileage,
			insurance_company = excluded.insurance_company,
			policy_number = excluded.policy_number,
			bank_name = excluded.bank_name,
			iban = excluded.iban,
			monthly_target_cents = excluded.monthly_target_cents,
			submitted = excluded.submitted,
			submitted_at = excluded.submitted_at`,
		o.ClientID, o.FirstName, o.LastName, o.Email, o.Phone, o.Address,
		o.DriverLicenseNo, o.VIN, o.CarMake, o.CarModel, o.CarYear, o.LicensePlate,
		o.Mileage, o.InsuranceCo, o.PolicyNumber, o.BankName, o.IBAN,
		o.MonthlyTarget.Cents, o.Submitted, submittedAt)
	if err != nil {
		return fmt.Errorf("upsert onboarding: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetOnboarding(ctx context.Context, clientID int64) (core.Onboarding, error) {
	var o core.Onboarding
	var submittedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT client_id, first_name, last_name, email, phone, address,
			driver_license_no, vin, car_make, car_model, car_year, license_plate, mileage,
			insurance_company, policy_number, bank_name, iban, monthly_target_cents,
			submitted, submitted_at
		FROM onboarding WHERE client_id = ?`, clientID).
		Scan(&o.ClientID, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Address,
			&o.DriverLicenseNo, &o.VIN, &o.CarMake, &o.CarModel, &o.CarYear,
			&o.LicensePlate, &o.Mileage, &o.InsuranceCo, &o.PolicyNumber,
			&o.BankName, &o.IBAN, &o.MonthlyTarget.Cents, &o.Submitted, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Onboarding{}, fmt.Errorf("onboarding for client %d: %w", clientID, core.ErrNotFound)
	}
	if err != nil {
		return core.Onboarding{}, fmt.Errorf("get onboarding: %w", err)
	}
	if submittedAt.Valid {
		o.SubmittedAt = submittedAt.Time
	}
	return o, nil
}

// --- Banking ---

func (r *SQLiteRepository) AddBankingRecord(ctx context.Context, b core.BankingRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO banking_records (client_id, bank_name, account_holder, iban,
			routing_number, currency, is_primary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ClientID, b.BankName, b.AccountHolder, b.IBAN,
		b.RoutingNumber, b.Currency, b.Primary)
	if err != nil {
		return 0, fmt.Errorf("add banking record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("banking record insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListBankingRecords(ctx context.Context, clientID int64) ([]core.BankingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, bank_name, account_holder, iban, routing_number,
			currency, is_primary, created_at
		FROM banking_records WHERE client_id = ? ORDER BY is_primary DESC, created_at`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list banking records: %w", err)
	}
	defer rows.Close()

	var out []core.BankingRecord
	for rows.Next() {
		var b core.BankingRecord
		if err := rows.Scan(&b.ID, &b.ClientID, &b.BankName, &b.AccountHolder,
			&b.IBAN, &b.RoutingNumber, &b.Currency, &b.Primary, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan banking record: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Stored files ---

func (r *SQLiteRepository) AddStoredFile(ctx context.Context, f core.StoredFile) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stored_files (client_id, kind, stored_name, original_name, content_type, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ClientID, f.Kind, f.StoredName, f.OriginalName, f.ContentType, f.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("add stored file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stored file insert id: %w", err)
	}

	slog.InfoContext(ctx, "File recorded", "id", id, "kind", f.Kind,
		"stored_name", f.StoredName, "client_id", f.ClientID)
	return id, nil
}

func (r *SQLiteRepository) GetStoredFileByName(ctx context.Context, storedName string) (core.StoredFile, error) {
	var f core.StoredFile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, kind, stored_name, original_name, content_type, size_bytes, uploaded_at
		FROM stored_files WHERE stored_name = ?`, storedName).
		Scan(&f.ID, &f.ClientID, &f.Kind, &f.StoredName, &f.OriginalName,
			&f.ContentType, &f.SizeBytes, &f.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StoredFile{}, fmt.Errorf("file %s: %w", storedName, core.ErrNotFound)
	}
	if err != nil {
		return core.StoredFile{}, fmt.Errorf("get stored file: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListStoredFiles(ctx context.Context, clientID int64, kind core.FileKind) ([]core.StoredFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, kind, stored_name, original_name, content_type, size_bytes, uploaded_at
		FROM stored_files WHERE client_id = ? AND kind = ? ORDER BY uploaded_at DESC`,
		clientID, kind)
	if err != nil {
		return nil, fmt.Errorf("list stored files: %w", err)
	}
	defer rows.Close()

	var out []core.StoredFile
	for rows.Next() {
		var f core.StoredFile
		if err := rows.Scan(&f.ID, &f.ClientID, &f.Kind, &f.StoredName,
			&f.OriginalName, &f.ContentType, &f.SizeBytes, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan stored file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// requireRow turns a zero-row update into core.ErrNotFound.
func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, core.ErrNotFound)
	}
	return nil
}
