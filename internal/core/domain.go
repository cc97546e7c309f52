package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusAvailable   CarStatus = "available"
	StatusRented      CarStatus = "rented"
	StatusMaintenance CarStatus = "maintenance"
	StatusRetired     CarStatus = "retired"
)

type (
	CarStatus string

	// Client is a car owner managed by the fleet.
	Client struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Phone     string    `json:"phone"`
		Address   string    `json:"address"`
		Active    bool      `json:"active"`
		LastLogin time.Time `json:"last_login,omitzero"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Car is a single fleet vehicle belonging to a client.
	Car struct {
		ID           int64     `json:"id"`
		ClientID     int64     `json:"client_id"`
		VIN          string    `json:"vin"`
		Make         string    `json:"make"`
		Model        string    `json:"model"`
		Year         int       `json:"year"`
		LicensePlate string    `json:"license_plate"`
		Mileage      int64     `json:"mileage"`
		Status       CarStatus `json:"status"`
		FuelType     string    `json:"fuel_type"`
		TireType     string    `json:"tire_type"`
		OilType      string    `json:"oil_type"`
		ListingURL   string    `json:"listing_url"`
	}

	// Onboarding is the intake submission captured when a client joins.
	// It is a superset of the client and car records: everything the
	// intake form collects is kept verbatim.
	Onboarding struct {
		ClientID        int64     `json:"client_id"`
		FirstName       string    `json:"first_name"`
		LastName        string    `json:"last_name"`
		Email           string    `json:"email"`
		Phone           string    `json:"phone"`
		Address         string    `json:"address"`
		DriverLicenseNo string    `json:"driver_license_no"`
		VIN             string    `json:"vin"`
		CarMake         string    `json:"car_make"`
		CarModel        string    `json:"car_model"`
		CarYear         int       `json:"car_year"`
		LicensePlate    string    `json:"license_plate"`
		Mileage         int64     `json:"mileage"`
		InsuranceCo     string    `json:"insurance_company"`
		PolicyNumber    string    `json:"policy_number"`
		BankName        string    `json:"bank_name"`
		IBAN            string    `json:"iban"`
		MonthlyTarget   Money     `json:"monthly_target"`
		Submitted       bool      `json:"submitted"`
		SubmittedAt     time.Time `json:"submitted_at,omitzero"`
	}

	// BankingRecord holds one set of payout details for a client.
	BankingRecord struct {
		ID            int64     `json:"id"`
		ClientID      int64     `json:"client_id"`
		BankName      string    `json:"bank_name"`
		AccountHolder string    `json:"account_holder"`
		IBAN          string    `json:"iban"`
		RoutingNumber string    `json:"routing_number"`
		Currency      string    `json:"currency"`
		Primary       bool      `json:"primary"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// StoredFile is an uploaded document (signed contract, chart image)
	// kept on disk under a generated name.
	StoredFile struct {
		ID           int64     `json:"id"`
		ClientID     int64     `json:"client_id"`
		Kind         FileKind  `json:"kind"`
		StoredName   string    `json:"stored_name"`
		OriginalName string    `json:"original_name"`
		ContentType  string    `json:"content_type"`
		SizeBytes    int64     `json:"size_bytes"`
		UploadedAt   time.Time `json:"uploaded_at"`
	}

	FileKind string
)

const (
	FileContract FileKind = "contract"
	FileChart    FileKind = "chart"
)

var (
	ErrInvalidVIN    = errors.New("vin must be exactly 17 characters")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidYear   = errors.New("invalid year")
	ErrInvalidStatus = errors.New("invalid car status")
	ErrNotFound      = errors.New("not found")
)

func (s CarStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusRetired:
		return true
	}
	return false
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}

func (c Car) Validate() error {
	vin := strings.TrimSpace(c.VIN)
	if len(vin) != 17 {
		return ErrInvalidVIN
	}
	if strings.TrimSpace(c.Make) == "" || strings.TrimSpace(c.Model) == "" {
		return errors.New("empty make or model")
	}
	if c.Year < 1950 || c.Year > time.Now().Year()+1 {
		return ErrInvalidYear
	}
	if !c.Status.Valid() {
		return ErrInvalidStatus
	}
	if c.Mileage < 0 {
		return errors.New("negative mileage")
	}
	return nil
}

func (o Onboarding) Validate() error {
	if strings.TrimSpace(o.FirstName) == "" || strings.TrimSpace(o.LastName) == "" {
		return ErrEmptyName
	}
	// The VIN is optional until the car section of the form is filled in,
	// but once present it must be complete.
	if v := strings.TrimSpace(o.VIN); v != "" && len(v) != 17 {
		return ErrInvalidVIN
	}
	if o.CarYear != 0 && (o.CarYear < 1950 || o.CarYear > time.Now().Year()+1) {
		return ErrInvalidYear
	}
	return nil
}

func (b BankingRecord) Validate() error {
	if strings.TrimSpace(b.BankName) == "" {
		return errors.New("empty bank name")
	}
	if strings.TrimSpace(b.AccountHolder) == "" {
		return errors.New("empty account holder")
	}
	if strings.TrimSpace(b.IBAN) == "" {
		return errors.New("empty IBAN")
	}
	return nil
}
