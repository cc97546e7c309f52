package http

import (
	"fmt"
	"net/http"

	"fleetdesk/internal/core"
)

// monthRequest is the ledger entry form: money fields arrive as decimal
// strings ("123.45" or "123,45") and are stored as cents. Empty strings
// mean zero so a partially filled form round-trips cleanly.
type monthRequest struct {
	RentalIncome   string `json:"rental_income"`
	DeliveryIncome string `json:"delivery_income"`
	OtherIncome    string `json:"other_income"`
	SkiRackIncome  string `json:"ski_rack_income"`

	DeliveryFuel  string `json:"delivery_fuel"`
	DeliveryTolls string `json:"delivery_tolls"`
	DeliveryLabor string `json:"delivery_labor"`

	Maintenance string `json:"maintenance"`
	Repairs     string `json:"repairs"`
	Detailing   string `json:"detailing"`

	InsuranceBill    string `json:"insurance_bill"`
	RegistrationBill string `json:"registration_bill"`

	Parking string `json:"parking"`
	Labor   string `json:"labor"`

	Trips int64 `json:"trips"`
	Miles int64 `json:"miles"`

	Mode         int    `json:"mode"`
	SkiRackOwner string `json:"ski_rack_owner"`
}

func (req monthRequest) toRecord(carID int64, year, month int) (core.MonthRecord, error) {
	rec := core.MonthRecord{
		CarID: carID,
		Year:  year,
		Month: month,
		Trips: req.Trips,
		Miles: req.Miles,
		Mode:  core.SplitMode(req.Mode),
	}
	if rec.Mode == 0 {
		rec.Mode = core.SplitEven
	}
	rec.SkiRackOwner = core.Party(req.SkiRackOwner)
	if rec.SkiRackOwner == "" {
		rec.SkiRackOwner = core.PartyManagement
	}

	fields := []struct {
		name  string
		value string
		dst   *int64
	}{
		{"rental_income", req.RentalIncome, &rec.RentalIncome},
		{"delivery_income", req.DeliveryIncome, &rec.DeliveryIncome},
		{"other_income", req.OtherIncome, &rec.OtherIncome},
		{"ski_rack_income", req.SkiRackIncome, &rec.SkiRackIncome},
		{"delivery_fuel", req.DeliveryFuel, &rec.DeliveryFuel},
		{"delivery_tolls", req.DeliveryTolls, &rec.DeliveryTolls},
		{"delivery_labor", req.DeliveryLabor, &rec.DeliveryLabor},
		{"maintenance", req.Maintenance, &rec.Maintenance},
		{"repairs", req.Repairs, &rec.Repairs},
		{"detailing", req.Detailing, &rec.Detailing},
		{"insurance_bill", req.InsuranceBill, &rec.InsuranceBill},
		{"registration_bill", req.RegistrationBill, &rec.RegistrationBill},
		{"parking", req.Parking, &rec.Parking},
		{"labor", req.Labor, &rec.Labor},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		cents, err := core.ParseDecimalToCents(f.value)
		if err != nil {
			return core.MonthRecord{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = cents
	}
	return rec, nil
}

func (s *Server) handleGetYearLedger(w http.ResponseWriter, r *http.Request) {
	carID, ok := urlParamInt64(r, "carID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	year, ok := urlParamInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}

	ledger, err := s.deps.Ledger.GetYear(r.Context(), carID, year)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, ledger)
}

func (s *Server) handleSaveMonth(w http.ResponseWriter, r *http.Request) {
	carID, ok := urlParamInt64(r, "carID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	year, ok := urlParamInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, ok := urlParamInt(r, "month")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid month")
		return
	}

	var req monthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := req.toRecord(carID, year, month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := s.deps.Ledger.SaveMonth(r.Context(), rec)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"car_id":  carID,
		"year":    year,
		"month":   month,
		"version": version,
	})
}

func (s *Server) handleGetEarnings(w http.ResponseWriter, r *http.Request) {
	carID, ok := urlParamInt64(r, "carID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	year, ok := urlParamInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	if _, err := s.deps.Repo.GetCar(r.Context(), carID); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	breakdown, err := s.deps.Earnings.ComputeYear(r.Context(), carID, year)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, breakdown)
}
