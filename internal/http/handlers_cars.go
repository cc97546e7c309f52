package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleetdesk/internal/core"
)

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	var clientID int64
	if v := r.URL.Query().Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid client_id filter")
			return
		}
		clientID = id
	}
	status := core.CarStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, core.ErrInvalidStatus.Error())
		return
	}

	cars, err := s.deps.Repo.ListCars(r.Context(), clientID, status)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if cars == nil {
		cars = []core.Car{}
	}
	respondData(w, http.StatusOK, cars)
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	var c core.Car
	if !decodeBody(w, r, &c) {
		return
	}
	c.VIN = strings.ToUpper(strings.TrimSpace(c.VIN))
	if c.Status == "" {
		c.Status = core.StatusAvailable
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.deps.Repo.GetClient(r.Context(), c.ClientID); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	id, err := s.deps.Repo.CreateCar(r.Context(), c)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			respondError(w, http.StatusConflict, "a car with this VIN already exists")
			return
		}
		respondDomainError(r.Context(), w, err)
		return
	}
	c.ID = id
	respondData(w, http.StatusCreated, c)
}

func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	c, err := s.deps.Repo.GetCar(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	var c core.Car
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = id
	c.VIN = strings.ToUpper(strings.TrimSpace(c.VIN))
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Repo.UpdateCar(r.Context(), c); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			respondError(w, http.StatusConflict, "a car with this VIN already exists")
			return
		}
		respondDomainError(r.Context(), w, err)
		return
	}
	respondMessage(w, http.StatusOK, "car updated")
}

// --- Recurring charges ---

// recurringChargeRequest takes the amount as a decimal string so the
// client does not deal in cents.
type recurringChargeRequest struct {
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

func (s *Server) handleListRecurringCharges(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	charges, err := s.deps.Repo.ListRecurringCharges(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if charges == nil {
		charges = []core.RecurringCharge{}
	}
	respondData(w, http.StatusOK, charges)
}

func (s *Server) handleAddRecurringCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	if _, err := s.deps.Repo.GetCar(r.Context(), id); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	var req recurringChargeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount: "+err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD")
		return
	}
	var end time.Time
	if req.EndDate != "" {
		end, err = time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid end_date, want YYYY-MM-DD")
			return
		}
	}

	charge := core.RecurringCharge{
		CarID:     id,
		Category:  req.Category,
		Amount:    core.Money{Cents: cents},
		Frequency: core.ChargeFrequency(req.Frequency),
		StartDate: start,
		EndDate:   end,
	}
	if err := charge.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	chargeID, err := s.deps.Repo.AddRecurringCharge(r.Context(), charge)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	charge.ID = chargeID
	respondData(w, http.StatusCreated, charge)
}
