package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetdesk/internal/core"
)

func urlParamInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return v, err == nil && v > 0
}

func urlParamInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	return v, err == nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	activeOnly := r.URL.Query().Get("active") == "true"

	clients, err := s.deps.Repo.ListClients(r.Context(), query, activeOnly)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if clients == nil {
		clients = []core.Client{}
	}
	respondData(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if !decodeBody(w, r, &c) {
		return
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.deps.Repo.CreateClient(r.Context(), c)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	c.ID = id
	respondData(w, http.StatusCreated, c)
}

// clientDetail is the aggregated client view: the record plus its
// cars, banking details and uploaded contracts.
type clientDetail struct {
	core.Client
	Cars      []core.Car           `json:"cars"`
	Banking   []core.BankingRecord `json:"banking"`
	Contracts []core.StoredFile    `json:"contracts"`
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	c, err := s.deps.Repo.GetClient(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	detail := clientDetail{Client: c, Cars: []core.Car{},
		Banking: []core.BankingRecord{}, Contracts: []core.StoredFile{}}
	cars, err := s.deps.Repo.ListCars(r.Context(), id, "")
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if cars != nil {
		detail.Cars = cars
	}
	banking, err := s.deps.Repo.ListBankingRecords(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if banking != nil {
		detail.Banking = banking
	}
	contracts, err := s.deps.Repo.ListStoredFiles(r.Context(), id, core.FileContract)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if contracts != nil {
		detail.Contracts = contracts
	}
	respondData(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	var c core.Client
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = id
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Repo.UpdateClient(r.Context(), c); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondMessage(w, http.StatusOK, "client updated")
}

// handleTouchLogin records a staff-portal login for the client.
func (s *Server) handleTouchLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if err := s.deps.Repo.TouchClientLogin(r.Context(), id); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondMessage(w, http.StatusOK, "login recorded")
}

// --- Onboarding ---

func (s *Server) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	o, err := s.deps.Repo.GetOnboarding(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

func (s *Server) handleSaveOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if _, err := s.deps.Repo.GetClient(r.Context(), id); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	var o core.Onboarding
	if !decodeBody(w, r, &o) {
		return
	}
	o.ClientID = id
	if o.Submitted && o.SubmittedAt.IsZero() {
		o.SubmittedAt = time.Now().UTC()
	}
	if err := o.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Repo.UpsertOnboarding(r.Context(), o); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

// --- Banking ---

func (s *Server) handleListBanking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	records, err := s.deps.Repo.ListBankingRecords(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if records == nil {
		records = []core.BankingRecord{}
	}
	respondData(w, http.StatusOK, records)
}

func (s *Server) handleAddBanking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if _, err := s.deps.Repo.GetClient(r.Context(), id); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	var b core.BankingRecord
	if !decodeBody(w, r, &b) {
		return
	}
	b.ClientID = id
	if err := b.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	recordID, err := s.deps.Repo.AddBankingRecord(r.Context(), b)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	b.ID = recordID
	respondData(w, http.StatusCreated, b)
}

// --- Totals ---

func (s *Server) handleClientTotals(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2019 {
		respondError(w, http.StatusBadRequest, "invalid or missing year")
		return
	}

	report, err := s.deps.Totals.ClientTotals(r.Context(), id, year)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, report)
}
