package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdesk/internal/services"
	"fleetdesk/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ledgerSvc := services.NewLedgerService(repo, nil)
	earningsSvc := services.NewEarningsService(repo)
	ledgerSvc.OnWrite(earningsSvc.InvalidateCar)
	totalsSvc := services.NewTotalsService(repo, earningsSvc)

	srv := NewServer("0", Deps{
		Repo:           repo,
		Ledger:         ledgerSvc,
		Earnings:       earningsSvc,
		Totals:         totalsSvc,
		MediaDir:       t.TempDir(),
		MaxUploadBytes: 1 << 20,
		CORSOrigin:     "*",
	})
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder, key string) any {
	t.Helper()
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %s", rec.Body.String())
	return data[key]
}

func createTestClient(t *testing.T, srv *Server) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/clients",
		`{"name":"Maria Rossi","email":"maria@example.com","active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(dataField(t, rec, "id").(float64))
}

func createTestCar(t *testing.T, srv *Server, clientID int64, vin string) int64 {
	t.Helper()
	body := fmt.Sprintf(
		`{"client_id":%d,"vin":%q,"make":"Tesla","model":"Model 3","year":2022,"license_plate":"AB123CD"}`,
		clientID, vin)
	rec := doJSON(t, srv, http.MethodPost, "/api/cars", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(dataField(t, rec, "id").(float64))
}

func TestClientEndpoints(t *testing.T) {
	srv := newTestServer(t)

	id := createTestClient(t, srv)

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/clients/%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maria Rossi", dataField(t, rec, "name"))

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/clients/%d", id),
		`{"name":"Maria Bianchi","email":"maria@example.com","active":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/clients?q=Bianchi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/clients/%d/login", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/clients/%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, dataField(t, rec, "last_login"))
}

func TestClientValidationAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/clients", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/clients/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/clients", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOnboardingEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestClient(t, srv)

	path := fmt.Sprintf("/api/clients/%d/onboarding", id)

	rec := doJSON(t, srv, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, path,
		`{"first_name":"Maria","last_name":"Rossi","vin":"1HGCM82633A004352","car_make":"Tesla","car_year":2022,"submitted":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, dataField(t, rec, "submitted"))
	assert.NotNil(t, dataField(t, rec, "submitted_at"))

	// Partial VINs are rejected once present.
	rec = doJSON(t, srv, http.MethodPut, path,
		`{"first_name":"Maria","last_name":"Rossi","vin":"1HG"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCarEndpoints(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/cars",
		fmt.Sprintf(`{"client_id":%d,"vin":"SHORT","make":"Tesla","model":"3","year":2022}`, clientID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	// Same VIN again conflicts.
	body := fmt.Sprintf(
		`{"client_id":%d,"vin":"1HGCM82633A004352","make":"Tesla","model":"Y","year":2023}`, clientID)
	rec = doJSON(t, srv, http.MethodPost, "/api/cars", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/cars/%d", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1HGCM82633A004352", dataField(t, rec, "vin"))

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/cars?client_id=%d", clientID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestLedgerAndEarningsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)
	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	path := fmt.Sprintf("/api/income-expense/%d/2024/3", carID)
	rec := doJSON(t, srv, http.MethodPut, path,
		`{"rental_income":"1000,00","maintenance":"200.50","mode":50,"ski_rack_owner":"management"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), dataField(t, rec, "version"))

	// Saving again bumps the version.
	rec = doJSON(t, srv, http.MethodPut, path,
		`{"rental_income":"1100,00","mode":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), dataField(t, rec, "version"))

	rec = doJSON(t, srv, http.MethodPut, path, `{"rental_income":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/income-expense/%d/2024/13", carID), `{"mode":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/income-expense/%d/1800/5", carID), `{"mode":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/income-expense/999/2024/3", `{"mode":50}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/income-expense/%d/2024", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/earnings/%d/2024", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	months, ok := dataField(t, rec, "months").([]any)
	require.True(t, ok)
	assert.Len(t, months, 12)
	march := months[2].(map[string]any)
	// 110000 cents income, even split.
	assert.Equal(t, float64(55000), march["payout"])
}

// The carry-over recurrence walks backwards month by month, so a year
// far outside the ledger range must be rejected before it runs.
func TestEarningsRejectsOutOfRangeYear(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)
	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	for _, path := range []string{
		fmt.Sprintf("/api/earnings/%d/5000000", carID),
		fmt.Sprintf("/api/earnings/%d/2018", carID),
		fmt.Sprintf("/api/reports/earnings/%d/5000000", carID),
		fmt.Sprintf("/api/clients/%d/totals?year=5000000", clientID),
	} {
		rec := doJSON(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestClientTotalsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)
	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	rec := doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/income-expense/%d/2024/1", carID),
		`{"rental_income":"500,00","mode":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/clients/%d/totals?year=2024", clientID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(25000), dataField(t, rec, "owner_payout_total"))

	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/clients/%d/totals", clientID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecurringChargeEndpoints(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)
	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/cars/%d/recurring", carID),
		`{"category":"parking","amount":"150,00","frequency":"monthly","start_date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/cars/%d/recurring", carID),
		`{"category":"rental_income","amount":"150,00","frequency":"monthly","start_date":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/cars/%d/recurring", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestUploadAndServeMedia(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "signed contract.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/clients/%d/contracts", clientID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	storedName, ok := dataField(t, rec, "stored_name").(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(storedName, ".pdf"))

	rec2 := doJSON(t, srv, http.MethodGet, "/api/media/"+storedName, "")
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "%PDF-1.4 fake", rec2.Body.String())

	// Uploads with a disallowed extension are rejected.
	var buf2 bytes.Buffer
	mw2 := multipart.NewWriter(&buf2)
	part2, err := mw2.CreateFormFile("file", "evil.exe")
	require.NoError(t, err)
	_, err = part2.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw2.Close())

	req2 := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/clients/%d/contracts", clientID), &buf2)
	req2.Header.Set("Content-Type", mw2.FormDataContentType())
	rec3 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec3, req2)
	assert.Equal(t, http.StatusBadRequest, rec3.Code)

	rec4 := doJSON(t, srv, http.MethodGet, "/api/media/nope.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec4.Code)
}

func TestEarningsReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	clientID := createTestClient(t, srv)
	carID := createTestCar(t, srv, clientID, "1HGCM82633A004352")

	rec := doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/income-expense/%d/2024/1", carID),
		`{"rental_income":"500,00","mode":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/reports/earnings/%d/2024", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.7:1234", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.1:1234", "203.0.113.9", "203.0.113.9"},
		{"untrusted peer header ignored", "203.0.113.7:1234", "1.2.3.4", "203.0.113.7"},
		{"xff chain takes first", "127.0.0.1:1234", "198.51.100.2, 10.0.0.1", "198.51.100.2"},
		{"garbage header falls back", "10.0.0.1:1234", "not-an-ip", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}
