package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/export"
	"stealthcompany.com/clinic/internal/redisstore/redistest"
)

type testAPI struct {
	handler http.Handler
	redis   *miniredis.Miniredis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, mr := redistest.NewStore(t)
	h := NewHandlers(store, dal.NewModels(store, time.Second))
	return &testAPI{handler: SetupRoutes(h, []string{"*"}), redis: mr}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	rr := a.do(t, "POST", "/doctors", map[string]string{
		"first_name": "john", "last_name": "smith", "email": "smith@clinic.test",
		"address": "1 Main St", "phone": "555-0100",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(t, "POST", "/patients", map[string]interface{}{
		"first_name": "ann", "last_name": "lee", "age": 42, "gender": "F", "doctor_id": "drSmith",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func riskScoreBody(score float64) map[string]interface{} {
	return map[string]interface{}{
		"riskScore": score, "riskLevel": "low", "familyHistory": "none", "assessmentDate": "2024-03-01",
	}
}

func TestIndexAndHealth(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "clinic api is running!", rr.Body.String())

	rr = a.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])

	a.redis.SetError("server down at " + a.redis.Addr())
	rr = a.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), a.redis.Addr())
	assert.NotContains(t, rr.Body.String(), "server down")
	body := decodeBody(t, rr)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "document store unreachable", body["error"])
}

func TestClinicScenarioOverHTTP(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, "POST", "/doctors", map[string]string{
		"first_name": "john", "last_name": "smith", "email": "smith@clinic.test",
		"address": "1 Main St", "phone": "555-0100",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "drSmith", decodeBody(t, rr)["id"])

	rr = a.do(t, "POST", "/patients", map[string]interface{}{
		"first_name": "ann", "last_name": "lee", "age": 42, "gender": "F", "doctor_id": "drSmith",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "AnnLee", decodeBody(t, rr)["id"])

	rr = a.do(t, "GET", "/patients/AnnLee", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "drSmith", decodeBody(t, rr)["doctorId"])

	for _, want := range []string{"1", "2", "3"} {
		rr = a.do(t, "POST", "/patients/AnnLee/riskScores", riskScoreBody(5))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, want, decodeBody(t, rr)["riskScoreId"])
	}

	rr = a.do(t, "GET", "/patients/AnnLee/riskScores/latest", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "AnnLee", body["patientId"])
	assert.Equal(t, "3", body["riskScoreId"])
	assert.Equal(t, "low", body["data"].(map[string]interface{})["riskLevel"])

	rr = a.do(t, "GET", "/patients/AnnLee/riskScores", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["riskScores"], 3)

	rr = a.do(t, "POST", "/reports", map[string]string{
		"patient_first": "ann", "patient_last": "lee", "report_type": "mri",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "AnnLeeMRI", decodeBody(t, rr)["id"])

	rr = a.do(t, "GET", "/reports/AnnLeeMRI", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "AnnLee", decodeBody(t, rr)["patientId"])

	rr = a.do(t, "GET", "/reports/by_patient/ann/lee", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reports := decodeBody(t, rr)
	require.Contains(t, reports, "AnnLeeMRI")
	assert.Equal(t, "AnnLee", reports["AnnLeeMRI"].(map[string]interface{})["patientId"])

	rr = a.do(t, "GET", "/patients/by_doctor/drSmith", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	patients := decodeBody(t, rr)
	require.Contains(t, patients, "AnnLee")
	assert.Equal(t, "drSmith", patients["AnnLee"].(map[string]interface{})["doctorId"])
}

func TestStatusCodes(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
		expectedError  string
	}{
		{name: "unknown doctor", method: "GET", path: "/doctors/drNobody", expectedStatus: http.StatusNotFound, expectedError: "doctor not found"},
		{name: "unknown patient", method: "GET", path: "/patients/Nobody", expectedStatus: http.StatusNotFound, expectedError: "patient not found"},
		{name: "unknown report", method: "GET", path: "/reports/NobodyMRI", expectedStatus: http.StatusNotFound, expectedError: "report not found"},
		{name: "risk score for unknown patient", method: "POST", path: "/patients/Nobody/riskScores", body: riskScoreBody(1), expectedStatus: http.StatusNotFound, expectedError: "patient not found"},
		{name: "latest without scores", method: "GET", path: "/patients/AnnLee/riskScores/latest", expectedStatus: http.StatusNotFound, expectedError: "no risk scores found"},
		{name: "malformed json", method: "POST", path: "/doctors", body: "{", expectedStatus: http.StatusBadRequest, expectedError: "Invalid JSON format"},
		{name: "doctor missing fields", method: "POST", path: "/doctors", body: map[string]string{"last_name": "x"}, expectedStatus: http.StatusBadRequest},
		{name: "by_email without email", method: "POST", path: "/doctors/by_email", body: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedError: "Email is required"},
		{name: "by_email unknown", method: "POST", path: "/doctors/by_email", body: map[string]string{"email": "x@y"}, expectedStatus: http.StatusNotFound, expectedError: "Doctor not found"},
		{name: "update doctor no fields", method: "PUT", path: "/doctors/drSmith", body: map[string]string{"id": "x"}, expectedStatus: http.StatusBadRequest, expectedError: "No valid fields provided"},
		{name: "update unknown doctor", method: "PUT", path: "/doctors/drNobody", body: map[string]string{"phone": "1"}, expectedStatus: http.StatusNotFound},
		{name: "delete unknown patient", method: "DELETE", path: "/patients/Nobody", expectedStatus: http.StatusNotFound},
		{name: "bad role", method: "POST", path: "/accounts", body: map[string]string{"email": "a@b", "password": "p", "role": "nurse"}, expectedStatus: http.StatusBadRequest, expectedError: "role must be doctor, patient or admin"},
		{name: "empty support ticket", method: "POST", path: "/supportTickets", body: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedError: "Support message is required"},
		{name: "review string rating", method: "POST", path: "/reviews", body: map[string]interface{}{"rating": "5", "review": "ok"}, expectedStatus: http.StatusBadRequest, expectedError: "rating must be a number"},
		{name: "review out of range", method: "POST", path: "/reviews", body: map[string]interface{}{"rating": 9, "review": "ok"}, expectedStatus: http.StatusBadRequest, expectedError: "rating must be between 1 and 5"},
		{name: "delete unknown review", method: "DELETE", path: "/reviews/nope", expectedStatus: http.StatusNotFound, expectedError: "Review not found"},
		{name: "delete unknown ticket", method: "DELETE", path: "/supportTickets/nope", expectedStatus: http.StatusNotFound, expectedError: "Support ticket not found"},
		{name: "export unknown doctor", method: "GET", path: "/export/doctors/drNobody/patients", expectedStatus: http.StatusNotFound, expectedError: "Doctor not found"},
		{name: "export bad format", method: "GET", path: "/export/doctors/drSmith/patients?format=pdf", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())

			body := decodeBody(t, rr)
			assert.Contains(t, body, "error")
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			}
		})
	}
}

func TestDoctorEndpoints(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t)

	rr := a.do(t, "POST", "/doctors/by_email", map[string]string{"email": "smith@clinic.test"})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "drSmith", body["id"])
	assert.Equal(t, "john", body["firstName"])

	rr = a.do(t, "PUT", "/doctors/drSmith", map[string]string{"phone": "555-0199", "address": "2 Main St"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{"address", "phone"}, decodeBody(t, rr)["updatedFields"])

	rr = a.do(t, "GET", "/doctors", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	doctors := decodeBody(t, rr)
	assert.Equal(t, "555-0199", doctors["drSmith"].(map[string]interface{})["phone"])

	rr = a.do(t, "DELETE", "/doctors/drSmith", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = a.do(t, "GET", "/doctors/drSmith", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPatientEndpoints(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t)

	rr := a.do(t, "PUT", "/patients/AnnLee", map[string]interface{}{"notes": "allergic", "doctor_id": "drJones"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []interface{}{"doctorId", "notes"}, decodeBody(t, rr)["updatedFields"])

	rr = a.do(t, "GET", "/patients/AnnLee", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "drJones", decodeBody(t, rr)["doctorId"])

	rr = a.do(t, "GET", "/patients/AnnLee/paid_status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["paid"])

	rr = a.do(t, "POST", "/patients/AnnLee/mark_paid", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Patient successfully paid", decodeBody(t, rr)["message"])

	rr = a.do(t, "POST", "/patients/AnnLee/mark_paid", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Patient already paid", decodeBody(t, rr)["message"])

	rr = a.do(t, "GET", "/patients/AnnLee/paid_status", nil)
	assert.Equal(t, true, decodeBody(t, rr)["paid"])

	rr = a.do(t, "POST", "/patients/AnnLee/riskScores", riskScoreBody(3))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = a.do(t, "DELETE", "/patients/AnnLee", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(t, "GET", "/patients/AnnLee/riskScores/latest", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAccountEndpoints(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, "POST", "/accounts", map[string]string{"email": "a@clinic.test", "password": "pw", "role": "admin"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, decodeBody(t, rr)["id"])

	rr = a.do(t, "POST", "/accounts", map[string]string{"email": "a@clinic.test", "password": "pw2", "role": "doctor"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "account already exists", decodeBody(t, rr)["error"])

	tests := []struct {
		name           string
		email          string
		password       string
		expectedStatus int
	}{
		{name: "valid credentials", email: "a@clinic.test", password: "pw", expectedStatus: http.StatusOK},
		{name: "wrong password", email: "a@clinic.test", password: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "unknown email", email: "b@clinic.test", password: "pw", expectedStatus: http.StatusUnauthorized},
	}

	var failures []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(t, "POST", "/accounts/login", map[string]string{"email": tt.email, "password": tt.password})
			assert.Equal(t, tt.expectedStatus, rr.Code)

			body := decodeBody(t, rr)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, true, body["valid"])
				assert.Equal(t, "admin", body["role"])
				return
			}
			failures = append(failures, rr.Body.String())
		})
	}

	require.Len(t, failures, 2)
	assert.Equal(t, failures[0], failures[1])
}

func TestFeedbackEndpoints(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, "POST", "/supportTickets", map[string]string{"supportIssue": "cannot log in"})
	require.Equal(t, http.StatusCreated, rr.Code)
	ticketID := decodeBody(t, rr)["ticketId"].(string)

	rr = a.do(t, "GET", "/supportTickets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decodeBody(t, rr), ticketID)

	rr = a.do(t, "DELETE", "/supportTickets/"+ticketID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(t, "POST", "/reviews", map[string]interface{}{"rating": 5, "review": "great"})
	require.Equal(t, http.StatusCreated, rr.Code)
	reviewID := decodeBody(t, rr)["reviewId"].(string)

	rr = a.do(t, "GET", "/reviews", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reviews := decodeBody(t, rr)
	assert.Equal(t, float64(5), reviews[reviewID].(map[string]interface{})["rating"])

	rr = a.do(t, "DELETE", "/reviews/"+reviewID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestExportEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t)

	for i := 0; i < 2; i++ {
		rr := a.do(t, "POST", "/patients/AnnLee/riskScores", riskScoreBody(float64(i+1)))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := a.do(t, "GET", "/export/doctors/drSmith/patients", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=drSmith_patients_export.csv", rr.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "1", records[1][6])
	assert.Equal(t, "2", records[2][6])

	rr = a.do(t, "GET", "/export/doctors/drSmith/patients?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment; filename=drSmith_patients_export.xlsx", rr.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest("OPTIONS", "/doctors", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
