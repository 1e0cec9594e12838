package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/scoring"
)

// ==========================
// Test Helper Functions
// ==========================

var testOrigins = []string{"http://localhost", "http://localhost:5173"}

func newTestServer(t *testing.T, ready func(context.Context) error) http.Handler {
	t.Helper()
	engine, err := scoring.NewEngine(artifacttest.Bundle(t), scoring.Options{Parallel: true}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return NewServer(Options{
		Engine:         engine,
		AllowedOrigins: testOrigins,
		Ready:          ready,
		Logger:         logger.NewTestLogger(t),
	}).Routes()
}

func post(t *testing.T, h http.Handler, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

// ==========================
// Submit Tests
// ==========================

func TestSubmit_GoodApplicant(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := post(t, h, artifacttest.ApplicantMap(artifacttest.GoodApplicant()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "APP-001", body["name"])
	assert.Equal(t, "#3498db", body["colour"])

	decision := body["final_decision"].(map[string]interface{})
	assert.Equal(t, true, decision["approved"])
	assert.Equal(t, float64(702), decision["credit_score"])
	assert.Equal(t, 0.6, decision["threshold"])
}

func TestSubmit_FormEncodedStrings(t *testing.T) {
	h := newTestServer(t, nil)

	form := map[string]string{}
	for k, v := range artifacttest.ApplicantMap(artifacttest.BadApplicant()) {
		form[k] = fmt.Sprint(v)
	}

	rec, body := post(t, h, form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Very Poor", body["final_decision"].(map[string]interface{})["risk_category"])
}

func TestSubmit_ValidationFailures(t *testing.T) {
	missingAge := artifacttest.ApplicantMap(artifacttest.GoodApplicant())
	delete(missingAge, "age")

	unknownRegion := artifacttest.ApplicantMap(artifacttest.GoodApplicant())
	unknownRegion["region_code"] = 9

	tests := []struct {
		name      string
		body      interface{}
		wantError string
	}{
		{"missing field", missingAge, "Missing required field: age"},
		{"unknown code", unknownRegion, "Unknown category code: region_code: 9"},
		{"malformed json", `{"age": `, "request body must be a JSON object"},
		{"array body", `[1, 2]`, "request body must be a JSON object"},
		{"null body", `null`, "applicant is required"},
	}

	h := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Len(t, body, 3)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.wantError)
			assert.IsType(t, map[string]interface{}{}, body["applicant_profile"])
		})
	}
}

func TestSubmit_EchoesRawInputOnFailure(t *testing.T) {
	raw := artifacttest.ApplicantMap(artifacttest.GoodApplicant())
	delete(raw, "consent_given")

	_, body := post(t, newTestServer(t, nil), raw)
	profile := body["applicant_profile"].(map[string]interface{})
	assert.Equal(t, "APP-001", profile["applicant_id"])
	assert.Equal(t, float64(35), profile["age"])
}

func TestSubmit_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// Middleware Tests
// ==========================

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("other origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://anything.example")
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(rec, req)
		assert.Equal(t, "http://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

// ==========================
// Health Endpoint Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		ready      func(context.Context) error
		wantStatus int
		wantBody   string
	}{
		{"health", "/health", nil, http.StatusOK, "healthy"},
		{"ready", "/ready", nil, http.StatusOK, "ready"},
		{
			"not ready",
			"/ready",
			func(context.Context) error { return fmt.Errorf("zeebe health check failed") },
			http.StatusServiceUnavailable,
			"not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			newTestServer(t, tt.ready).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	post(t, h, artifacttest.ApplicantMap(artifacttest.GoodApplicant()))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "credit_assessments_total")
}
