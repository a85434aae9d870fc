package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bcourtine/customweek-api/internal/config"
	"github.com/bcourtine/customweek-api/internal/database"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

const testAdminKey = "admin-test-key-32-characters-minimum-length"

// testEnv sets up a complete test environment with database, config, and router.
type testEnv struct {
	db     *database.DB
	cfg    *config.Config
	router http.Handler
}

// setupTest creates a fresh test environment.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	// Create in-memory database
	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(dbCfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// Run migrations (also seeds the preset rules)
	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	cfg := &config.Config{
		Port:         8080,
		Env:          config.EnvDevelopment,
		DatabasePath: ":memory:",
		AdminAPIKey:  testAdminKey,
		DefaultSpec:  "iso",
		LogLevel:     "error",
		LogFormat:    "text",
	}

	handlers := NewHandlers(db, cfg, logger)
	router := SetupRoutes(handlers, cfg, logger)

	t.Cleanup(func() {
		db.Close()
	})

	return &testEnv{
		db:     db,
		cfg:    cfg,
		router: router,
	}
}

// doRequest runs a request through the full router and returns the recorder.
func (env *testEnv) doRequest(t *testing.T, method, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of the standard response envelope.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v (body: %s)", err, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %+v", envelope.Error)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("unmarshal data: %v (data: %s)", err, envelope.Data)
	}
}

// decodeError unmarshals the error of a failed response and checks its code.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, wantStatus, rec.Body.String())
	}

	var envelope struct {
		Success bool       `json:"success"`
		Error   *ErrorInfo `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v (body: %s)", err, rec.Body.String())
	}
	if envelope.Success {
		t.Fatal("response marked successful, want error")
	}
	if envelope.Error == nil || envelope.Error.Code != wantCode {
		t.Fatalf("error = %+v, want code %q", envelope.Error, wantCode)
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Status string `json:"status"`
		Specs  int    `json:"specs"`
	}
	decodeData(t, rec, &data)

	if data.Status != "healthy" {
		t.Errorf("status = %q, want %q", data.Status, "healthy")
	}
	if data.Specs != 3 {
		t.Errorf("specs = %d, want 3 seeded presets", data.Specs)
	}

	// Every response carries a request ID
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header is missing")
	}
}

// =============================================================================
// Week calculation endpoints
// =============================================================================

func TestGetDateWeek_DefaultSpec(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/week/date/2017-01-02", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekPayload
	decodeData(t, rec, &data)

	if data.WeekYear != 2017 || data.WeekNumber != 1 {
		t.Errorf("week = (%d, %d), want (2017, 1)", data.WeekYear, data.WeekNumber)
	}
	if data.Spec.Name != "iso" {
		t.Errorf("spec name = %q, want %q", data.Spec.Name, "iso")
	}
	if data.WeekStart != "2017-01-02" {
		t.Errorf("week_start = %q, want %q", data.WeekStart, "2017-01-02")
	}
	if data.Label != "2017-W01" {
		t.Errorf("label = %q, want %q", data.Label, "2017-W01")
	}
	if data.DayNumber != 1 {
		t.Errorf("day_number = %d, want 1", data.DayNumber)
	}
}

func TestGetDateWeek_NamedSpec(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/week/date/2017-01-03?spec=french-theater", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekPayload
	decodeData(t, rec, &data)

	// A Tuesday in January still belongs to week 53 of 2016 under the
	// Wednesday-based rule.
	if data.WeekYear != 2016 || data.WeekNumber != 53 {
		t.Errorf("week = (%d, %d), want (2016, 53)", data.WeekYear, data.WeekNumber)
	}
	if data.WeekStart != "2016-12-28" {
		t.Errorf("week_start = %q, want %q", data.WeekStart, "2016-12-28")
	}
	if data.WeekEnd != "2017-01-03" {
		t.Errorf("week_end = %q, want %q", data.WeekEnd, "2017-01-03")
	}
	if data.DayNumber != 7 {
		t.Errorf("day_number = %d, want 7", data.DayNumber)
	}
}

func TestGetDateWeek_AdHocSpec(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet,
		"/api/v1/week/date/2017-01-03?first_day=wednesday&min_days=4", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekPayload
	decodeData(t, rec, &data)

	if data.WeekYear != 2016 || data.WeekNumber != 53 {
		t.Errorf("week = (%d, %d), want (2016, 53)", data.WeekYear, data.WeekNumber)
	}
	if data.Spec.Name != "" {
		t.Errorf("ad-hoc spec name = %q, want empty", data.Spec.Name)
	}
	if data.Spec.FirstDay != "wednesday" || data.Spec.MinDays != 4 {
		t.Errorf("spec = (%q, %d), want (wednesday, 4)", data.Spec.FirstDay, data.Spec.MinDays)
	}
}

func TestGetDateWeek_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"invalid date", "/api/v1/week/date/not-a-date", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown spec", "/api/v1/week/date/2017-01-02?spec=nope", http.StatusNotFound, "NOT_FOUND"},
		{"min_days too large", "/api/v1/week/date/2017-01-02?first_day=monday&min_days=8", http.StatusBadRequest, "INVALID_SPECIFICATION"},
		{"min_days zero", "/api/v1/week/date/2017-01-02?first_day=monday&min_days=0", http.StatusBadRequest, "INVALID_SPECIFICATION"},
		{"unknown weekday", "/api/v1/week/date/2017-01-02?first_day=someday&min_days=4", http.StatusBadRequest, "BAD_REQUEST"},
		{"half an ad-hoc rule", "/api/v1/week/date/2017-01-02?min_days=4", http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doRequest(t, http.MethodGet, tt.path, nil, "")
			decodeError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestGetTodayWeek(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/week/today", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekPayload
	decodeData(t, rec, &data)

	if data.WeekNumber < 1 || data.WeekNumber > 53 {
		t.Errorf("week_number = %d, out of 1..53", data.WeekNumber)
	}
	if data.Date == "" {
		t.Error("date is empty")
	}
}

func TestGetWeekStart(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/week/start/2016/53?spec=french-theater", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekPayload
	decodeData(t, rec, &data)

	if data.WeekStart != "2016-12-28" {
		t.Errorf("week_start = %q, want %q", data.WeekStart, "2016-12-28")
	}
	if data.WeekYear != 2016 || data.WeekNumber != 53 {
		t.Errorf("week = (%d, %d), want (2016, 53)", data.WeekYear, data.WeekNumber)
	}
}

func TestGetWeekStart_OutOfRange(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		path string
	}{
		{"week zero", "/api/v1/week/start/2019/0"},
		{"week 53 of a 52-week year", "/api/v1/week/start/2019/53"},
		{"week 99", "/api/v1/week/start/2016/99?spec=french-theater"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doRequest(t, http.MethodGet, tt.path, nil, "")
			decodeError(t, rec, http.StatusBadRequest, "OUT_OF_RANGE")
		})
	}
}

func TestGetWeekYear(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/week/year/2019?spec=french-theater", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data weekYearPayload
	decodeData(t, rec, &data)

	if data.FirstDay != "2019-01-02" {
		t.Errorf("first_day = %q, want %q", data.FirstDay, "2019-01-02")
	}
	if data.LastDay != "2019-12-31" {
		t.Errorf("last_day = %q, want %q", data.LastDay, "2019-12-31")
	}
	if data.NumWeeks != 52 {
		t.Errorf("num_weeks = %d, want 52", data.NumWeeks)
	}
}

func TestGetRangeWeeks(t *testing.T) {
	env := setupTest(t)

	// Four ISO weeks touch January 2017's first four Mondays
	rec := env.doRequest(t, http.MethodGet,
		"/api/v1/week/range?start=2017-01-02&end=2017-01-23", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data struct {
		Start string        `json:"start"`
		End   string        `json:"end"`
		Weeks []weekPayload `json:"weeks"`
	}
	decodeData(t, rec, &data)

	if len(data.Weeks) != 4 {
		t.Fatalf("got %d weeks, want 4", len(data.Weeks))
	}
	if data.Weeks[0].Label != "2017-W01" {
		t.Errorf("first week = %q, want %q", data.Weeks[0].Label, "2017-W01")
	}
	if data.Weeks[3].Label != "2017-W04" {
		t.Errorf("last week = %q, want %q", data.Weeks[3].Label, "2017-W04")
	}
}

func TestGetRangeWeeks_SpansYearBoundary(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet,
		"/api/v1/week/range?start=2016-12-26&end=2017-01-04&spec=french-theater", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var data struct {
		Weeks []weekPayload `json:"weeks"`
	}
	decodeData(t, rec, &data)

	// 2016-W52, 2016-W53, 2017-W01
	if len(data.Weeks) != 3 {
		t.Fatalf("got %d weeks, want 3", len(data.Weeks))
	}
	if data.Weeks[1].Label != "2016-W53" {
		t.Errorf("middle week = %q, want %q", data.Weeks[1].Label, "2016-W53")
	}
	if data.Weeks[2].Label != "2017-W01" {
		t.Errorf("last week = %q, want %q", data.Weeks[2].Label, "2017-W01")
	}
}

func TestGetRangeWeeks_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing parameters", "/api/v1/week/range"},
		{"start after end", "/api/v1/week/range?start=2017-02-01&end=2017-01-01"},
		{"range too wide", "/api/v1/week/range?start=2015-01-01&end=2017-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doRequest(t, http.MethodGet, tt.path, nil, "")
			decodeError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

// =============================================================================
// Specification registry endpoints
// =============================================================================

func TestListSpecs(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/specs", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Specs []database.WeekSpecRecord `json:"specs"`
	}
	decodeData(t, rec, &data)

	if len(data.Specs) != 3 {
		t.Fatalf("got %d specs, want 3 presets", len(data.Specs))
	}
}

func TestGetSpecEndpoint(t *testing.T) {
	env := setupTest(t)

	rec := env.doRequest(t, http.MethodGet, "/api/v1/specs/french-theater", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data database.WeekSpecRecord
	decodeData(t, rec, &data)

	if data.FirstDay != int(time.Wednesday) || data.MinDays != 4 {
		t.Errorf("spec = (first_day %d, min_days %d), want (3, 4)", data.FirstDay, data.MinDays)
	}

	rec = env.doRequest(t, http.MethodGet, "/api/v1/specs/unknown", nil, "")
	decodeError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateSpecEndpoint(t *testing.T) {
	env := setupTest(t)

	body := map[string]interface{}{
		"name":        "retail",
		"first_day":   "sunday",
		"min_days":    4,
		"description": "4-5-4 retail calendar weeks",
	}

	rec := env.doRequest(t, http.MethodPost, "/api/v1/specs", body, testAdminKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	var created database.WeekSpecRecord
	decodeData(t, rec, &created)
	if created.ID == 0 {
		t.Error("created spec has no ID")
	}

	// And it is usable for calculation right away
	rec = env.doRequest(t, http.MethodGet, "/api/v1/week/date/2017-01-01?spec=retail", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("calculation with new spec: status = %d, want 200", rec.Code)
	}
}

func TestCreateSpecEndpoint_Validation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid name",
			body:       map[string]interface{}{"name": "Not A Slug", "first_day": "monday", "min_days": 4},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "unknown weekday",
			body:       map[string]interface{}{"name": "x1", "first_day": "blursday", "min_days": 4},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "min_days out of range",
			body:       map[string]interface{}{"name": "x2", "first_day": "monday", "min_days": 8},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SPECIFICATION",
		},
		{
			name:       "duplicate name",
			body:       map[string]interface{}{"name": "iso", "first_day": "monday", "min_days": 4},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doRequest(t, http.MethodPost, "/api/v1/specs", tt.body, testAdminKey)
			decodeError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestCreateSpecEndpoint_RequiresAdminKey(t *testing.T) {
	env := setupTest(t)

	body := map[string]interface{}{"name": "x", "first_day": "monday", "min_days": 4}

	rec := env.doRequest(t, http.MethodPost, "/api/v1/specs", body, "")
	decodeError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	rec = env.doRequest(t, http.MethodPost, "/api/v1/specs", body, "wrong-key")
	decodeError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestDeleteSpecEndpoint(t *testing.T) {
	env := setupTest(t)

	// Create then delete
	body := map[string]interface{}{"name": "temp", "first_day": "friday", "min_days": 1}
	rec := env.doRequest(t, http.MethodPost, "/api/v1/specs", body, testAdminKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", rec.Code)
	}

	rec = env.doRequest(t, http.MethodDelete, "/api/v1/specs/temp", nil, testAdminKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	rec = env.doRequest(t, http.MethodGet, "/api/v1/specs/temp", nil, "")
	decodeError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteSpecEndpoint_Errors(t *testing.T) {
	env := setupTest(t)

	// Presets are protected
	rec := env.doRequest(t, http.MethodDelete, "/api/v1/specs/iso", nil, testAdminKey)
	decodeError(t, rec, http.StatusForbidden, "PRESET_IMMUTABLE")

	// Unknown name
	rec = env.doRequest(t, http.MethodDelete, "/api/v1/specs/ghost", nil, testAdminKey)
	decodeError(t, rec, http.StatusNotFound, "NOT_FOUND")

	// No key
	rec = env.doRequest(t, http.MethodDelete, "/api/v1/specs/iso", nil, "")
	decodeError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}
