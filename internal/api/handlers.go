package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bcourtine/customweek-api/internal/config"
	"github.com/bcourtine/customweek-api/internal/database"
	"github.com/bcourtine/customweek-api/internal/logger"
	"github.com/bcourtine/customweek-api/internal/week"
)

// dateLayout is the wire format for all dates.
const dateLayout = "2006-01-02"

// maxRangeDays bounds the /week/range endpoint.
const maxRangeDays = 366

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db     *database.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, log *slog.Logger) *Handlers {
	return &Handlers{
		db:     db,
		cfg:    cfg,
		logger: log,
	}
}

// =============================================================================
// Payloads
// =============================================================================

// specPayload describes the week rule a result was computed under.
type specPayload struct {
	Name     string `json:"name,omitempty"` // empty for ad-hoc rules
	FirstDay string `json:"first_day"`
	MinDays  int    `json:"min_days"`
}

// weekPayload is the response for week classification endpoints.
type weekPayload struct {
	Spec       specPayload `json:"spec"`
	Date       string      `json:"date,omitempty"`
	DayNumber  int         `json:"day_number,omitempty"` // 1..7 within its week
	WeekYear   int         `json:"week_year"`
	WeekNumber int         `json:"week_number"`
	WeekStart  string      `json:"week_start"`
	WeekEnd    string      `json:"week_end"`
	Label      string      `json:"label"` // "YYYY-Www"
}

// weekYearPayload is the response for the week-year summary endpoint.
type weekYearPayload struct {
	Spec     specPayload `json:"spec"`
	WeekYear int         `json:"week_year"`
	FirstDay string      `json:"first_day"`
	LastDay  string      `json:"last_day"`
	NumWeeks int         `json:"num_weeks"`
}

func specToPayload(name string, spec week.Specification) specPayload {
	return specPayload{
		Name:     name,
		FirstDay: strings.ToLower(spec.FirstDay().String()),
		MinDays:  spec.MinDaysInFirstWeek(),
	}
}

func weekToPayload(sp specPayload, w week.CustomWeek) weekPayload {
	return weekPayload{
		Spec:       sp,
		WeekYear:   w.Year(),
		WeekNumber: w.Week(),
		WeekStart:  w.WeekStart().Format(dateLayout),
		WeekEnd:    w.WeekStart().AddDate(0, 0, 6).Format(dateLayout),
		Label:      w.String(),
	}
}

// =============================================================================
// Spec resolution
// =============================================================================

// weekdayNames maps lowercase weekday names to the stdlib enumeration.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// resolveSpec determines the week rule for a request.
//
// An ad-hoc rule is built when first_day/min_days query parameters are
// present; otherwise the spec query parameter (or the configured default)
// names a registry entry. On failure it writes the error response and
// returns ok=false.
func (h *Handlers) resolveSpec(w http.ResponseWriter, r *http.Request) (week.Specification, specPayload, bool) {
	q := r.URL.Query()
	firstDayParam := q.Get("first_day")
	minDaysParam := q.Get("min_days")

	if firstDayParam != "" || minDaysParam != "" {
		if firstDayParam == "" || minDaysParam == "" {
			WriteBadRequest(w, "Ad-hoc rules require both first_day and min_days parameters")
			return week.Specification{}, specPayload{}, false
		}

		firstDay, ok := weekdayNames[strings.ToLower(firstDayParam)]
		if !ok {
			WriteBadRequest(w, fmt.Sprintf("Unknown weekday: %s", firstDayParam))
			return week.Specification{}, specPayload{}, false
		}

		minDays, err := strconv.Atoi(minDaysParam)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid min_days: %s", minDaysParam))
			return week.Specification{}, specPayload{}, false
		}

		spec, err := week.New(firstDay, minDays)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_SPECIFICATION")
			return week.Specification{}, specPayload{}, false
		}

		return spec, specToPayload("", spec), true
	}

	name := q.Get("spec")
	if name == "" {
		name = h.cfg.DefaultSpec
	}

	rec, err := h.db.GetSpec(r.Context(), name)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Week specification %q not found", name))
			return week.Specification{}, specPayload{}, false
		}
		logger.FromContext(r.Context()).Error("failed to load spec",
			slog.String("spec", name), slog.Any("error", err))
		WriteInternalError(w, "Failed to load week specification")
		return week.Specification{}, specPayload{}, false
	}

	spec, err := rec.Specification()
	if err != nil {
		logger.FromContext(r.Context()).Error("stored spec is invalid",
			slog.String("spec", name), slog.Any("error", err))
		WriteInternalError(w, "Stored week specification is invalid")
		return week.Specification{}, specPayload{}, false
	}

	return spec, specToPayload(name, spec), true
}

// =============================================================================
// Health
// =============================================================================

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	specs, err := h.db.CountSpecs(ctx)
	if err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"status": "healthy",
		"specs":  specs,
	})
}

// =============================================================================
// Week calculation
// =============================================================================

// GetTodayWeek handles GET /api/v1/week/today
func (h *Handlers) GetTodayWeek(w http.ResponseWriter, r *http.Request) {
	spec, sp, ok := h.resolveSpec(w, r)
	if !ok {
		return
	}

	h.writeWeekForDate(w, spec, sp, time.Now().UTC())
}

// GetDateWeek handles GET /api/v1/week/date/{date}
func (h *Handlers) GetDateWeek(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	spec, sp, ok := h.resolveSpec(w, r)
	if !ok {
		return
	}

	h.writeWeekForDate(w, spec, sp, date)
}

// writeWeekForDate classifies a date and writes the week payload.
func (h *Handlers) writeWeekForDate(w http.ResponseWriter, spec week.Specification, sp specPayload, date time.Time) {
	cw := spec.Week(date)

	payload := weekToPayload(sp, cw)
	payload.Date = date.Format(dateLayout)
	payload.DayNumber = spec.DayNumber(date.Weekday())

	WriteSuccess(w, payload)
}

// GetWeekStart handles GET /api/v1/week/start/{year}/{week}
//
// The inverse operation: the first day of the requested week.
func (h *Handlers) GetWeekStart(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Invalid week-year")
		return
	}

	weekNum, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		WriteBadRequest(w, "Invalid week number")
		return
	}

	spec, sp, ok := h.resolveSpec(w, r)
	if !ok {
		return
	}

	start, err := spec.DateOf(year, weekNum)
	if err != nil {
		if week.IsOutOfRange(err) {
			WriteOutOfRange(w, err.Error())
			return
		}
		logger.FromContext(r.Context()).Error("date_of failed", slog.Any("error", err))
		WriteInternalError(w, "Failed to compute week start")
		return
	}

	WriteSuccess(w, weekToPayload(sp, spec.Week(start)))
}

// GetWeekYear handles GET /api/v1/week/year/{year}
//
// Summary of a week-year: its first and last day and how many weeks it holds.
func (h *Handlers) GetWeekYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Invalid week-year")
		return
	}

	spec, sp, ok := h.resolveSpec(w, r)
	if !ok {
		return
	}

	WriteSuccess(w, weekYearPayload{
		Spec:     sp,
		WeekYear: year,
		FirstDay: spec.FirstDayOfWeekYear(year).Format(dateLayout),
		LastDay:  spec.LastDayOfWeekYear(year).Format(dateLayout),
		NumWeeks: spec.NumWeeks(year),
	})
}

// GetRangeWeeks handles GET /api/v1/week/range?start=YYYY-MM-DD&end=YYYY-MM-DD
//
// Returns every week touching the range, in order, one entry per week.
func (h *Handlers) GetRangeWeeks(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		WriteBadRequest(w, "Both start and end date parameters are required")
		return
	}

	startDate, err := time.Parse(dateLayout, startStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid start date format: %s. Use YYYY-MM-DD", startStr))
		return
	}

	endDate, err := time.Parse(dateLayout, endStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid end date format: %s. Use YYYY-MM-DD", endStr))
		return
	}

	if startDate.After(endDate) {
		WriteBadRequest(w, "Start date must be before or equal to end date")
		return
	}

	if int(endDate.Sub(startDate).Hours()/24) > maxRangeDays {
		WriteBadRequest(w, fmt.Sprintf("Date range cannot exceed %d days", maxRangeDays))
		return
	}

	spec, sp, ok := h.resolveSpec(w, r)
	if !ok {
		return
	}

	var weeks []weekPayload
	for cw := spec.Week(startDate); !cw.WeekStart().After(endDate); cw = cw.Next() {
		weeks = append(weeks, weekToPayload(sp, cw))
	}

	WriteSuccess(w, map[string]interface{}{
		"start": startStr,
		"end":   endStr,
		"weeks": weeks,
	})
}

// =============================================================================
// Specification registry
// =============================================================================

// ListSpecs handles GET /api/v1/specs
func (h *Handlers) ListSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := h.db.ListSpecs(r.Context())
	if err != nil {
		h.logger.Error("failed to list specs", slog.Any("error", err))
		WriteInternalError(w, "Failed to list week specifications")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"specs": specs,
	})
}

// GetSpec handles GET /api/v1/specs/{name}
func (h *Handlers) GetSpec(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rec, err := h.db.GetSpec(r.Context(), name)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Week specification %q not found", name))
			return
		}
		h.logger.Error("failed to get spec", slog.String("name", name), slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve week specification")
		return
	}

	WriteSuccess(w, rec)
}

// CreateSpec handles POST /api/v1/specs
func (h *Handlers) CreateSpec(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		FirstDay    string `json:"first_day"`
		MinDays     int    `json:"min_days"`
		Description string `json:"description,omitempty"`
	}

	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !database.ValidSpecName(req.Name) {
		WriteBadRequest(w, "name must be a lowercase slug (letters, digits, dashes; max 64 chars)")
		return
	}

	firstDay, ok := weekdayNames[strings.ToLower(req.FirstDay)]
	if !ok {
		WriteBadRequest(w, fmt.Sprintf("Unknown weekday: %s", req.FirstDay))
		return
	}

	// Validate the parameters through the constructor before touching
	// the database.
	if _, err := week.New(firstDay, req.MinDays); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_SPECIFICATION")
		return
	}

	rec := &database.WeekSpecRecord{
		Name:     req.Name,
		FirstDay: int(firstDay),
		MinDays:  req.MinDays,
	}
	if req.Description != "" {
		rec.Description = &req.Description
	}

	if err := h.db.CreateSpec(r.Context(), rec); err != nil {
		if err == database.ErrDuplicate {
			WriteError(w, http.StatusConflict, fmt.Sprintf("Week specification %q already exists", req.Name), "DUPLICATE")
			return
		}
		h.logger.Error("failed to create spec", slog.Any("error", err))
		WriteInternalError(w, "Failed to create week specification")
		return
	}

	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: rec})
}

// DeleteSpec handles DELETE /api/v1/specs/{name}
func (h *Handlers) DeleteSpec(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.db.DeleteSpec(r.Context(), name)
	switch {
	case err == nil:
		WriteSuccess(w, map[string]string{"message": "Week specification deleted"})
	case database.IsNotFound(err):
		WriteNotFound(w, fmt.Sprintf("Week specification %q not found", name))
	case err == database.ErrPresetImmutable:
		WriteError(w, http.StatusForbidden, "Preset specifications cannot be deleted", "PRESET_IMMUTABLE")
	default:
		h.logger.Error("failed to delete spec", slog.String("name", name), slog.Any("error", err))
		WriteInternalError(w, "Failed to delete week specification")
	}
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}
