package attendancehandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/attendance"
	"ems/internal/domain/calendar"
	"ems/internal/domain/validation"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	Mark(ctx context.Context, employeeID, date, status string) (attendance.MarkResult, error)
	BulkMark(ctx context.Context, employeeIDs []string, date, status string) (attendance.BulkResult, error)
	MarkToday(ctx context.Context, employeeID, status string) (attendance.Record, error)
	Stats(ctx context.Context, employeeID string, start, end time.Time) (attendance.Stats, error)
	MonthStats(ctx context.Context, employeeID string) (attendance.Stats, error)
	History(ctx context.Context, employeeID string, limit int) ([]attendance.Record, error)
	Filter(ctx context.Context, p attendance.FilterParams) ([]attendance.FilterRow, error)
	Report(ctx context.Context, startDate, endDate, employeeID string) (attendance.Report, error)
	Delete(ctx context.Context, id string) error
	TodaySummary(ctx context.Context) (attendance.TodaySummary, error)
	ClockStatus(ctx context.Context, employeeID string) (attendance.ClockStatus, error)
	Clock(ctx context.Context, employeeID string, at *time.Time) (attendance.ClockResult, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type markRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

type bulkRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1,max=500"`
	Date        string   `json:"date" validate:"required"`
	Status      string   `json:"status" validate:"required"`
}

type selfMarkRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=present absent late"`
}

type clockRequest struct {
	Timestamp string `json:"timestamp"`
}

// RegisterAdminRoutes mounts the attendance management endpoints.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/attendance", h.handleFilter)
	r.Post("/attendance/mark", h.handleMark)
	r.Post("/attendance/bulk", h.handleBulk)
	r.Get("/attendance/today", h.handleToday)
	r.Get("/attendance/report", h.handleReport)
	r.Get("/attendance/report/export", h.handleExport)
	r.Get("/attendance/employees/{employeeID}/stats", h.handleEmployeeStats)
	r.Delete("/attendance/{recordID}", h.handleDelete)
}

// RegisterSelfRoutes mounts the endpoints an employee uses for their own
// attendance.
func (h *Handler) RegisterSelfRoutes(r chi.Router) {
	r.Get("/attendance/clock", h.handleClockStatus)
	r.Post("/attendance/clock", h.handleClock)
	r.Post("/attendance/me/mark", h.handleSelfMark)
	r.Get("/attendance/me/history", h.handleSelfHistory)
	r.Get("/attendance/me/stats", h.handleSelfStats)
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	var payload markRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	res, err := h.Service.Mark(r.Context(), payload.EmployeeID, payload.Date, payload.Status)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_mark")
		return
	}
	shared.RecordAudit(r, h.Audit, "attendance.mark", "attendance", res.Record.ID, nil, res.Record)
	if res.Created {
		api.Created(w, res, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var payload bulkRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	res, err := h.Service.BulkMark(r.Context(), payload.EmployeeIDs, payload.Date, payload.Status)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_bulk")
		return
	}
	shared.RecordAudit(r, h.Audit, "attendance.bulk_mark", "attendance", payload.Date, nil, res)
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := attendance.FilterParams{
		EmployeeID: q.Get("employee_id"),
		Status:     q.Get("status"),
	}
	var err error
	if params.Start, err = optionalDate(q.Get("start_date"), "start_date"); err != nil {
		shared.WriteError(w, r, err, "attendance_filter")
		return
	}
	if params.End, err = optionalDate(q.Get("end_date"), "end_date"); err != nil {
		shared.WriteError(w, r, err, "attendance_filter")
		return
	}
	rows, err := h.Service.Filter(r.Context(), params)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_filter")
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func optionalDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := calendar.ParseDay(raw)
	if err != nil {
		return nil, validation.New(field, "invalid date format, expected YYYY-MM-DD")
	}
	return &day, nil
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.TodaySummary(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "attendance_today")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) report(r *http.Request) (attendance.Report, error) {
	q := r.URL.Query()
	return h.Service.Report(r.Context(), q.Get("start_date"), q.Get("end_date"), q.Get("employee_id"))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.report(r)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_report")
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "format", Reason: "must be one of xlsx pdf"}})
		return
	}

	report, err := h.report(r)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_export")
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "pdf":
		body, err = attendance.ReportPDF(report)
		contentType = "application/pdf"
	default:
		buf, xerr := attendance.ReportXLSX(report)
		if xerr == nil {
			body = buf.Bytes()
		}
		err = xerr
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if errors.Is(err, attendance.ErrEmptyReport) {
		api.Fail(w, http.StatusNotFound, "not_found", "no attendance data for the selected range", reqID)
		return
	}
	if err != nil {
		shared.WriteError(w, r, err, "attendance_export")
		return
	}

	filename := fmt.Sprintf("attendance_report_%s_to_%s.%s", report.Summary.StartDate, report.Summary.EndDate, format)
	api.Attachment(w, contentType, filename, body)
}

func (h *Handler) handleEmployeeStats(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	q := r.URL.Query()
	if q.Get("start_date") == "" && q.Get("end_date") == "" {
		stats, err := h.Service.MonthStats(r.Context(), employeeID)
		if err != nil {
			shared.WriteError(w, r, err, "attendance_stats")
			return
		}
		api.Success(w, stats, middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	start, _ := v.Date("start_date", q.Get("start_date"))
	end, _ := v.Date("end_date", q.Get("end_date"))
	v.DateOrder("start_date", start, "end_date", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	stats, err := h.Service.Stats(r.Context(), employeeID, start, end)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_stats")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if err := h.Service.Delete(r.Context(), recordID); err != nil {
		shared.WriteError(w, r, err, "attendance_delete")
		return
	}
	shared.RecordAudit(r, h.Audit, "attendance.delete", "attendance", recordID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	status, err := h.Service.ClockStatus(r.Context(), user.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_clock")
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClock(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	var payload clockRequest
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	var at *time.Time
	if payload.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			shared.WriteError(w, r, validation.New("timestamp", "timestamp must be RFC3339"), "attendance_clock")
			return
		}
		at = &parsed
	}
	res, err := h.Service.Clock(r.Context(), user.EmployeeID, at)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_clock")
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfMark(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	var payload selfMarkRequest
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	rec, err := h.Service.MarkToday(r.Context(), user.EmployeeID, payload.Status)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_mark")
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.Service.History(r.Context(), user.EmployeeID, limit)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_history")
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfStats(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.MonthStats(r.Context(), user.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_stats")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}
