package http

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	accountingapp "oliver-admin/internal/accounting/application"
	accounting "oliver-admin/internal/accounting/domain"
	"oliver-admin/internal/audit"
	"oliver-admin/internal/auth"
	"oliver-admin/internal/logging"
	"oliver-admin/internal/validation"
)

const (
	defaultHistoryLimit = 50
	maxBodyBytes        = 1 << 16
)

// Handler serves the /admin/accounting endpoints.
type Handler struct {
	summaries    *accountingapp.SummaryService
	exports      *accountingapp.ExportService
	audit        audit.Logger
	loc          *time.Location
	historyLimit int
	now          func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithLocation sets the zone used to interpret dates.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

// WithHistoryLimit sets the page size used when limit is absent.
func WithHistoryLimit(limit int) Option {
	return func(h *Handler) {
		if limit > 0 && limit <= 100 {
			h.historyLimit = limit
		}
	}
}

// WithClock overrides the time source used for the default year.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler constructs a handler. auditLog may be nil.
func NewHandler(summaries *accountingapp.SummaryService, exports *accountingapp.ExportService, auditLog audit.Logger, opts ...Option) (*Handler, error) {
	if summaries == nil || exports == nil {
		return nil, errors.New("accounting handler: nil service")
	}
	h := &Handler{
		summaries:    summaries,
		exports:      exports,
		audit:        auditLog,
		loc:          time.UTC,
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes registers the endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Post("/export", h.handleExport)
	r.Get("/exports", h.handleList)
	r.Get("/exports/{id}/download", h.handleDownload)
}

type summaryQuery struct {
	Period string `json:"period" validate:"oneof=day week month year"`
	Year   int    `json:"year" validate:"gte=2020,lte=2030"`
	Month  int    `json:"month" validate:"omitempty,gte=1,lte=12"`
}

type dateRangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type summaryResponse struct {
	Period         string               `json:"period"`
	Year           int                  `json:"year"`
	Month          *int                 `json:"month,omitempty"`
	DateRange      dateRangeResponse    `json:"dateRange"`
	TotalRevenue   int64                `json:"revenue"`
	PlatformFees   int64                `json:"fees"`
	Commission     int64                `json:"commission"`
	TotalPayouts   int64                `json:"payouts"`
	OperatingCosts int64                `json:"operatingCosts"`
	NetProfit      int64                `json:"netProfit"`
	Breakdown      accounting.Breakdown `json:"breakdown"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := summaryQuery{Period: string(accounting.PeriodMonth), Year: h.now().In(h.loc).Year()}
	values := r.URL.Query()
	if v := values.Get("period"); v != "" {
		q.Period = v
	}
	var err error
	if q.Year, err = intParam(values.Get("year"), q.Year); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, "year must be a number")
		return
	}
	if q.Month, err = intParam(values.Get("month"), 0); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, "month must be a number")
		return
	}
	if err := validation.Struct(&q); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, err.Error())
		return
	}

	summary, err := h.summaries.Summary(r.Context(), accountingapp.SummaryQuery{
		Period: accounting.Period(q.Period),
		Year:   q.Year,
		Month:  q.Month,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := summaryResponse{
		Period:         string(summary.Period),
		Year:           summary.Year,
		DateRange:      dateRangeResponse{Start: summary.Range.Start, End: summary.Range.End},
		TotalRevenue:   summary.TotalRevenue,
		PlatformFees:   summary.PlatformFees,
		Commission:     summary.Commission,
		TotalPayouts:   summary.TotalPayouts,
		OperatingCosts: summary.OperatingCosts,
		NetProfit:      summary.NetProfit,
		Breakdown:      summary.Breakdown,
	}
	if summary.Month != 0 {
		month := summary.Month
		resp.Month = &month
	}
	respondJSON(w, http.StatusOK, resp)
}

type exportBody struct {
	Type     string `json:"type" validate:"required,oneof=accounting transactions payouts"`
	Format   string `json:"format" validate:"required,oneof=csv pdf xlsx"`
	DateFrom string `json:"dateFrom" validate:"required"`
	DateTo   string `json:"dateTo" validate:"required"`
}

type exportAccepted struct {
	ExportID string            `json:"exportId"`
	Status   accounting.Status `json:"status"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var body exportBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, "invalid JSON body")
		return
	}
	if err := validation.Struct(&body); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, err.Error())
		return
	}
	filters := accounting.ExportFilters(body)
	req, err := accountingapp.ParseExportRequest(filters, h.loc)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	actor := auth.SubjectFromContext(r.Context())
	job, err := h.exports.Submit(r.Context(), actor, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.record(r, audit.ActionExportSubmit, job.ID, filters)
	respondJSON(w, http.StatusAccepted, exportAccepted{ExportID: job.ID, Status: job.Status})
}

type listQuery struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit" validate:"gte=1,lte=100"`
}

type exportItem struct {
	ID           string                   `json:"id"`
	Type         accounting.ExportType    `json:"type"`
	Format       accounting.Format        `json:"format"`
	Status       accounting.Status        `json:"status"`
	Filters      accounting.ExportFilters `json:"filters"`
	FileURL      string                   `json:"fileUrl,omitempty"`
	FileSize     int64                    `json:"fileSize,omitempty"`
	RowCount     int                      `json:"rowCount,omitempty"`
	ErrorMessage string                   `json:"errorMessage,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
	CompletedAt  *time.Time               `json:"completedAt,omitempty"`
	ExpiresAt    *time.Time               `json:"expiresAt,omitempty"`
	InitiatedBy  *accounting.Initiator    `json:"initiatedBy,omitempty"`
}

type listResponse struct {
	Items      []exportItem `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	HasMore    bool         `json:"hasMore"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := listQuery{Cursor: values.Get("cursor")}
	var err error
	if q.Limit, err = intParam(values.Get("limit"), h.historyLimit); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, "limit must be a number")
		return
	}
	if err := validation.Struct(&q); err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidation, err.Error())
		return
	}

	page, err := h.exports.List(r.Context(), q.Cursor, q.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	resp := listResponse{Items: make([]exportItem, 0, len(page.Items)), NextCursor: page.NextCursor, HasMore: page.HasMore}
	for _, job := range page.Items {
		resp.Items = append(resp.Items, exportItem{
			ID:           job.ID,
			Type:         job.Type,
			Format:       job.Format,
			Status:       job.Status,
			Filters:      job.Filters,
			FileURL:      job.FileURL,
			FileSize:     job.FileSize,
			RowCount:     job.RowCount,
			ErrorMessage: job.ErrorMessage,
			CreatedAt:    job.CreatedAt,
			CompletedAt:  job.CompletedAt,
			ExpiresAt:    job.ExpiresAt,
			InitiatedBy:  job.InitiatedBy,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.exports.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.record(r, audit.ActionExportDownload, job.ID, nil)
	http.Redirect(w, r, job.FileURL, http.StatusFound)
}

// record writes an audit entry. Audit failures are logged and otherwise ignored.
func (h *Handler) record(r *http.Request, action, resourceID string, metadata any) {
	if h.audit == nil {
		return
	}
	entry := audit.Entry{
		ID:           audit.NewID(),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: audit.ResourceExport,
		ResourceID:   resourceID,
		IP:           clientIP(r),
		UserAgent:    r.UserAgent(),
		CreatedAt:    time.Now().UTC(),
	}
	if metadata != nil {
		entry.Metadata = audit.Metadata(metadata)
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("action", action).Msg("audit log failed")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case accounting.IsValidation(err):
		respondError(w, http.StatusBadRequest, validation.CodeValidation, err.Error())
	case errors.Is(err, accounting.ErrExportNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Export not found")
	case errors.Is(err, accounting.ErrExportNotReady):
		respondError(w, http.StatusNotFound, "NOT_READY", "Export file not available yet")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("accounting request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Code: code, Message: message})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
