package analysis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"salesinsight/internal/domain"
)

// Handler serves the dashboard read endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHTTPHandler wraps the analysis service with GET endpoints.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// analysisParams is the recognized analysis query configuration. Anything
// else in the query string is ignored.
type analysisParams struct {
	GroupBy string `validate:"required,oneof=date region category product"`
}

// Aggregate handles GET /api/analysis.
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := analysisParams{GroupBy: strings.TrimSpace(r.URL.Query().Get("group_by"))}
	if params.GroupBy == "" {
		params.GroupBy = string(domain.GroupByDate)
	}
	if err := h.validate.Struct(params); err != nil {
		http.Error(w, fmt.Sprintf("invalid group_by %q: must be one of date, region, category, product", params.GroupBy), http.StatusBadRequest)
		return
	}

	query := domain.AnalysisQuery{
		Filter:  parseFilter(r.URL.Query()),
		GroupBy: domain.GroupBy(params.GroupBy),
	}

	groups, err := h.service.Aggregate(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// Summary handles GET /api/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.service.Summary(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Records handles GET /api/records.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.service.Records(r.Context(), parseFilter(r.URL.Query()), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Options handles GET /api/records/options.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	options, err := h.service.Options(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// parseFilter reads the shared filter parameters. Unparsable dates are
// treated as absent rather than rejected.
func parseFilter(values url.Values) domain.RecordFilter {
	filter := domain.RecordFilter{
		Region:   strings.TrimSpace(values.Get("region")),
		Category: strings.TrimSpace(values.Get("category")),
		Product:  strings.TrimSpace(values.Get("product")),
	}
	if from, err := time.Parse(domain.DateLayout, values.Get("date_from")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse(domain.DateLayout, values.Get("date_to")); err == nil {
		filter.DateTo = &to
	}
	return filter
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
