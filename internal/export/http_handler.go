package export

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"salesinsight/internal/domain"
)

// Handler serves CSV downloads of the filtered record set.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHTTPHandler wraps the export service with a GET endpoint.
func NewHTTPHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Download handles GET /api/export. Filters match the analysis endpoints.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fileName := "sales_records_" + time.Now().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)

	if err := h.service.WriteCSV(r.Context(), w, parseFilter(r.URL.Query())); err != nil {
		// Headers are already sent once streaming starts; log instead of
		// rewriting the status mid-response.
		h.logger.Error("csv export failed", zap.Error(err))
	}
}

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
