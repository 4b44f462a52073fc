package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username/settlementdash/backend/src/filters"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/services"
	"github.com/username/settlementdash/backend/src/utils"
)

// ReportProvider is the part of services.ReportService the HTTP layer uses.
type ReportProvider interface {
	Recompute(ctx context.Context, session security.Session, sel filters.Selection) (*services.Report, error)
	Options(ctx context.Context, session security.Session, clients []string) (*services.Options, error)
	Drilldown(ctx context.Context, session security.Session, client string) ([]models.Transaction, error)
	Refresh(ctx context.Context, session security.Session) (*services.SnapshotInfo, error)
	CanImport() bool
	Import(ctx context.Context, session security.Session, file io.Reader, format string, replace bool) (*services.ImportResult, error)
}

type ReportHandler struct {
	reports ReportProvider
}

func NewReportHandler(reports ReportProvider) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// parseQueryDate accepts an empty value (null date) or YYYY-MM-DD.
func parseQueryDate(r *http.Request, name string) (models.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return models.Date{}, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", name, raw)
	}
	return models.DateOf(t), nil
}

// queryList collects repeated parameters, dropping blanks.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func selectionFromRequest(r *http.Request) (filters.Selection, error) {
	start, err := parseQueryDate(r, "start")
	if err != nil {
		return filters.Selection{}, err
	}
	end, err := parseQueryDate(r, "end")
	if err != nil {
		return filters.Selection{}, err
	}
	return filters.Selection{
		Start:    start,
		End:      end,
		Clients:  queryList(r, "client"),
		Projects: queryList(r, "project"),
	}, nil
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, security.ErrUnauthorized):
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, services.ErrDataSource):
		log.Error("Data source unavailable", "action", action, "error", err)
		utils.SendJSONError(w, "transaction data is currently unavailable", http.StatusBadGateway)
	default:
		log.Error("Request failed", "action", action, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("failed to %s", action), http.StatusInternalServerError)
	}
}

// writeWithETag sends data as JSON, answering 304 when the client already
// holds the same representation.
func writeWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	log := logger.FromContext(r.Context())
	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		log.Error("Failed to generate ETag", "path", r.URL.Path, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match", "path", r.URL.Path, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, data)
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromRequest(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reports.Recompute(r.Context(), security.SessionFromContext(r.Context()), sel)
	if err != nil {
		writeServiceError(w, r, "compute report", err)
		return
	}
	writeWithETag(w, r, report)
}

func (h *ReportHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.reports.Options(r.Context(), security.SessionFromContext(r.Context()), queryList(r, "client"))
	if err != nil {
		writeServiceError(w, r, "load filter options", err)
		return
	}
	writeWithETag(w, r, opts)
}

// HandleRefresh drops the cached table and reloads it from the source.
func (h *ReportHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	session := security.SessionFromContext(r.Context())
	info, err := h.reports.Refresh(r.Context(), session)
	if err != nil {
		writeServiceError(w, r, "refresh dataset", err)
		return
	}
	logger.FromContext(r.Context()).Info("Dataset refreshed", "user", session.Username, "rows", info.Rows)
	utils.WriteJSON(w, http.StatusOK, info)
}
