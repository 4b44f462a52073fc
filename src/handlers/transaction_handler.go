package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/services"
	"github.com/username/settlementdash/backend/src/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type drilldownResponse struct {
	Client       string               `json:"client"`
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

func clientParam(r *http.Request) string {
	raw := chi.URLParam(r, "client")
	if client, err := url.PathUnescape(raw); err == nil {
		raw = client
	}
	return strings.TrimSpace(raw)
}

func (h *ReportHandler) HandleGetClientTransactions(w http.ResponseWriter, r *http.Request) {
	client := clientParam(r)
	if client == "" {
		utils.SendJSONError(w, "client is required", http.StatusBadRequest)
		return
	}

	rows, err := h.reports.Drilldown(r.Context(), security.SessionFromContext(r.Context()), client)
	if err != nil {
		writeServiceError(w, r, "load client transactions", err)
		return
	}
	if rows == nil {
		rows = []models.Transaction{}
	}
	writeWithETag(w, r, drilldownResponse{Client: client, Count: len(rows), Transactions: rows})
}

// HandleExportClientTransactions streams the drill-down rows as an xlsx
// workbook.
func (h *ReportHandler) HandleExportClientTransactions(w http.ResponseWriter, r *http.Request) {
	client := clientParam(r)
	if client == "" {
		utils.SendJSONError(w, "client is required", http.StatusBadRequest)
		return
	}

	rows, err := h.reports.Drilldown(r.Context(), security.SessionFromContext(r.Context()), client)
	if err != nil {
		writeServiceError(w, r, "export client transactions", err)
		return
	}

	// Render fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := services.WriteDrilldownXLSX(&buf, client, rows); err != nil {
		writeServiceError(w, r, "export client transactions", err)
		return
	}

	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(client, "_"), "_")
	if name == "" {
		name = "client"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"", name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write xlsx export", "client", client, "error", err)
	}
}
