package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/security/validation"
	"github.com/username/settlementdash/backend/src/services"
	"github.com/username/settlementdash/backend/src/utils"
)

type UploadHandler struct {
	reports        ReportProvider
	maxUploadBytes int64
}

func NewUploadHandler(reports ReportProvider, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		reports:        reports,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleImport loads a settlement CSV from the multipart field "file" into
// the local table. Optional form fields: format, replace.
func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	session := security.SessionFromContext(r.Context())
	log := logger.FromContext(r.Context())
	if !session.Authorized() {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if !h.reports.CanImport() {
		utils.SendJSONError(w, services.ErrImportUnsupported.Error(), http.StatusNotImplemented)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(r.Context(), clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detectedContentType, err := validation.ValidateFileContentByMagicBytes(r.Context(), file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	replace := false
	if raw := strings.TrimSpace(r.FormValue("replace")); raw != "" {
		if replace, err = strconv.ParseBool(raw); err != nil {
			utils.SendJSONError(w, "replace must be a boolean", http.StatusBadRequest)
			return
		}
	}
	format := strings.TrimSpace(r.FormValue("format"))

	log.Info("Processing import request", "filename", fileHeader.Filename, "detectedType", detectedContentType, "format", format, "replace", replace)
	result, err := h.reports.Import(r.Context(), session, file, format, replace)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed), errors.Is(err, services.ErrEmptyImport):
			log.Warn("Import rejected", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrImportUnsupported):
			utils.SendJSONError(w, err.Error(), http.StatusNotImplemented)
		default:
			writeServiceError(w, r, "import transactions", err)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}
