package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/wholesale/internal/auth"
	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/pkg/validator"

	"github.com/google/uuid"
)

// Handler exposes workbook import as HTTP endpoints.
type Handler struct {
	service        *Service
	validate       *validator.RequestValidator
	maxUploadBytes int64
}

// NewHTTPHandler wraps the service with the upload and log endpoints.
func NewHTTPHandler(service *Service, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{service: service, validate: validator.New(), maxUploadBytes: maxUploadBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/logs"):
		h.handleListLogs(w, r)
	case r.Method == http.MethodPost:
		h.handleImport(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type importForm struct {
	CompanyID string `json:"companyId" validate:"required,uuid"`
	FileName  string `json:"fileName" validate:"required,max=255"`
}

type logsQuery struct {
	CompanyID string `json:"companyId" validate:"required,uuid"`
	ExportID  string `json:"exportId" validate:"max=64"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	form := importForm{
		CompanyID: strings.ToLower(strings.TrimSpace(r.FormValue("companyId"))),
		FileName:  strings.TrimSpace(header.Filename),
	}
	if err := h.validate.Struct(form); err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}

	companyID := uuid.MustParse(form.CompanyID)
	if err := auth.EnforceCompanyScope(r.Context(), companyID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Parse(r.Context(), Request{
		CompanyID: companyID,
		FileName:  form.FileName,
		Data:      bytes.NewReader(data),
	})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	status := http.StatusOK
	if !result.Validation.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := logsQuery{
		CompanyID: strings.ToLower(strings.TrimSpace(query.Get("companyId"))),
		ExportID:  strings.TrimSpace(query.Get("exportId")),
	}
	if err := h.validate.Struct(params); err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}

	companyID := uuid.MustParse(params.CompanyID)
	if err := auth.EnforceCompanyScope(r.Context(), companyID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	limit := 200
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return
		}
		offset = parsed
	}
	logs, err := h.service.ListLogs(r.Context(), companyID, params.ExportID, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("list logs: %v", err), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrScopeViolation):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmptyUpload), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
