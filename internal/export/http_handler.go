package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/wholesale/internal/auth"
	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/pkg/validator"
)

type Handler struct {
	service  *Service
	validate *validator.RequestValidator
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/exports"):
		h.handleListExports(w, r)
	case r.Method == http.MethodGet:
		h.handleDownload(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type exportQuery struct {
	CompanyID          string   `json:"companyId" validate:"required,uuid"`
	OrderType          string   `json:"orderType" validate:"omitempty,oneof=at-once prebook closeout at_once atonce"`
	Season             string   `json:"season" validate:"max=64"`
	ProductIDs         []string `json:"productIds" validate:"dive,uuid"`
	AllowPriceOverride string   `json:"allowPriceOverride" validate:"omitempty,boolean"`
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := exportQuery{
		CompanyID:          strings.TrimSpace(query.Get("companyId")),
		OrderType:          strings.ToLower(strings.TrimSpace(query.Get("orderType"))),
		Season:             strings.TrimSpace(query.Get("season")),
		ProductIDs:         splitList(query["productIds"]),
		AllowPriceOverride: strings.TrimSpace(query.Get("allowPriceOverride")),
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

	productIDs := make([]uuid.UUID, 0, len(params.ProductIDs))
	for _, raw := range params.ProductIDs {
		productIDs = append(productIDs, uuid.MustParse(raw))
	}
	allowOverride := false
	if params.AllowPriceOverride != "" {
		allowOverride, _ = strconv.ParseBool(params.AllowPriceOverride)
	}
	orderType := params.OrderType
	if orderType == "" {
		orderType = string(domain.OrderTypeAtOnce)
	}

	result, err := h.service.Build(r.Context(), Request{
		CompanyID:          companyID,
		OrderType:          orderType,
		Season:             params.Season,
		ProductIDs:         productIDs,
		AllowPriceOverride: allowOverride,
	})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("X-Export-ID", result.ExportID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (h *Handler) handleListExports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	companyID, err := uuid.Parse(strings.TrimSpace(query.Get("companyId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid companyId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceCompanyScope(r.Context(), companyID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	limit := 20
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
	exports, err := h.service.ListExports(r.Context(), companyID, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("list exports: %v", err), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, exports)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrScopeViolation):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidOrderType), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// splitList accepts both repeated and comma separated query values.
func splitList(values []string) []string {
	out := []string{}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
