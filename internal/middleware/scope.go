package middleware

import (
	"net/http"
	"strings"

	"github.com/rpattn/wholesale/internal/auth"
	"github.com/rpattn/wholesale/internal/catalogloader"
	"github.com/rpattn/wholesale/internal/repository"

	"github.com/google/uuid"
)

// CompanyScopeMiddleware pins the request to the company named in the gateway header, if any.
// A malformed header is rejected rather than ignored.
func CompanyScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(auth.CompanyHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			http.Error(w, "invalid "+auth.CompanyHeader+" header", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithCompanyID(r.Context(), id)))
	})
}

// CatalogLoaderMiddleware attaches a per-request SKU loader to the context.
func CatalogLoaderMiddleware(repo repository.CatalogRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := catalogloader.NewSKULoader(repo)
			next.ServeHTTP(w, r.WithContext(catalogloader.WithLoader(r.Context(), loader)))
		})
	}
}
