package main

import (
	"encoding/json"
	"net/http"

	"github.com/rpattn/wholesale/internal/export"
	"github.com/rpattn/wholesale/internal/ingestion"
	"github.com/rpattn/wholesale/internal/middleware"
	"github.com/rpattn/wholesale/internal/repository"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type routerDeps struct {
	exports        *export.Service
	imports        *ingestion.Service
	catalog        repository.CatalogRepository
	logger         zerolog.Logger
	allowedOrigins []string
	maxUploadBytes int64
}

func newRouter(deps routerDeps) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-ID"},
	})

	exportHandler := export.NewHTTPHandler(deps.exports)
	importHandler := middleware.CatalogLoaderMiddleware(deps.catalog)(
		ingestion.NewHTTPHandler(deps.imports, deps.maxUploadBytes),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/order-workbooks/export", exportHandler)
	mux.Handle("/api/order-workbooks/exports", exportHandler)
	mux.Handle("/api/order-workbooks/import", importHandler)
	mux.Handle("/api/order-workbooks/import/logs", importHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return corsHandler.Handler(
		middleware.LoggingMiddleware(deps.logger)(
			middleware.CompanyScopeMiddleware(mux),
		),
	)
}
