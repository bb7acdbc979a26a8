package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/wholesale/internal/auth"
	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/internal/export"
	"github.com/rpattn/wholesale/internal/ingestion"
	"github.com/rpattn/wholesale/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type emptyRepos struct{}

func (emptyRepos) GetByID(context.Context, uuid.UUID) (domain.Company, error) {
	return domain.Company{}, domain.ErrCompanyNotFound
}

func (emptyRepos) ListProducts(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	return nil, nil
}

func (emptyRepos) FindBySKUs(context.Context, []string) ([]domain.Product, error) {
	return nil, nil
}

func testRouter() http.Handler {
	repos := emptyRepos{}
	return newRouter(routerDeps{
		exports:        export.NewService(repos, repos, nil),
		imports:        ingestion.NewService(repos, repos, nil, nil),
		catalog:        repos,
		logger:         zerolog.Nop(),
		allowedOrigins: []string{"http://localhost:3000"},
		maxUploadBytes: 1 << 20,
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesWireHandlers(t *testing.T) {
	router := testRouter()
	company := uuid.NewString()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order-workbooks/export?companyId="+company, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order-workbooks/exports?companyId="+company, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order-workbooks/import", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutesApplyCompanyScopeHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/order-workbooks/exports?companyId="+uuid.NewString(), nil)
	req.Header.Set(auth.CompanyHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/order-workbooks/import", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
