package repository

import (
	"context"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
)

// ProductFilter narrows catalog listings. Zero values mean "no restriction".
type ProductFilter struct {
	ProductIDs []uuid.UUID
	OrderType  domain.OrderType
	Season     string
}

// CatalogRepository is the catalog/pricing lookup.
type CatalogRepository interface {
	// ListProducts returns active products matching the filter, ordered by category and name.
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	// FindBySKUs returns products owning any of the given SKUs: base SKUs, variant SKUs,
	// or synthetic variant SKUs prefixed by the base SKU.
	FindBySKUs(ctx context.Context, skus []string) ([]domain.Product, error)
}

// CompanyRepository is the company/credit lookup.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Company, error)
}

// WorkbookExportRepository persists export audit records.
type WorkbookExportRepository interface {
	Record(ctx context.Context, export domain.WorkbookExport) error
	Get(ctx context.Context, companyID uuid.UUID, exportID uuid.UUID) (domain.WorkbookExport, error)
	List(ctx context.Context, companyID uuid.UUID, limit int, offset int) ([]domain.WorkbookExport, error)
}

// ImportLogRepository persists import diagnostics.
type ImportLogRepository interface {
	RecordBatch(ctx context.Context, entries []domain.ImportLogEntry) error
	List(ctx context.Context, companyID uuid.UUID, exportID string, limit int, offset int) ([]domain.ImportLogEntry, error)
}
