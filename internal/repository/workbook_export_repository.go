package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workbookExportColumns = `id, company_id, order_type, season, product_count, row_count, schema_version, byte_size, features, created_at`

type workbookExportRepository struct {
	pool *pgxpool.Pool
}

// NewWorkbookExportRepository wires an export audit repository backed by pgxpool.
func NewWorkbookExportRepository(pool *pgxpool.Pool) WorkbookExportRepository {
	return &workbookExportRepository{pool: pool}
}

func (r *workbookExportRepository) Record(ctx context.Context, export domain.WorkbookExport) error {
	if r.pool == nil {
		return fmt.Errorf("workbook export repository not initialized")
	}

	features, err := json.Marshal(export.Features)
	if err != nil {
		return fmt.Errorf("failed to encode export features: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO workbook_exports (`+workbookExportColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		export.ID,
		export.CompanyID,
		string(export.OrderType),
		export.Season,
		export.ProductCount,
		export.RowCount,
		export.SchemaVersion,
		export.ByteSize,
		features,
		export.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record workbook export: %w", err)
	}
	return nil
}

// Get returns the audit record for exportID when it belongs to companyID.
func (r *workbookExportRepository) Get(ctx context.Context, companyID uuid.UUID, exportID uuid.UUID) (domain.WorkbookExport, error) {
	if r.pool == nil {
		return domain.WorkbookExport{}, fmt.Errorf("workbook export repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+workbookExportColumns+` FROM workbook_exports WHERE id = $1 AND company_id = $2`,
		exportID,
		companyID,
	)
	if err != nil {
		return domain.WorkbookExport{}, fmt.Errorf("failed to load workbook export: %w", err)
	}
	export, err := pgx.CollectExactlyOneRow(rows, scanWorkbookExport)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkbookExport{}, fmt.Errorf("%w: %s", domain.ErrExportNotFound, exportID)
	}
	if err != nil {
		return domain.WorkbookExport{}, fmt.Errorf("failed to scan workbook export: %w", err)
	}
	return export, nil
}

func (r *workbookExportRepository) List(ctx context.Context, companyID uuid.UUID, limit int, offset int) ([]domain.WorkbookExport, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("workbook export repository not initialized")
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+workbookExportColumns+`
		 FROM workbook_exports
		 WHERE company_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		companyID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workbook exports: %w", err)
	}
	exports, err := pgx.CollectRows(rows, scanWorkbookExport)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workbook exports: %w", err)
	}
	return exports, nil
}

func scanWorkbookExport(row pgx.CollectableRow) (domain.WorkbookExport, error) {
	var (
		export    domain.WorkbookExport
		orderType string
		features  []byte
	)
	if err := row.Scan(
		&export.ID,
		&export.CompanyID,
		&orderType,
		&export.Season,
		&export.ProductCount,
		&export.RowCount,
		&export.SchemaVersion,
		&export.ByteSize,
		&features,
		&export.CreatedAt,
	); err != nil {
		return domain.WorkbookExport{}, err
	}
	export.OrderType = domain.OrderType(orderType)
	if len(features) > 0 {
		if err := json.Unmarshal(features, &export.Features); err != nil {
			return domain.WorkbookExport{}, fmt.Errorf("failed to decode export features: %w", err)
		}
	}
	return export, nil
}
