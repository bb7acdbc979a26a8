package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertImportLogSQL = `INSERT INTO workbook_import_logs (company_id, export_id, file_name, row_number, field, code, severity, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func importLogArgs(entry domain.ImportLogEntry) []any {
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}
	var exportID any
	if entry.ExportID != "" {
		exportID = entry.ExportID
	}
	return []any{
		entry.CompanyID,
		exportID,
		entry.FileName,
		rowNumber,
		entry.Field,
		entry.Code,
		entry.Severity,
		entry.Message,
	}
}

type importLogRepository struct {
	pool *pgxpool.Pool
}

// NewImportLogRepository wires a repository backed by pgxpool.
func NewImportLogRepository(pool *pgxpool.Pool) ImportLogRepository {
	return &importLogRepository{pool: pool}
}

// RecordBatch inserts all entries in a single transaction.
func (r *importLogRepository) RecordBatch(ctx context.Context, entries []domain.ImportLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("import log repository not initialized")
	}
	if len(entries) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, entry := range entries {
			batch.Queue(insertImportLogSQL, importLogArgs(entry)...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to record import log batch: %w", err)
		}
		return nil
	})
}

func (r *importLogRepository) List(ctx context.Context, companyID uuid.UUID, exportID string, limit int, offset int) ([]domain.ImportLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, company_id, export_id, file_name, row_number, field, code, severity, message, created_at
		 FROM workbook_import_logs
		 WHERE company_id = $1
		   AND ($2 = '' OR export_id = $2)
		 ORDER BY created_at DESC, row_number NULLS FIRST
		 LIMIT $3 OFFSET $4`,
		companyID,
		exportID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.ImportLogEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportLogEntry
			export    pgtype.Text
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.CompanyID,
			&export,
			&entry.FileName,
			&rowNumber,
			&entry.Field,
			&entry.Code,
			&entry.Severity,
			&entry.Message,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", scanErr)
		}

		if export.Valid {
			entry.ExportID = export.String
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", rowsErr)
	}

	return logs, nil
}
