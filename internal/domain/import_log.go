package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogEntry captures one diagnostic raised while importing an order workbook.
type ImportLogEntry struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	ExportID  string    `json:"export_id,omitempty"`
	FileName  string    `json:"file_name"`
	RowNumber *int      `json:"row_number,omitempty"`
	Field     string    `json:"field,omitempty"`
	Code      string    `json:"code"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportLogEntriesFromResult flattens a parse result into log entries. Errors are
// recorded with severity "error".
func ImportLogEntriesFromResult(companyID uuid.UUID, fileName string, result ParsedOrderResult) []ImportLogEntry {
	entries := make([]ImportLogEntry, 0, len(result.Validation.Errors)+len(result.Validation.Warnings))
	for _, e := range result.Validation.Errors {
		entries = append(entries, newImportLogEntry(companyID, result.Metadata.ExportID, fileName, e.Row, e.Field, e.Code, "error", e.Message))
	}
	for _, w := range result.Validation.Warnings {
		entries = append(entries, newImportLogEntry(companyID, result.Metadata.ExportID, fileName, w.Row, w.Field, w.Code, string(w.Severity), w.Message))
	}
	return entries
}

func newImportLogEntry(companyID uuid.UUID, exportID, fileName string, row int, field, code, severity, message string) ImportLogEntry {
	entry := ImportLogEntry{
		CompanyID: companyID,
		ExportID:  exportID,
		FileName:  fileName,
		Field:     field,
		Code:      code,
		Severity:  severity,
		Message:   message,
	}
	if row > 0 {
		r := row
		entry.RowNumber = &r
	}
	return entry
}
