package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkbookExport is the audit record kept for each generated order form.
type WorkbookExport struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     uuid.UUID `json:"company_id"`
	OrderType     OrderType `json:"order_type"`
	Season        *string   `json:"season,omitempty"`
	ProductCount  int       `json:"product_count"`
	RowCount      int       `json:"row_count"`
	SchemaVersion string    `json:"schema_version"`
	ByteSize      int64     `json:"byte_size"`
	Features      Features  `json:"features"`
	CreatedAt     time.Time `json:"created_at"`
}
