package domain

import (
	"time"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is the layout version written by the workbook builder.
const CurrentSchemaVersion = "1.0.0"

// LogicalField identifies a column on the order sheet independent of its position.
type LogicalField string

const (
	FieldSKU         LogicalField = "sku"
	FieldProductName LogicalField = "productName"
	FieldCategory    LogicalField = "category"
	FieldVariant     LogicalField = "variant"
	FieldUPC         LogicalField = "upc"
	FieldMSRP        LogicalField = "msrp"
	FieldUnitPrice   LogicalField = "unitPrice"
	FieldQuantity    LogicalField = "quantity"
	FieldLineTotal   LogicalField = "lineTotal"
	FieldNotes       LogicalField = "notes"
)

// LogicalFields is the canonical column order of the order sheet.
var LogicalFields = []LogicalField{
	FieldSKU,
	FieldProductName,
	FieldCategory,
	FieldVariant,
	FieldUPC,
	FieldMSRP,
	FieldUnitPrice,
	FieldQuantity,
	FieldLineTotal,
	FieldNotes,
}

// ColumnMap maps logical fields to spreadsheet column letters.
type ColumnMap map[LogicalField]string

// DefaultColumnMap returns the builder's canonical layout (A..J).
func DefaultColumnMap() ColumnMap {
	letters := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	cm := make(ColumnMap, len(LogicalFields))
	for i, field := range LogicalFields {
		cm[field] = letters[i]
	}
	return cm
}

// Column returns the letter for a field, falling back to the canonical layout.
func (m ColumnMap) Column(field LogicalField) string {
	if letter, ok := m[field]; ok && letter != "" {
		return letter
	}
	return DefaultColumnMap()[field]
}

// CompanySnapshot freezes the company identity at export time.
type CompanySnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PricingTier string    `json:"pricingTier"`
}

// Features are behavior toggles resolved at export time from order-type rules.
type Features struct {
	AllowPriceOverride bool `json:"allowPriceOverride"`
	EnforceMinimums    bool `json:"enforceMinimums"`
	ValidateInventory  bool `json:"validateInventory"`
}

// FeaturesFor resolves the toggles for an order type. Closeout and prebook enforce
// minimums; at-once validates inventory.
func FeaturesFor(orderType OrderType, allowPriceOverride bool) Features {
	return Features{
		AllowPriceOverride: allowPriceOverride,
		EnforceMinimums:    orderType == OrderTypeCloseout || orderType == OrderTypePrebook,
		ValidateInventory:  orderType == OrderTypeAtOnce,
	}
}

// ProvenanceMetadata is the record embedded in every exported workbook.
type ProvenanceMetadata struct {
	SchemaVersion string          `json:"schemaVersion"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	ExportID      string          `json:"exportId"`
	Company       CompanySnapshot `json:"company"`
	OrderType     OrderType       `json:"orderType"`
	Season        string          `json:"season,omitempty"`
	ColumnMap     ColumnMap       `json:"columnMap"`
	Features      Features        `json:"features"`
}

// DefaultProvenance is substituted when an uploaded workbook carries no usable metadata.
func DefaultProvenance() ProvenanceMetadata {
	return ProvenanceMetadata{
		SchemaVersion: CurrentSchemaVersion,
		OrderType:     OrderTypeAtOnce,
		ColumnMap:     DefaultColumnMap(),
		Features: Features{
			AllowPriceOverride: false,
			EnforceMinimums:    false,
			ValidateInventory:  true,
		},
	}
}
