package workbook

import (
	"fmt"
	"strings"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetOrder holds headers and one row per purchasable unit.
	SheetOrder = "Order"
	// SheetMeta is hidden and carries the encoded provenance record in MetaCell.
	SheetMeta = "_Meta"
	// SheetSummary is the human readable cover sheet.
	SheetSummary = "Summary"
	// MetaCell is the fixed position of the provenance blob on SheetMeta.
	MetaCell = "A1"

	headerRow    = 1
	firstDataRow = 2

	// DefaultCurrencyFormat is applied to MSRP, price and total columns.
	DefaultCurrencyFormat = `"$"#,##0.00`
)

var columnHeaders = map[domain.LogicalField]string{
	domain.FieldSKU:         "SKU",
	domain.FieldProductName: "Product",
	domain.FieldCategory:    "Category",
	domain.FieldVariant:     "Variant",
	domain.FieldUPC:         "UPC",
	domain.FieldMSRP:        "MSRP",
	domain.FieldUnitPrice:   "Unit Price",
	domain.FieldQuantity:    "Quantity",
	domain.FieldLineTotal:   "Line Total",
	domain.FieldNotes:       "Notes",
}

var currencyFields = []domain.LogicalField{domain.FieldMSRP, domain.FieldUnitPrice, domain.FieldLineTotal}

func cellRef(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}

// columnIndexes resolves every logical field to a zero-based index into a row slice.
func columnIndexes(cm domain.ColumnMap) (map[domain.LogicalField]int, error) {
	indexes := make(map[domain.LogicalField]int, len(domain.LogicalFields))
	for _, field := range domain.LogicalFields {
		letter := cm.Column(field)
		n, err := excelize.ColumnNameToNumber(letter)
		if err != nil {
			return nil, fmt.Errorf("column %q for %s: %w", letter, field, err)
		}
		indexes[field] = n - 1
	}
	return indexes, nil
}

func cellValue(row []string, indexes map[domain.LogicalField]int, field domain.LogicalField) string {
	idx, ok := indexes[field]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
