package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParsedLineItem is one priced order line recovered from an uploaded workbook.
type ParsedLineItem struct {
	ProductID    uuid.UUID       `json:"productId"`
	VariantID    *uuid.UUID      `json:"variantId,omitempty"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	PriceSource  PriceSource     `json:"priceSource"`
	Description  string          `json:"description,omitempty"`
	VariantLabel string          `json:"variantLabel,omitempty"`
	UPC          string          `json:"upc,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Row          int             `json:"row"`
}

// LineTotal returns unit price times quantity.
func (i ParsedLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ParsedOrderResult is the complete outcome of an import.
type ParsedOrderResult struct {
	Items      []ParsedLineItem   `json:"items"`
	Metadata   ProvenanceMetadata `json:"metadata"`
	Validation ValidationResult   `json:"validation"`
	Total      decimal.Decimal    `json:"total"`
}

// OrderTotal sums line totals across items.
func OrderTotal(items []ParsedLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
