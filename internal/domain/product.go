package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant is a purchasable color/size combination of a product.
type Variant struct {
	ID        uuid.UUID `json:"id"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	SKU       string    `json:"sku"`
	UPC       string    `json:"upc,omitempty"`
	Inventory int       `json:"inventory"`
}

// Label renders the variant descriptor shown on the order sheet.
func (v Variant) Label() string {
	parts := make([]string, 0, 2)
	if c := strings.TrimSpace(v.Color); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(v.Size); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " / ")
}

// PrebookTerms carries future-season ordering metadata.
type PrebookTerms struct {
	Season         string          `json:"season"`
	DeliveryWindow string          `json:"deliveryWindow,omitempty"`
	DepositPercent decimal.Decimal `json:"depositPercent"`
	MinimumUnits   int             `json:"minimumUnits,omitempty"`
}

// CloseoutTerms carries clearance pricing metadata.
type CloseoutTerms struct {
	OriginalPrice        decimal.Decimal `json:"originalPrice"`
	DiscountPercent      decimal.Decimal `json:"discountPercent"`
	ExpiresAt            *time.Time      `json:"expiresAt,omitempty"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity,omitempty"`
}

// Expired reports whether the closeout window has closed at the given instant.
func (c CloseoutTerms) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Product is a catalog entry as returned by the catalog lookup.
type Product struct {
	ID          uuid.UUID                  `json:"id"`
	SKU         string                     `json:"sku"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Category    string                     `json:"category"`
	UPC         string                     `json:"upc,omitempty"`
	MSRP        decimal.Decimal            `json:"msrp"`
	TierPrices  map[string]decimal.Decimal `json:"tierPrices,omitempty"`
	Variants    []Variant                  `json:"variants,omitempty"`
	OrderTypes  []OrderType                `json:"orderTypes,omitempty"`
	Prebook     *PrebookTerms              `json:"prebook,omitempty"`
	Closeout    *CloseoutTerms             `json:"closeout,omitempty"`
}

// DeclaresOrderTypes reports whether the product carries an explicit order-type list.
func (p Product) DeclaresOrderTypes() bool {
	return len(p.OrderTypes) > 0
}

// SupportsOrderType checks the explicit order-type list. Products without a list
// are only orderable at-once.
func (p Product) SupportsOrderType(t OrderType) bool {
	if !p.DeclaresOrderTypes() {
		return t == OrderTypeAtOnce
	}
	for _, candidate := range p.OrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// MatchesSeason reports whether the product's prebook season matches, case-insensitively.
func (p Product) MatchesSeason(season string) bool {
	if p.Prebook == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(p.Prebook.Season), strings.TrimSpace(season))
}

// RowSKU returns the SKU used for a sheet row. Variants without their own SKU get a
// synthetic one built from the base SKU, color and size with whitespace removed.
func RowSKU(p Product, v *Variant) string {
	if v == nil {
		return strings.TrimSpace(p.SKU)
	}
	if sku := strings.TrimSpace(v.SKU); sku != "" {
		return sku
	}
	return stripWhitespace(fmt.Sprintf("%s-%s-%s", p.SKU, v.Color, v.Size))
}

// RowSKUs returns the row SKU of every variant, in variant order. A synthetic SKU that
// collides with another row of the same product gets a numeric suffix ("-2", "-3").
// Explicit variant SKUs are never rewritten.
func RowSKUs(p Product) []string {
	skus := make([]string, len(p.Variants))
	claimed := make(map[string]bool, len(p.Variants))
	for i, v := range p.Variants {
		if sku := strings.TrimSpace(v.SKU); sku != "" {
			skus[i] = sku
			claimed[strings.ToUpper(sku)] = true
		}
	}
	for i := range p.Variants {
		if skus[i] != "" {
			continue
		}
		base := RowSKU(p, &p.Variants[i])
		sku := base
		for n := 2; claimed[strings.ToUpper(sku)]; n++ {
			sku = fmt.Sprintf("%s-%d", base, n)
		}
		claimed[strings.ToUpper(sku)] = true
		skus[i] = sku
	}
	return skus
}

func stripWhitespace(value string) string {
	return strings.Join(strings.Fields(value), "")
}

// CatalogEntry is a SKU resolved to its product and, optionally, a specific variant.
type CatalogEntry struct {
	SKU     string   `json:"sku"`
	Product Product  `json:"product"`
	Variant *Variant `json:"variant,omitempty"`
}

// UPC returns the variant UPC when present, falling back to the product UPC.
func (e CatalogEntry) UPC() string {
	if e.Variant != nil && e.Variant.UPC != "" {
		return e.Variant.UPC
	}
	return e.Product.UPC
}

// VariantLabel returns the variant descriptor or an empty string.
func (e CatalogEntry) VariantLabel() string {
	if e.Variant == nil {
		return ""
	}
	return e.Variant.Label()
}
