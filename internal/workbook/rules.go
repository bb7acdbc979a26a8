package workbook

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
)

// maxLineQuantity bounds a single line, including merged duplicate rows.
const maxLineQuantity = math.MaxInt32

// rowValidator applies the order-type rules to one sheet row at a time. The first
// failing check ends validation of that row.
type rowValidator struct {
	meta    domain.ProvenanceMetadata
	company domain.Company
	now     time.Time
	result  *domain.ValidationResult
}

func (v rowValidator) check(row sheetRow, resolved map[string]domain.CatalogEntry) (domain.ParsedLineItem, bool) {
	orderType := v.meta.OrderType
	features := v.meta.Features

	if row.sku == "" {
		v.result.AddError(row.number, string(domain.FieldSKU), domain.CodeMissingSKU, "SKU is required when a quantity is entered")
		return domain.ParsedLineItem{}, false
	}

	entry, ok := resolved[NormalizeSKU(row.sku)]
	if !ok {
		v.result.AddError(row.number, string(domain.FieldSKU), domain.CodeInvalidSKU, fmt.Sprintf("SKU %q was not found in the catalog", row.sku))
		return domain.ParsedLineItem{}, false
	}
	product := entry.Product

	if product.DeclaresOrderTypes() && !product.SupportsOrderType(orderType) {
		v.result.AddError(row.number, string(domain.FieldSKU), domain.CodeInvalidOrderType,
			fmt.Sprintf("%s is not available for %s orders", entry.SKU, orderType.Label()))
		return domain.ParsedLineItem{}, false
	}

	if row.quantity < 1 || row.quantity != math.Trunc(row.quantity) {
		v.result.AddError(row.number, string(domain.FieldQuantity), domain.CodeInvalidQuantity,
			fmt.Sprintf("quantity %v must be a whole number of at least 1", row.quantity))
		return domain.ParsedLineItem{}, false
	}
	if row.quantity > maxLineQuantity {
		v.result.AddError(row.number, string(domain.FieldQuantity), domain.CodeInvalidQuantity,
			fmt.Sprintf("quantity %v exceeds the maximum of %d units", row.quantity, maxLineQuantity))
		return domain.ParsedLineItem{}, false
	}
	quantity := int(row.quantity)

	if minimum := v.minimumFor(product); minimum > 0 && quantity < minimum {
		v.result.AddError(row.number, string(domain.FieldQuantity), domain.CodeBelowMinimum,
			fmt.Sprintf("%s requires a minimum of %d units, got %d", entry.SKU, minimum, quantity))
		return domain.ParsedLineItem{}, false
	}

	price, source := domain.ResolveUnitPrice(product, orderType, v.company.PricingTier)
	if filePrice, ok := parsePrice(row.price); ok {
		switch {
		case features.AllowPriceOverride && filePrice.IsPositive():
			price = filePrice
			source = domain.PriceSourceFile
		case !features.AllowPriceOverride && !filePrice.Equal(price):
			v.result.AddWarning(row.number, string(domain.FieldUnitPrice), domain.CodePriceUpdated, domain.SeverityInfo,
				fmt.Sprintf("price for %s updated from %s to %s", entry.SKU, filePrice.StringFixed(2), price.StringFixed(2)))
		}
	}

	if orderType == domain.OrderTypeCloseout && product.Closeout != nil && product.Closeout.Expired(v.now) {
		v.result.AddWarning(row.number, string(domain.FieldSKU), domain.CodeCloseoutExpired, domain.SeverityWarning,
			fmt.Sprintf("closeout for %s expired on %s", entry.SKU, product.Closeout.ExpiresAt.Format("2006-01-02")))
	}

	if entry.Variant != nil && features.ValidateInventory && orderType == domain.OrderTypeAtOnce && quantity > entry.Variant.Inventory {
		v.result.AddWarning(row.number, string(domain.FieldQuantity), domain.CodeLowInventory, domain.SeverityWarning,
			fmt.Sprintf("requested %d of %s but only %d available", quantity, entry.SKU, entry.Variant.Inventory))
	}

	item := domain.ParsedLineItem{
		ProductID:    product.ID,
		SKU:          entry.SKU,
		Name:         product.Name,
		Quantity:     quantity,
		UnitPrice:    price,
		PriceSource:  source,
		Description:  product.Description,
		VariantLabel: entry.VariantLabel(),
		UPC:          entry.UPC(),
		Notes:        row.notes,
		Row:          row.number,
	}
	if entry.Variant != nil {
		id := entry.Variant.ID
		item.VariantID = &id
	}
	return item, true
}

// minimumFor returns the minimum quantity that applies to a row of product, or 0.
func (v rowValidator) minimumFor(product domain.Product) int {
	switch v.meta.OrderType {
	case domain.OrderTypeCloseout:
		if product.Closeout != nil {
			return product.Closeout.MinimumOrderQuantity
		}
	case domain.OrderTypePrebook:
		if v.meta.Features.EnforceMinimums && product.Prebook != nil {
			return product.Prebook.MinimumUnits
		}
	}
	return 0
}

type lineKey struct {
	productID uuid.UUID
	variantID uuid.UUID
}

// lineMerger sums rows that resolve to the same product and variant, keeping the
// first row number and file order.
type lineMerger struct {
	order []lineKey
	lines map[lineKey]*domain.ParsedLineItem
}

func newLineMerger() *lineMerger {
	return &lineMerger{lines: make(map[lineKey]*domain.ParsedLineItem)}
}

// add merges item into the lines. It reports false, leaving the existing line untouched,
// when the combined quantity would exceed maxLineQuantity.
func (m *lineMerger) add(item domain.ParsedLineItem) bool {
	key := lineKey{productID: item.ProductID}
	if item.VariantID != nil {
		key.variantID = *item.VariantID
	}
	existing, ok := m.lines[key]
	if !ok {
		stored := item
		m.lines[key] = &stored
		m.order = append(m.order, key)
		return true
	}
	if existing.Quantity > maxLineQuantity-item.Quantity {
		return false
	}
	existing.Quantity += item.Quantity
	existing.Notes = joinNotes(existing.Notes, item.Notes)
	return true
}

func (m *lineMerger) items() []domain.ParsedLineItem {
	items := make([]domain.ParsedLineItem, 0, len(m.order))
	for _, key := range m.order {
		items = append(items, *m.lines[key])
	}
	return items
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "; " + b
	}
}
