package workbook

import (
	"context"
	"strings"

	"github.com/rpattn/wholesale/internal/domain"
)

// Catalog resolves sheet SKUs to catalog entries. Keys of the returned map are
// normalized with NormalizeSKU; SKUs that do not resolve are absent.
type Catalog interface {
	ResolveSKUs(ctx context.Context, skus []string) (map[string]domain.CatalogEntry, error)
}

// NormalizeSKU trims and upper-cases a SKU for lookups.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// SKUIndex maps normalized SKUs to catalog entries.
type SKUIndex map[string]domain.CatalogEntry

// IndexProducts indexes base SKUs and every variant row SKU, including synthetic ones.
// The first product to claim a SKU keeps it.
func IndexProducts(products []domain.Product) SKUIndex {
	index := make(SKUIndex)
	for _, product := range products {
		if base := NormalizeSKU(product.SKU); base != "" {
			if _, taken := index[base]; !taken {
				index[base] = domain.CatalogEntry{SKU: strings.TrimSpace(product.SKU), Product: product}
			}
		}
		skus := domain.RowSKUs(product)
		for i := range product.Variants {
			variant := product.Variants[i]
			sku := skus[i]
			key := NormalizeSKU(sku)
			if key == "" {
				continue
			}
			if _, taken := index[key]; taken {
				continue
			}
			index[key] = domain.CatalogEntry{SKU: sku, Product: product, Variant: &variant}
		}
	}
	return index
}

// Lookup returns the entry for a raw SKU.
func (idx SKUIndex) Lookup(sku string) (domain.CatalogEntry, bool) {
	entry, ok := idx[NormalizeSKU(sku)]
	return entry, ok
}

// StaticCatalog serves lookups from an in-memory product list.
type StaticCatalog struct {
	index SKUIndex
}

// NewStaticCatalog indexes the given products.
func NewStaticCatalog(products []domain.Product) *StaticCatalog {
	return &StaticCatalog{index: IndexProducts(products)}
}

// ResolveSKUs implements Catalog.
func (c *StaticCatalog) ResolveSKUs(_ context.Context, skus []string) (map[string]domain.CatalogEntry, error) {
	resolved := make(map[string]domain.CatalogEntry, len(skus))
	for _, sku := range skus {
		if entry, ok := c.index.Lookup(sku); ok {
			resolved[NormalizeSKU(sku)] = entry
		}
	}
	return resolved, nil
}

// rowEntries expands a product into one entry per variant, or a single entry when it
// has no variants. Row SKUs match the ones IndexProducts resolves on import.
func rowEntries(product domain.Product) []domain.CatalogEntry {
	if len(product.Variants) == 0 {
		return []domain.CatalogEntry{{SKU: domain.RowSKU(product, nil), Product: product}}
	}
	skus := domain.RowSKUs(product)
	entries := make([]domain.CatalogEntry, 0, len(product.Variants))
	for i := range product.Variants {
		variant := product.Variants[i]
		entries = append(entries, domain.CatalogEntry{
			SKU:     skus[i],
			Product: product,
			Variant: &variant,
		})
	}
	return entries
}
