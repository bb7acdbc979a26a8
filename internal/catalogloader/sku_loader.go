package catalogloader

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/internal/repository"
	"github.com/rpattn/wholesale/internal/workbook"

	"github.com/graph-gophers/dataloader"
)

type ctxKey string

const skuLoaderKey ctxKey = "skuLoader"

// SKULoader batches SKU lookups against the catalog repository. It satisfies
// workbook.Catalog and is meant to live for a single request.
type SKULoader struct {
	Loader *dataloader.Loader
}

var _ workbook.Catalog = (*SKULoader)(nil)

// NewSKULoader builds a loader whose keys are normalized SKUs.
func NewSKULoader(repo repository.CatalogRepository) *SKULoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		skus := keys.Keys()

		products, err := repo.FindBySKUs(ctx, skus)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		index := workbook.IndexProducts(products)

		// Results must line up with keys
		results := make([]*dataloader.Result, len(keys))
		for i, sku := range skus {
			if entry, ok := index.Lookup(sku); ok {
				results[i] = &dataloader.Result{Data: entry}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(2*time.Millisecond))
	return &SKULoader{Loader: loader}
}

// ResolveSKUs loads every SKU in one batch. Unknown SKUs are absent from the result.
func (l *SKULoader) ResolveSKUs(ctx context.Context, skus []string) (map[string]domain.CatalogEntry, error) {
	resolved := make(map[string]domain.CatalogEntry, len(skus))

	keys := make([]string, 0, len(skus))
	seen := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		key := workbook.NormalizeSKU(sku)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return resolved, nil
	}

	values, errs := l.Loader.LoadMany(ctx, dataloader.NewKeysFromStrings(keys))()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to resolve skus: %w", err)
		}
	}

	for i, value := range values {
		if entry, ok := value.(domain.CatalogEntry); ok {
			resolved[keys[i]] = entry
		}
	}
	return resolved, nil
}

// WithLoader stores a loader on the context.
func WithLoader(ctx context.Context, loader *SKULoader) context.Context {
	return context.WithValue(ctx, skuLoaderKey, loader)
}

// FromContext retrieves the request's loader, if any.
func FromContext(ctx context.Context) *SKULoader {
	if l, ok := ctx.Value(skuLoaderKey).(*SKULoader); ok {
		return l
	}
	return nil
}
