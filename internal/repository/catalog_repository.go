package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = `p.id, p.sku, p.name, p.description, p.category, p.upc, p.msrp,
	p.tier_prices, p.order_types, p.prebook, p.closeout`

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository wires a catalog repository backed by pgxpool.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("catalog repository not initialized")
	}

	var (
		clauses = []string{"p.active"}
		args    []any
	)
	if len(filter.ProductIDs) > 0 {
		args = append(args, uuidStrings(filter.ProductIDs))
		clauses = append(clauses, fmt.Sprintf("p.id = ANY($%d::uuid[])", len(args)))
	}
	if filter.OrderType != "" {
		args = append(args, string(filter.OrderType))
		idx := len(args)
		if filter.OrderType == domain.OrderTypeAtOnce {
			clauses = append(clauses, fmt.Sprintf("(cardinality(p.order_types) = 0 OR $%d = ANY(p.order_types))", idx))
		} else {
			clauses = append(clauses, fmt.Sprintf("$%d = ANY(p.order_types)", idx))
		}
	}
	if season := strings.TrimSpace(filter.Season); season != "" && filter.OrderType == domain.OrderTypePrebook {
		args = append(args, season)
		clauses = append(clauses, fmt.Sprintf("lower(p.prebook ->> 'season') = lower($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM products p WHERE %s ORDER BY p.category, p.name, p.sku`,
		productColumns, strings.Join(clauses, " AND "))
	return r.queryProducts(ctx, query, args...)
}

func (r *catalogRepository) FindBySKUs(ctx context.Context, skus []string) ([]domain.Product, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("catalog repository not initialized")
	}

	normalized := make([]string, 0, len(skus))
	for _, sku := range skus {
		if s := strings.ToUpper(strings.TrimSpace(sku)); s != "" {
			normalized = append(normalized, s)
		}
	}
	if len(normalized) == 0 {
		return []domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products p
		WHERE p.active AND (
			upper(p.sku) = ANY($1::text[])
			OR EXISTS (
				SELECT 1 FROM product_variants v
				WHERE v.product_id = p.id AND upper(v.sku) = ANY($1::text[])
			)
			OR EXISTS (
				SELECT 1 FROM unnest($1::text[]) AS wanted(sku)
				WHERE starts_with(wanted.sku, upper(p.sku) || '-')
			)
		)
		ORDER BY p.sku`, productColumns)
	return r.queryProducts(ctx, query, normalized)
}

func (r *catalogRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var (
		p           domain.Product
		description *string
		upc         *string
		tierPrices  []byte
		orderTypes  []string
		prebook     []byte
		closeout    []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&description,
		&p.Category,
		&upc,
		&p.MSRP,
		&tierPrices,
		&orderTypes,
		&prebook,
		&closeout,
	); err != nil {
		return domain.Product{}, err
	}
	if description != nil {
		p.Description = *description
	}
	if upc != nil {
		p.UPC = *upc
	}

	if len(tierPrices) > 0 {
		prices := map[string]decimal.Decimal{}
		if err := json.Unmarshal(tierPrices, &prices); err != nil {
			return domain.Product{}, fmt.Errorf("product %s tier prices: %w", p.SKU, err)
		}
		p.TierPrices = prices
	}
	for _, raw := range orderTypes {
		t, err := domain.ParseOrderType(raw)
		if err != nil {
			return domain.Product{}, fmt.Errorf("product %s: %w", p.SKU, err)
		}
		p.OrderTypes = append(p.OrderTypes, t)
	}
	if len(prebook) > 0 {
		var terms domain.PrebookTerms
		if err := json.Unmarshal(prebook, &terms); err != nil {
			return domain.Product{}, fmt.Errorf("product %s prebook terms: %w", p.SKU, err)
		}
		p.Prebook = &terms
	}
	if len(closeout) > 0 {
		var terms domain.CloseoutTerms
		if err := json.Unmarshal(closeout, &terms); err != nil {
			return domain.Product{}, fmt.Errorf("product %s closeout terms: %w", p.SKU, err)
		}
		p.Closeout = &terms
	}
	return p, nil
}

func (r *catalogRepository) attachVariants(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	byID := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, COALESCE(sku, ''), COALESCE(color, ''), COALESCE(size, ''), COALESCE(upc, ''), inventory
		 FROM product_variants
		 WHERE product_id = ANY($1::uuid[])
		 ORDER BY product_id, position, id`,
		uuidStrings(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v         domain.Variant
			productID uuid.UUID
		)
		if err := rows.Scan(&v.ID, &productID, &v.SKU, &v.Color, &v.Size, &v.UPC, &v.Inventory); err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		if idx, ok := byID[productID]; ok {
			products[idx].Variants = append(products[idx].Variants, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate variants: %w", err)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
