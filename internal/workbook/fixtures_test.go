package workbook

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var excelizeRaw = excelize.Options{RawCellValue: true}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func fixtureCompany() domain.Company {
	return domain.Company{
		ID:            uuid.MustParse("7b0f7c1e-6f1c-4a55-9d2f-3c1e2a1b0c01"),
		Name:          "Harbor Outfitters",
		AccountNumber: "HO-1042",
		PricingTier:   "tier-2",
		PaymentTerms:  "Net 30",
	}
}

type catalogFixture struct {
	tee      domain.Product
	mug      domain.Product
	jacket   domain.Product
	boot     domain.Product
	products []domain.Product
}

func newCatalogFixture() catalogFixture {
	expires := fixedNow.Add(30 * 24 * time.Hour)
	fx := catalogFixture{
		tee: domain.Product{
			ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			SKU:        "TEE",
			Name:       "Harbor Tee",
			Category:   "Tops",
			MSRP:       dec("25.00"),
			TierPrices: map[string]decimal.Decimal{"tier-1": dec("14.00"), "tier-2": dec("12.50")},
			Variants: []domain.Variant{
				{ID: uuid.MustParse("11111111-0000-0000-0000-000000000001"), Color: "Black", Size: "M", SKU: "TEE-BLK-M", UPC: "012345678905", Inventory: 10},
				{ID: uuid.MustParse("11111111-0000-0000-0000-000000000002"), Color: "Heather Grey", Size: "L", Inventory: 3},
			},
		},
		mug: domain.Product{
			ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			SKU:        "MUG-01",
			Name:       "Camp Mug",
			Category:   "Home",
			UPC:        "098765432109",
			MSRP:       dec("15.00"),
			TierPrices: map[string]decimal.Decimal{"tier-2": dec("9.00")},
			OrderTypes: []domain.OrderType{domain.OrderTypeAtOnce, domain.OrderTypePrebook},
		},
		jacket: domain.Product{
			ID:         uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			SKU:        "JKT-CL",
			Name:       "Storm Jacket",
			Category:   "Outerwear",
			MSRP:       dec("120.00"),
			TierPrices: map[string]decimal.Decimal{"tier-2": dec("50.00")},
			OrderTypes: []domain.OrderType{domain.OrderTypeCloseout},
			Closeout: &domain.CloseoutTerms{
				OriginalPrice:        dec("100.00"),
				DiscountPercent:      dec("40"),
				ExpiresAt:            &expires,
				MinimumOrderQuantity: 10,
			},
		},
		boot: domain.Product{
			ID:         uuid.MustParse("44444444-4444-4444-4444-444444444444"),
			SKU:        "BOOT-PB",
			Name:       "Trail Boot",
			Category:   "Footwear",
			MSRP:       dec("200.00"),
			TierPrices: map[string]decimal.Decimal{"tier-2": dec("110.00")},
			OrderTypes: []domain.OrderType{domain.OrderTypePrebook},
			Prebook: &domain.PrebookTerms{
				Season:         "FW26",
				DeliveryWindow: "Aug 1 - Aug 31",
				DepositPercent: dec("25"),
				MinimumUnits:   6,
			},
		},
	}
	fx.products = []domain.Product{fx.tee, fx.mug, fx.jacket, fx.boot}
	return fx
}

func buildForm(t *testing.T, req BuildRequest, products []domain.Product) BuildResult {
	t.Helper()
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = fixedNow
	}
	if req.Company.ID == uuid.Nil {
		req.Company = fixtureCompany()
	}
	result, err := NewBuilder().Build(req, products)
	require.NoError(t, err)
	return result
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func editWorkbook(t *testing.T, data []byte, edit func(f *excelize.File)) []byte {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	edit(f)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// rowOf returns the sheet row number holding sku on the order sheet.
func rowOf(t *testing.T, data []byte, sku string) int {
	t.Helper()
	f := openWorkbook(t, data)
	rows, err := f.GetRows(SheetOrder)
	require.NoError(t, err)
	for i, row := range rows {
		if len(row) > 0 && row[0] == sku {
			return i + 1
		}
	}
	t.Fatalf("sku %s not found on order sheet", sku)
	return 0
}

func setQuantities(t *testing.T, data []byte, quantities map[string]any) []byte {
	t.Helper()
	rows := make(map[string]int, len(quantities))
	for sku := range quantities {
		rows[sku] = rowOf(t, data, sku)
	}
	return editWorkbook(t, data, func(f *excelize.File) {
		for sku, qty := range quantities {
			require.NoError(t, f.SetCellValue(SheetOrder, cellRef("H", rows[sku]), qty))
		}
	})
}

func appendRow(t *testing.T, data []byte, values map[string]any) []byte {
	t.Helper()
	f := openWorkbook(t, data)
	rows, err := f.GetRows(SheetOrder)
	require.NoError(t, err)
	next := len(rows) + 1
	return editWorkbook(t, data, func(f *excelize.File) {
		for col, v := range values {
			require.NoError(t, f.SetCellValue(SheetOrder, cellRef(col, next), v))
		}
	})
}

func parseForm(t *testing.T, data []byte, company domain.Company, products []domain.Product, opts ...ParserOption) domain.ParsedOrderResult {
	t.Helper()
	opts = append([]ParserOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	parser := NewParser(NewStaticCatalog(products), opts...)
	return parser.Parse(context.Background(), data, company)
}
