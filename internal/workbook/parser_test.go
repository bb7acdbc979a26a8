package workbook

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRoundTripPreservesQuantities(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	data := setQuantities(t, form.Data, map[string]any{"TEE-BLK-M": 1, "TEE-HeatherGrey-L": 1, "MUG-01": 1})
	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.True(t, result.Validation.Valid)
	assert.Empty(t, result.Validation.Errors)
	assert.Empty(t, result.Validation.Warnings)
	require.Len(t, result.Items, form.RowCount)
	for _, item := range result.Items {
		assert.Equal(t, 1, item.Quantity)
	}

	assert.Equal(t, "TEE-BLK-M", result.Items[0].SKU)
	assert.Equal(t, 2, result.Items[0].Row)
	require.NotNil(t, result.Items[0].VariantID)
	assert.Equal(t, fx.tee.Variants[0].ID, *result.Items[0].VariantID)
	assert.Equal(t, "012345678905", result.Items[0].UPC)
	assert.Equal(t, "Black / M", result.Items[0].VariantLabel)

	assert.Equal(t, "TEE-HeatherGrey-L", result.Items[1].SKU)
	assert.Nil(t, result.Items[2].VariantID)
	assert.True(t, dec("34.00").Equal(result.Total), "total %s", result.Total)
	assert.Equal(t, form.Metadata.ExportID, result.Metadata.ExportID)
}

func TestParseMergesDuplicateSKURows(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	mugRow := rowOf(t, form.Data, "MUG-01")
	data := editWorkbook(t, form.Data, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("H", mugRow), 3))
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("J", mugRow), "gift wrap"))
	})
	data = appendRow(t, data, map[string]any{"A": "mug-01", "H": 5, "J": "ship separately"})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, 8, item.Quantity)
	assert.Equal(t, mugRow, item.Row)
	assert.Equal(t, "gift wrap; ship separately", item.Notes)
	assert.Equal(t, fx.mug.ID, item.ProductID)
}

func TestParseRecomputesTamperedPrice(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	mugRow := rowOf(t, form.Data, "MUG-01")
	data := editWorkbook(t, form.Data, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("G", mugRow), 1.25))
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("H", mugRow), 2))
	})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	require.Len(t, result.Items, 1)
	assert.True(t, dec("9.00").Equal(result.Items[0].UnitPrice), "unit price %s", result.Items[0].UnitPrice)
	assert.True(t, result.Validation.Valid)
	assert.True(t, result.Validation.HasWarning(domain.CodePriceUpdated))
}

func grantOverrides(_ context.Context, meta domain.ProvenanceMetadata) domain.Features {
	return domain.Features{AllowPriceOverride: true}
}

func TestParseHonoursPriceOverrideWhenPermitted(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce, AllowPriceOverride: true}, fx.products)

	mugRow := rowOf(t, form.Data, "MUG-01")
	data := editWorkbook(t, form.Data, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("G", mugRow), 7.5))
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("H", mugRow), 2))
	})

	result := parseForm(t, data, fixtureCompany(), fx.products, WithPolicy(grantOverrides))

	require.Len(t, result.Items, 1)
	assert.True(t, dec("7.5").Equal(result.Items[0].UnitPrice))
	assert.Equal(t, domain.PriceSourceFile, result.Items[0].PriceSource)
	assert.False(t, result.Validation.HasWarning(domain.CodePriceUpdated))
	assert.True(t, result.Metadata.Features.AllowPriceOverride)
	assert.True(t, result.Metadata.Features.ValidateInventory)
}

func TestParseIgnoresOverrideFlagCarriedInFile(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce, AllowPriceOverride: true}, fx.products)
	require.True(t, form.Metadata.Features.AllowPriceOverride)

	mugRow := rowOf(t, form.Data, "MUG-01")
	data := editWorkbook(t, form.Data, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("G", mugRow), 0.01))
		require.NoError(t, f.SetCellValue(SheetOrder, cellRef("H", mugRow), 100))
	})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	require.Len(t, result.Items, 1)
	assert.True(t, dec("9.00").Equal(result.Items[0].UnitPrice), "unit price %s", result.Items[0].UnitPrice)
	assert.Equal(t, domain.PriceSourceTier, result.Items[0].PriceSource)
	assert.True(t, dec("900").Equal(result.Total), "total %s", result.Total)
	assert.True(t, result.Validation.HasWarning(domain.CodePriceUpdated))
	assert.False(t, result.Metadata.Features.AllowPriceOverride)
}

func TestParsePolicyCannotDisableOrderTypeRules(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeCloseout}, fx.products)
	data := setQuantities(t, form.Data, map[string]any{"JKT-CL": 4})

	relaxed := func(context.Context, domain.ProvenanceMetadata) domain.Features {
		return domain.Features{EnforceMinimums: false}
	}
	result := parseForm(t, data, fixtureCompany(), fx.products, WithPolicy(relaxed))

	assert.True(t, result.Metadata.Features.EnforceMinimums)
	assert.False(t, result.Validation.Valid)
	require.Len(t, result.Validation.Errors, 1)
	assert.Equal(t, domain.CodeBelowMinimum, result.Validation.Errors[0].Code)
}

func TestParseRejectsQuantityAboveLineMaximum(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	for name, qty := range map[string]any{"exponent text": "1e19", "large number": 1e19, "just above cap": maxLineQuantity + 1} {
		t.Run(name, func(t *testing.T) {
			data := setQuantities(t, form.Data, map[string]any{"MUG-01": qty})
			result := parseForm(t, data, fixtureCompany(), fx.products)

			assert.False(t, result.Validation.Valid)
			require.Len(t, result.Validation.Errors, 1)
			assert.Equal(t, domain.CodeInvalidQuantity, result.Validation.Errors[0].Code)
			assert.Empty(t, result.Items)
			assert.True(t, result.Total.IsZero())
		})
	}
}

func TestParseMergedQuantityCannotExceedLineMaximum(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	mugRow := rowOf(t, form.Data, "MUG-01")
	data := setQuantities(t, form.Data, map[string]any{"MUG-01": maxLineQuantity - 10})
	data = appendRow(t, data, map[string]any{"A": "MUG-01", "H": 11})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.False(t, result.Validation.Valid)
	require.Len(t, result.Validation.Errors, 1)
	assert.Equal(t, domain.CodeInvalidQuantity, result.Validation.Errors[0].Code)
	assert.Equal(t, mugRow+1, result.Validation.Errors[0].Row)
	require.Len(t, result.Items, 1)
	assert.Equal(t, maxLineQuantity-10, result.Items[0].Quantity)
	assert.Positive(t, result.Total.Sign())
}

func TestParseResolvesSuffixedSyntheticSKUs(t *testing.T) {
	hat := domain.Product{
		ID:         uuid.MustParse("55555555-5555-5555-5555-555555555555"),
		SKU:        "CAP",
		Name:       "Dock Cap",
		MSRP:       dec("20.00"),
		TierPrices: map[string]decimal.Decimal{"tier-2": dec("11.00")},
		Variants: []domain.Variant{
			{ID: uuid.MustParse("55555555-0000-0000-0000-000000000001"), Color: "Navy Blue", Size: "OS", Inventory: 50},
			{ID: uuid.MustParse("55555555-0000-0000-0000-000000000002"), Color: "NavyBlue", Size: "OS", Inventory: 50},
		},
	}
	products := []domain.Product{hat}
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, products)

	data := setQuantities(t, form.Data, map[string]any{"CAP-NavyBlue-OS": 2, "CAP-NavyBlue-OS-2": 3})
	result := parseForm(t, data, fixtureCompany(), products)

	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "CAP-NavyBlue-OS", result.Items[0].SKU)
	assert.Equal(t, hat.Variants[0].ID, *result.Items[0].VariantID)
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.Equal(t, "CAP-NavyBlue-OS-2", result.Items[1].SKU)
	assert.Equal(t, hat.Variants[1].ID, *result.Items[1].VariantID)
	assert.Equal(t, 3, result.Items[1].Quantity)
}

func TestParseCloseoutPricingAndMinimums(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeCloseout}, fx.products)

	t.Run("closeout discount overrides tier price", func(t *testing.T) {
		data := setQuantities(t, form.Data, map[string]any{"JKT-CL": 10})
		result := parseForm(t, data, fixtureCompany(), fx.products)

		assert.True(t, result.Validation.Valid)
		require.Len(t, result.Items, 1)
		assert.True(t, dec("60").Equal(result.Items[0].UnitPrice), "unit price %s", result.Items[0].UnitPrice)
		assert.Equal(t, domain.OrderTypeCloseout, result.Metadata.OrderType)
	})

	t.Run("below minimum is rejected", func(t *testing.T) {
		data := setQuantities(t, form.Data, map[string]any{"JKT-CL": 4})
		result := parseForm(t, data, fixtureCompany(), fx.products)

		assert.False(t, result.Validation.Valid)
		assert.Empty(t, result.Items)
		require.Len(t, result.Validation.Errors, 1)
		assert.Equal(t, domain.CodeBelowMinimum, result.Validation.Errors[0].Code)
		assert.Equal(t, 2, result.Validation.Errors[0].Row)
		assert.Equal(t, "quantity", result.Validation.Errors[0].Field)
	})

	t.Run("expired closeout warns", func(t *testing.T) {
		expired := fx.jacket
		terms := *expired.Closeout
		past := fixedNow.AddDate(0, 0, -1)
		terms.ExpiresAt = &past
		expired.Closeout = &terms

		data := setQuantities(t, form.Data, map[string]any{"JKT-CL": 12})
		result := parseForm(t, data, fixtureCompany(), []domain.Product{expired})

		assert.True(t, result.Validation.Valid)
		assert.Len(t, result.Items, 1)
		assert.True(t, result.Validation.HasWarning(domain.CodeCloseoutExpired))
	})
}

func TestParsePrebookMinimumUnits(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypePrebook, Season: "FW26"}, fx.products)

	result := parseForm(t, setQuantities(t, form.Data, map[string]any{"BOOT-PB": 3}), fixtureCompany(), fx.products)
	assert.True(t, result.Validation.HasError(domain.CodeBelowMinimum))
	assert.Empty(t, result.Items)

	result = parseForm(t, setQuantities(t, form.Data, map[string]any{"BOOT-PB": 6}), fixtureCompany(), fx.products)
	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Items, 1)
	assert.True(t, dec("110").Equal(result.Items[0].UnitPrice))
}

func TestParseMissingOrderSheetIsFatal(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "SKU"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result := parseForm(t, buf.Bytes(), fixtureCompany(), newCatalogFixture().products)

	assert.False(t, result.Validation.Valid)
	require.Len(t, result.Validation.Errors, 1)
	assert.Equal(t, domain.CodeMissingSheet, result.Validation.Errors[0].Code)
	assert.Empty(t, result.Items)
}

func TestParseUnreadableFile(t *testing.T) {
	result := parseForm(t, []byte("definitely not a workbook"), fixtureCompany(), nil)

	assert.False(t, result.Validation.Valid)
	require.Len(t, result.Validation.Errors, 1)
	assert.Equal(t, domain.CodeParseError, result.Validation.Errors[0].Code)
	assert.Empty(t, result.Items)
	assert.Equal(t, domain.DefaultProvenance().OrderType, result.Metadata.OrderType)
}

func TestParseUnknownSKUOnlyAffectsItsRow(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	data := setQuantities(t, form.Data, map[string]any{"TEE-BLK-M": 2, "MUG-01": 4})
	data = appendRow(t, data, map[string]any{"A": "DOES-NOT-EXIST", "H": 1})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.False(t, result.Validation.Valid)
	require.Len(t, result.Validation.Errors, 1)
	assert.Equal(t, domain.CodeInvalidSKU, result.Validation.Errors[0].Code)
	assert.Equal(t, 5, result.Validation.Errors[0].Row)
	assert.Len(t, result.Items, 2)
}

func TestParseCorruptMetadataFallsBackToDefaults(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	data := setQuantities(t, form.Data, map[string]any{"MUG-01": 2})
	data = editWorkbook(t, data, func(f *excelize.File) {
		require.NoError(t, f.SetCellStr(SheetMeta, MetaCell, "{corrupted"))
	})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.True(t, result.Validation.Valid)
	assert.True(t, result.Validation.HasWarning(domain.CodeMetadataInvalid))
	assert.Equal(t, domain.DefaultProvenance(), result.Metadata)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 2, result.Items[0].Quantity)
}

func TestParseWithoutMetadataSheet(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	data := setQuantities(t, form.Data, map[string]any{"MUG-01": 1})
	data = editWorkbook(t, data, func(f *excelize.File) {
		require.NoError(t, f.DeleteSheet(SheetMeta))
	})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.True(t, result.Validation.Valid)
	assert.True(t, result.Validation.HasWarning(domain.CodeMetadataMissing))
	assert.Len(t, result.Items, 1)
}

func TestParseRowChecks(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	cases := []struct {
		name string
		row  map[string]any
		code string
	}{
		{name: "missing sku", row: map[string]any{"B": "Mystery item", "H": 2}, code: domain.CodeMissingSKU},
		{name: "closeout only product on at-once form", row: map[string]any{"A": "JKT-CL", "H": 10}, code: domain.CodeInvalidOrderType},
		{name: "negative quantity", row: map[string]any{"A": "MUG-01", "H": -2}, code: domain.CodeInvalidQuantity},
		{name: "fractional quantity", row: map[string]any{"A": "MUG-01", "H": 1.5}, code: domain.CodeInvalidQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := appendRow(t, form.Data, tc.row)
			result := parseForm(t, data, fixtureCompany(), fx.products)

			require.Len(t, result.Validation.Errors, 1)
			assert.Equal(t, tc.code, result.Validation.Errors[0].Code)
			assert.Equal(t, 5, result.Validation.Errors[0].Row)
			assert.Empty(t, result.Items)
		})
	}
}

func TestParseSkipsBlankAndZeroQuantityRows(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	data := setQuantities(t, form.Data, map[string]any{"TEE-BLK-M": 0, "MUG-01": "lots"})
	data = appendRow(t, data, map[string]any{"B": "Decorative footer"})

	result := parseForm(t, data, fixtureCompany(), fx.products)

	assert.True(t, result.Validation.Valid)
	assert.Empty(t, result.Validation.Errors)
	assert.Empty(t, result.Items)
}

func TestParseWarnings(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)

	t.Run("company mismatch", func(t *testing.T) {
		other := fixtureCompany()
		other.ID = uuid.New()
		data := setQuantities(t, form.Data, map[string]any{"MUG-01": 1})

		result := parseForm(t, data, other, fx.products)

		assert.True(t, result.Validation.Valid)
		assert.True(t, result.Validation.HasWarning(domain.CodeCompanyMismatch))
		assert.Len(t, result.Items, 1)
	})

	t.Run("low inventory", func(t *testing.T) {
		data := setQuantities(t, form.Data, map[string]any{"TEE-HeatherGrey-L": 5})

		result := parseForm(t, data, fixtureCompany(), fx.products)

		assert.True(t, result.Validation.Valid)
		require.Len(t, result.Validation.Warnings, 1)
		assert.Equal(t, domain.CodeLowInventory, result.Validation.Warnings[0].Code)
		assert.Equal(t, 3, result.Validation.Warnings[0].Row)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 5, result.Items[0].Quantity)
	})

	t.Run("credit headroom", func(t *testing.T) {
		company := fixtureCompany()
		company.CreditLimit = dec("100")
		company.CreditUsed = dec("95")
		data := setQuantities(t, form.Data, map[string]any{"MUG-01": 1})

		result := parseForm(t, data, company, fx.products)

		assert.True(t, result.Validation.Valid)
		require.Len(t, result.Validation.Warnings, 1)
		assert.Equal(t, domain.CodeCreditWarning, result.Validation.Warnings[0].Code)
		assert.Equal(t, 0, result.Validation.Warnings[0].Row)
	})
}

func TestParseFollowsColumnMap(t *testing.T) {
	fx := newCatalogFixture()
	company := fixtureCompany()

	meta := domain.DefaultProvenance()
	meta.Company = domain.CompanySnapshot{ID: company.ID, Name: company.Name, PricingTier: company.PricingTier}
	meta.ExportID = "custom-layout"
	meta.ColumnMap = domain.ColumnMap{
		domain.FieldQuantity:    "A",
		domain.FieldSKU:         "C",
		domain.FieldProductName: "D",
		domain.FieldNotes:       "E",
		domain.FieldUnitPrice:   "F",
		domain.FieldCategory:    "G",
		domain.FieldVariant:     "H",
		domain.FieldUPC:         "I",
		domain.FieldMSRP:        "J",
		domain.FieldLineTotal:   "K",
	}
	encoded, err := EncodeMetadata(meta)
	require.NoError(t, err)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetOrder))
	require.NoError(t, f.SetSheetRow(SheetOrder, "A1", &[]any{"Qty", "", "SKU", "Product", "Notes"}))
	require.NoError(t, f.SetSheetRow(SheetOrder, "A2", &[]any{4, "", "MUG-01", "Camp Mug", "rush"}))
	_, err = f.NewSheet(SheetMeta)
	require.NoError(t, err)
	require.NoError(t, f.SetCellStr(SheetMeta, MetaCell, encoded))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result := parseForm(t, buf.Bytes(), company, fx.products)

	assert.True(t, result.Validation.Valid)
	assert.Empty(t, result.Validation.Warnings)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 4, result.Items[0].Quantity)
	assert.Equal(t, "rush", result.Items[0].Notes)
	assert.Equal(t, "custom-layout", result.Metadata.ExportID)
}

type failingCatalog struct{}

func (failingCatalog) ResolveSKUs(context.Context, []string) (map[string]domain.CatalogEntry, error) {
	return nil, errors.New("catalog offline")
}

type panickingCatalog struct{}

func (panickingCatalog) ResolveSKUs(context.Context, []string) (map[string]domain.CatalogEntry, error) {
	panic("nil map in upstream client")
}

func TestParseConvertsCatalogFailuresToParseError(t *testing.T) {
	fx := newCatalogFixture()
	form := buildForm(t, BuildRequest{OrderType: domain.OrderTypeAtOnce}, fx.products)
	data := setQuantities(t, form.Data, map[string]any{"MUG-01": 1})

	for name, catalog := range map[string]Catalog{"error": failingCatalog{}, "panic": panickingCatalog{}} {
		t.Run(name, func(t *testing.T) {
			result := NewParser(catalog).Parse(context.Background(), data, fixtureCompany())

			assert.False(t, result.Validation.Valid)
			require.Len(t, result.Validation.Errors, 1)
			assert.Equal(t, domain.CodeParseError, result.Validation.Errors[0].Code)
			assert.Empty(t, result.Items)
		})
	}
}
