package workbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// BuildRequest describes one order form.
type BuildRequest struct {
	Company            domain.Company
	OrderType          domain.OrderType
	ProductIDs         []uuid.UUID
	Season             string
	AllowPriceOverride bool
	ExportID           string
	GeneratedAt        time.Time
}

// BuildResult is the generated workbook plus the facts the caller audits.
type BuildResult struct {
	Data         []byte
	Metadata     domain.ProvenanceMetadata
	ProductCount int
	RowCount     int
}

// Builder renders order forms.
type Builder struct {
	currencyFormat string
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithCurrencyFormat overrides the number format of money columns.
func WithCurrencyFormat(format string) BuilderOption {
	return func(b *Builder) {
		if strings.TrimSpace(format) != "" {
			b.currencyFormat = format
		}
	}
}

// NewBuilder creates a builder with the default layout.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{currencyFormat: DefaultCurrencyFormat}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FilterEligible narrows a catalog to products that belong on the form. Unknown ids in
// productIDs are ignored. Season only applies to prebook forms. Expired closeouts are
// dropped from closeout forms.
func FilterEligible(products []domain.Product, orderType domain.OrderType, productIDs []uuid.UUID, season string, now time.Time) []domain.Product {
	var wanted map[uuid.UUID]struct{}
	if len(productIDs) > 0 {
		wanted = make(map[uuid.UUID]struct{}, len(productIDs))
		for _, id := range productIDs {
			wanted[id] = struct{}{}
		}
	}
	season = strings.TrimSpace(season)

	eligible := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if !product.SupportsOrderType(orderType) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[product.ID]; !ok {
				continue
			}
		}
		if orderType == domain.OrderTypePrebook && season != "" && !product.MatchesSeason(season) {
			continue
		}
		if orderType == domain.OrderTypeCloseout && product.Closeout != nil && product.Closeout.Expired(now) {
			continue
		}
		eligible = append(eligible, product)
	}
	return eligible
}

// Build renders the Order, _Meta and Summary sheets for the eligible products.
func (b *Builder) Build(req BuildRequest, products []domain.Product) (BuildResult, error) {
	if !req.OrderType.Valid() {
		return BuildResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidOrderType, req.OrderType)
	}
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = time.Now().UTC()
	}
	if req.ExportID == "" {
		req.ExportID = uuid.NewString()
	}

	eligible := FilterEligible(products, req.OrderType, req.ProductIDs, req.Season, req.GeneratedAt)

	meta := domain.ProvenanceMetadata{
		SchemaVersion: domain.CurrentSchemaVersion,
		GeneratedAt:   req.GeneratedAt,
		ExportID:      req.ExportID,
		Company: domain.CompanySnapshot{
			ID:          req.Company.ID,
			Name:        req.Company.Name,
			PricingTier: req.Company.PricingTier,
		},
		OrderType: req.OrderType,
		ColumnMap: domain.DefaultColumnMap(),
		Features:  domain.FeaturesFor(req.OrderType, req.AllowPriceOverride),
	}
	if req.OrderType == domain.OrderTypePrebook {
		meta.Season = strings.TrimSpace(req.Season)
	}

	encoded, err := EncodeMetadata(meta)
	if err != nil {
		return BuildResult{}, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	rowCount, err := b.writeOrderSheet(f, meta, eligible)
	if err != nil {
		return BuildResult{}, err
	}
	if err := writeMetaSheet(f, encoded); err != nil {
		return BuildResult{}, err
	}
	if err := b.writeSummarySheet(f, req, meta, eligible); err != nil {
		return BuildResult{}, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return BuildResult{
		Data:         buf.Bytes(),
		Metadata:     meta,
		ProductCount: len(eligible),
		RowCount:     rowCount,
	}, nil
}

func (b *Builder) writeOrderSheet(f *excelize.File, meta domain.ProvenanceMetadata, products []domain.Product) (int, error) {
	if err := f.SetSheetName(f.GetSheetName(0), SheetOrder); err != nil {
		return 0, fmt.Errorf("failed to name order sheet: %w", err)
	}

	cm := meta.ColumnMap
	for _, field := range domain.LogicalFields {
		if err := f.SetCellStr(SheetOrder, cellRef(cm.Column(field), headerRow), columnHeaders[field]); err != nil {
			return 0, fmt.Errorf("failed to write header %s: %w", field, err)
		}
	}

	row := firstDataRow
	for _, product := range products {
		for _, entry := range rowEntries(product) {
			price, _ := domain.ResolveUnitPrice(product, meta.OrderType, meta.Company.PricingTier)
			if err := writeOrderRow(f, cm, row, entry, price); err != nil {
				return 0, err
			}
			row++
		}
	}
	rowCount := row - firstDataRow

	if rowCount > 0 {
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &b.currencyFormat})
		if err != nil {
			return 0, fmt.Errorf("failed to create currency style: %w", err)
		}
		last := firstDataRow + rowCount - 1
		for _, field := range currencyFields {
			col := cm.Column(field)
			if err := f.SetCellStyle(SheetOrder, cellRef(col, firstDataRow), cellRef(col, last), style); err != nil {
				return 0, fmt.Errorf("failed to style %s column: %w", field, err)
			}
		}
	}

	return rowCount, nil
}

func writeOrderRow(f *excelize.File, cm domain.ColumnMap, row int, entry domain.CatalogEntry, price decimal.Decimal) error {
	product := entry.Product
	text := map[domain.LogicalField]string{
		domain.FieldSKU:         entry.SKU,
		domain.FieldProductName: product.Name,
		domain.FieldCategory:    product.Category,
		domain.FieldVariant:     entry.VariantLabel(),
		domain.FieldUPC:         entry.UPC(),
	}
	for _, field := range []domain.LogicalField{domain.FieldSKU, domain.FieldProductName, domain.FieldCategory, domain.FieldVariant, domain.FieldUPC} {
		if text[field] == "" {
			continue
		}
		if err := f.SetCellStr(SheetOrder, cellRef(cm.Column(field), row), text[field]); err != nil {
			return fmt.Errorf("row %d %s: %w", row, field, err)
		}
	}

	if err := f.SetCellValue(SheetOrder, cellRef(cm.Column(domain.FieldMSRP), row), product.MSRP.InexactFloat64()); err != nil {
		return fmt.Errorf("row %d msrp: %w", row, err)
	}
	if err := f.SetCellValue(SheetOrder, cellRef(cm.Column(domain.FieldUnitPrice), row), price.InexactFloat64()); err != nil {
		return fmt.Errorf("row %d unit price: %w", row, err)
	}

	formula := fmt.Sprintf("%s*%s",
		cellRef(cm.Column(domain.FieldUnitPrice), row),
		cellRef(cm.Column(domain.FieldQuantity), row),
	)
	if err := f.SetCellFormula(SheetOrder, cellRef(cm.Column(domain.FieldLineTotal), row), formula); err != nil {
		return fmt.Errorf("row %d line total: %w", row, err)
	}
	return nil
}

func writeMetaSheet(f *excelize.File, encoded string) error {
	if _, err := f.NewSheet(SheetMeta); err != nil {
		return fmt.Errorf("failed to add metadata sheet: %w", err)
	}
	if err := f.SetCellStr(SheetMeta, MetaCell, encoded); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := f.SetSheetVisible(SheetMeta, false); err != nil {
		return fmt.Errorf("failed to hide metadata sheet: %w", err)
	}
	return nil
}

type summaryLine struct {
	label string
	value any
	money bool
}

func (b *Builder) writeSummarySheet(f *excelize.File, req BuildRequest, meta domain.ProvenanceMetadata, products []domain.Product) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	company := req.Company
	lines := []summaryLine{
		{label: "Wholesale Order Form"},
		{},
		{label: "Company", value: company.Name},
		{label: "Account Number", value: company.AccountNumber},
		{label: "Pricing Tier", value: company.PricingTier},
		{label: "Order Type", value: meta.OrderType.Label()},
	}
	if meta.OrderType == domain.OrderTypePrebook {
		lines = append(lines, prebookLines(meta.Season, products)...)
	}
	lines = append(lines,
		summaryLine{label: "Export ID", value: meta.ExportID},
		summaryLine{label: "Generated At", value: meta.GeneratedAt.UTC().Format(time.RFC3339)},
		summaryLine{},
		summaryLine{label: "Payment Terms", value: company.PaymentTerms},
		summaryLine{label: "Credit Limit", value: company.CreditLimit.InexactFloat64(), money: true},
		summaryLine{label: "Credit Used", value: company.CreditUsed.InexactFloat64(), money: true},
		summaryLine{label: "Available Credit", value: company.AvailableCredit().InexactFloat64(), money: true},
		summaryLine{},
		summaryLine{label: "Instructions"},
		summaryLine{value: "Enter quantities in the Quantity column of the Order sheet."},
		summaryLine{value: "Leave the quantity blank or 0 for items you do not want."},
		summaryLine{value: "Do not change SKUs. Rows with the same SKU are combined on upload."},
	)
	if !meta.Features.AllowPriceOverride {
		lines = append(lines, summaryLine{value: "Prices are recalculated from your current pricing when the form is uploaded."})
	}
	if meta.OrderType == domain.OrderTypeCloseout {
		lines = append(lines,
			summaryLine{},
			summaryLine{label: "Closeout Terms"},
			summaryLine{value: "All closeout sales are final. No returns or exchanges."},
			summaryLine{value: "Closeout pricing is available while supplies last and minimum quantities apply."},
		)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &b.currencyFormat})
	if err != nil {
		return fmt.Errorf("failed to create summary currency style: %w", err)
	}

	for i, line := range lines {
		row := i + 1
		if line.label != "" {
			if err := f.SetCellStr(SheetSummary, cellRef("A", row), line.label); err != nil {
				return fmt.Errorf("summary row %d: %w", row, err)
			}
		}
		if line.value == nil {
			continue
		}
		cell := cellRef("B", row)
		if err := f.SetCellValue(SheetSummary, cell, line.value); err != nil {
			return fmt.Errorf("summary row %d: %w", row, err)
		}
		if line.money {
			if err := f.SetCellStyle(SheetSummary, cell, cell, moneyStyle); err != nil {
				return fmt.Errorf("summary row %d style: %w", row, err)
			}
		}
	}
	return nil
}

func prebookLines(season string, products []domain.Product) []summaryLine {
	lines := []summaryLine{}
	if season != "" {
		lines = append(lines, summaryLine{label: "Season", value: season})
	}
	for _, product := range products {
		if product.Prebook == nil {
			continue
		}
		if product.Prebook.DeliveryWindow != "" {
			lines = append(lines, summaryLine{label: "Delivery Window", value: product.Prebook.DeliveryWindow})
		}
		if !product.Prebook.DepositPercent.IsZero() {
			lines = append(lines, summaryLine{
				label: "Deposit",
				value: fmt.Sprintf("%s%% due at booking", product.Prebook.DepositPercent.String()),
			})
		}
		break
	}
	return lines
}
