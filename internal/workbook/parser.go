package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Parser turns an edited order form back into priced, validated line items.
type Parser struct {
	catalog Catalog
	now     func() time.Time
	policy  PolicyResolver
}

// PolicyResolver returns the features that apply to an upload carrying meta. Only
// AllowPriceOverride is taken from the result; the rest follows the order type.
type PolicyResolver func(ctx context.Context, meta domain.ProvenanceMetadata) domain.Features

// ParserOption customizes a Parser.
type ParserOption func(*Parser)

// WithClock overrides the time source used for closeout expiry checks.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPolicy sets the resolver consulted once metadata has been read. Without one,
// price overrides are never allowed.
func WithPolicy(resolve PolicyResolver) ParserOption {
	return func(p *Parser) {
		if resolve != nil {
			p.policy = resolve
		}
	}
}

func denyOverrides(_ context.Context, meta domain.ProvenanceMetadata) domain.Features {
	return domain.FeaturesFor(meta.OrderType, false)
}

// NewParser creates a parser that resolves SKUs through catalog.
func NewParser(catalog Catalog, opts ...ParserOption) *Parser {
	p := &Parser{catalog: catalog, now: time.Now, policy: denyOverrides}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// sheetRow is a data row that carries a non-zero quantity.
type sheetRow struct {
	number   int
	sku      string
	quantity float64
	price    string
	notes    string
}

// Parse reads the workbook for company. It never returns an error: structural failures
// are reported as a single PARSE_ERROR or MISSING_SHEET diagnostic.
func (p *Parser) Parse(ctx context.Context, data []byte, company domain.Company) (result domain.ParsedOrderResult) {
	result = domain.ParsedOrderResult{
		Items:      []domain.ParsedLineItem{},
		Metadata:   domain.DefaultProvenance(),
		Validation: domain.NewValidationResult(),
		Total:      decimal.Zero,
	}

	defer func() {
		if r := recover(); r != nil {
			result = fatalResult(domain.CodeParseError, fmt.Sprintf("unexpected failure while reading workbook: %v", r))
		}
	}()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fatalResult(domain.CodeParseError, fmt.Sprintf("unable to read workbook: %v", err))
	}
	defer func() { _ = f.Close() }()

	result.Metadata = p.readMetadata(f, company.ID, &result.Validation)
	granted := p.policy(ctx, result.Metadata)
	result.Metadata.Features = domain.FeaturesFor(result.Metadata.OrderType, granted.AllowPriceOverride)

	if !hasSheet(f, SheetOrder) {
		result.Items = []domain.ParsedLineItem{}
		result.Validation.AddError(0, "", domain.CodeMissingSheet, fmt.Sprintf("workbook has no %q sheet", SheetOrder))
		return result
	}

	indexes, err := columnIndexes(result.Metadata.ColumnMap)
	if err != nil {
		return fatalResult(domain.CodeParseError, err.Error())
	}

	rows, err := f.GetRows(SheetOrder, excelize.Options{RawCellValue: true})
	if err != nil {
		return fatalResult(domain.CodeParseError, fmt.Sprintf("unable to read %q rows: %v", SheetOrder, err))
	}

	candidates := collectRows(rows, indexes)

	resolved, err := p.resolve(ctx, candidates)
	if err != nil {
		return fatalResult(domain.CodeParseError, fmt.Sprintf("catalog lookup failed: %v", err))
	}

	v := rowValidator{
		meta:    result.Metadata,
		company: company,
		now:     p.now(),
		result:  &result.Validation,
	}
	merged := newLineMerger()
	for _, row := range candidates {
		item, ok := v.check(row, resolved)
		if !ok {
			continue
		}
		if !merged.add(item) {
			result.Validation.AddError(row.number, string(domain.FieldQuantity), domain.CodeInvalidQuantity,
				fmt.Sprintf("combined quantity for %s exceeds the maximum of %d units", item.SKU, maxLineQuantity))
		}
	}

	result.Items = merged.items()
	result.Total = domain.OrderTotal(result.Items)

	if company.ExceedsCredit(result.Total) {
		result.Validation.AddWarning(0, "", domain.CodeCreditWarning, domain.SeverityWarning, fmt.Sprintf(
			"order total %s plus credit used %s exceeds credit limit %s",
			result.Total.StringFixed(2), company.CreditUsed.StringFixed(2), company.CreditLimit.StringFixed(2),
		))
	}

	return result
}

func fatalResult(code, message string) domain.ParsedOrderResult {
	validation := domain.NewValidationResult()
	validation.AddError(0, "", code, message)
	return domain.ParsedOrderResult{
		Items:      []domain.ParsedLineItem{},
		Metadata:   domain.DefaultProvenance(),
		Validation: validation,
		Total:      decimal.Zero,
	}
}

func hasSheet(f *excelize.File, name string) bool {
	for _, sheet := range f.GetSheetList() {
		if sheet == name {
			return true
		}
	}
	return false
}

// readMetadata recovers the provenance record, substituting defaults with a warning
// when it is absent or unreadable.
func (p *Parser) readMetadata(f *excelize.File, companyID uuid.UUID, validation *domain.ValidationResult) domain.ProvenanceMetadata {
	if !hasSheet(f, SheetMeta) {
		validation.AddWarning(0, "", domain.CodeMetadataMissing, domain.SeverityInfo,
			"workbook carries no metadata; default at-once settings were applied")
		return domain.DefaultProvenance()
	}

	raw, err := f.GetCellValue(SheetMeta, MetaCell)
	if err != nil {
		validation.AddWarning(0, "", domain.CodeMetadataInvalid, domain.SeverityWarning,
			fmt.Sprintf("metadata could not be read (%v); default at-once settings were applied", err))
		return domain.DefaultProvenance()
	}

	meta, err := DecodeMetadata(raw)
	if err != nil {
		code := domain.CodeMetadataInvalid
		severity := domain.SeverityWarning
		if errors.Is(err, ErrMetadataMissing) {
			code = domain.CodeMetadataMissing
			severity = domain.SeverityInfo
		}
		validation.AddWarning(0, "", code, severity,
			fmt.Sprintf("metadata ignored (%v); default at-once settings were applied", err))
		return domain.DefaultProvenance()
	}

	if meta.Company.ID != companyID {
		validation.AddWarning(0, "", domain.CodeCompanyMismatch, domain.SeverityWarning, fmt.Sprintf(
			"workbook was generated for %s (%s); importing for %s",
			meta.Company.Name, meta.Company.ID, companyID,
		))
	}
	return meta
}

// collectRows walks data rows in file order, dropping rows without a usable quantity.
func collectRows(rows [][]string, indexes map[domain.LogicalField]int) []sheetRow {
	candidates := make([]sheetRow, 0, len(rows))
	for idx, row := range rows {
		number := idx + 1
		if number < firstDataRow {
			continue
		}
		quantity, ok := parseQuantity(cellValue(row, indexes, domain.FieldQuantity))
		if !ok || quantity == 0 {
			continue
		}
		candidates = append(candidates, sheetRow{
			number:   number,
			sku:      cellValue(row, indexes, domain.FieldSKU),
			quantity: quantity,
			price:    cellValue(row, indexes, domain.FieldUnitPrice),
			notes:    cellValue(row, indexes, domain.FieldNotes),
		})
	}
	return candidates
}

func (p *Parser) resolve(ctx context.Context, rows []sheetRow) (map[string]domain.CatalogEntry, error) {
	seen := make(map[string]struct{}, len(rows))
	skus := make([]string, 0, len(rows))
	for _, row := range rows {
		key := NormalizeSKU(row.sku)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skus = append(skus, key)
	}
	if len(skus) == 0 || p.catalog == nil {
		return map[string]domain.CatalogEntry{}, nil
	}
	return p.catalog.ResolveSKUs(ctx, skus)
}

func parseQuantity(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return q, true
}

func parsePrice(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
