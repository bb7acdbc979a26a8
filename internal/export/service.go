package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/internal/repository"
	"github.com/rpattn/wholesale/internal/workbook"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContentType is the MIME type of generated order forms.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service generates order-form workbooks and keeps an audit trail of them.
type Service struct {
	companies repository.CompanyRepository
	catalog   repository.CatalogRepository
	exports   repository.WorkbookExportRepository

	builder        *workbook.Builder
	filenamePrefix string
	logger         zerolog.Logger
	now            func() time.Time
	newID          func() uuid.UUID
}

type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for generation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides export id generation.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithBuilder replaces the workbook builder.
func WithBuilder(builder *workbook.Builder) Option {
	return func(s *Service) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// WithFilenamePrefix sets the leading segment of download filenames.
func WithFilenamePrefix(prefix string) Option {
	return func(s *Service) {
		if p := sanitizeSegment(prefix); p != "" {
			s.filenamePrefix = p
		}
	}
}

func NewService(
	companies repository.CompanyRepository,
	catalog repository.CatalogRepository,
	exports repository.WorkbookExportRepository,
	opts ...Option,
) *Service {
	service := &Service{
		companies:      companies,
		catalog:        catalog,
		exports:        exports,
		builder:        workbook.NewBuilder(),
		filenamePrefix: "order-form",
		logger:         zerolog.Nop(),
		now:            time.Now,
		newID:          uuid.New,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request selects the company and catalog slice for one order form.
type Request struct {
	CompanyID          uuid.UUID
	OrderType          string
	Season             string
	ProductIDs         []uuid.UUID
	AllowPriceOverride bool
}

// Result is a generated order form ready for download.
type Result struct {
	ExportID     string
	FileName     string
	Data         []byte
	Metadata     domain.ProvenanceMetadata
	ProductCount int
	RowCount     int
}

// Build generates the order form for the request.
func (s *Service) Build(ctx context.Context, req Request) (Result, error) {
	if req.CompanyID == uuid.Nil {
		return Result{}, fmt.Errorf("%w: companyId is required", domain.ErrInvalidInput)
	}
	orderType, err := domain.ParseOrderType(req.OrderType)
	if err != nil {
		return Result{}, err
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return Result{}, fmt.Errorf("load company: %w", err)
	}

	products, err := s.catalog.ListProducts(ctx, repository.ProductFilter{
		ProductIDs: req.ProductIDs,
		OrderType:  orderType,
		Season:     req.Season,
	})
	if err != nil {
		return Result{}, fmt.Errorf("load catalog: %w", err)
	}

	generatedAt := s.now().UTC()
	exportID := s.newID()

	built, err := s.builder.Build(workbook.BuildRequest{
		Company:            company,
		OrderType:          orderType,
		ProductIDs:         req.ProductIDs,
		Season:             req.Season,
		AllowPriceOverride: req.AllowPriceOverride,
		ExportID:           exportID.String(),
		GeneratedAt:        generatedAt,
	}, products)
	if err != nil {
		return Result{}, fmt.Errorf("build workbook: %w", err)
	}

	s.recordExport(ctx, domain.WorkbookExport{
		ID:            exportID,
		CompanyID:     company.ID,
		OrderType:     orderType,
		Season:        optionalString(built.Metadata.Season),
		ProductCount:  built.ProductCount,
		RowCount:      built.RowCount,
		SchemaVersion: built.Metadata.SchemaVersion,
		ByteSize:      int64(len(built.Data)),
		Features:      built.Metadata.Features,
		CreatedAt:     generatedAt,
	})

	s.logger.Info().
		Str("export_id", exportID.String()).
		Str("company_id", company.ID.String()).
		Str("order_type", string(orderType)).
		Int("rows", built.RowCount).
		Int("bytes", len(built.Data)).
		Msg("order workbook exported")

	return Result{
		ExportID:     exportID.String(),
		FileName:     s.fileName(company, orderType, generatedAt),
		Data:         built.Data,
		Metadata:     built.Metadata,
		ProductCount: built.ProductCount,
		RowCount:     built.RowCount,
	}, nil
}

// ListExports returns the audit trail for a company, newest first.
func (s *Service) ListExports(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]domain.WorkbookExport, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%w: companyId is required", domain.ErrInvalidInput)
	}
	if s.exports == nil {
		return []domain.WorkbookExport{}, nil
	}
	exports, err := s.exports.List(ctx, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return exports, nil
}

func (s *Service) recordExport(ctx context.Context, record domain.WorkbookExport) {
	if s.exports == nil {
		return
	}
	if err := s.exports.Record(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("export_id", record.ID.String()).Msg("failed to record workbook export")
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeSegment(value string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(value), "-")
	return strings.Trim(cleaned, "-.")
}

func (s *Service) fileName(company domain.Company, orderType domain.OrderType, at time.Time) string {
	account := sanitizeSegment(company.AccountNumber)
	if account == "" {
		account = sanitizeSegment(company.Name)
	}
	if account == "" {
		account = company.ID.String()[:8]
	}
	return fmt.Sprintf("%s-%s-%s-%s.xlsx", s.filenamePrefix, account, orderType, at.Format("20060102"))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
