package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rpattn/wholesale/internal/catalogloader"
	"github.com/rpattn/wholesale/internal/domain"
	"github.com/rpattn/wholesale/internal/repository"
	"github.com/rpattn/wholesale/internal/workbook"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service imports edited order forms.
type Service struct {
	companies repository.CompanyRepository
	catalog   repository.CatalogRepository
	exports   repository.WorkbookExportRepository
	logRepo   repository.ImportLogRepository

	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for closeout expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new import service.
func NewService(
	companies repository.CompanyRepository,
	catalog repository.CatalogRepository,
	exports repository.WorkbookExportRepository,
	logRepo repository.ImportLogRepository,
	opts ...Option,
) *Service {
	service := &Service{
		companies: companies,
		catalog:   catalog,
		exports:   exports,
		logRepo:   logRepo,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request describes one uploaded workbook.
type Request struct {
	CompanyID uuid.UUID
	FileName  string
	Data      io.Reader
}

// Parse reads the upload and validates it against the company's current account and
// catalog. Problems inside the workbook are reported in the result; only failures that
// prevent parsing from starting are returned as errors.
func (s *Service) Parse(ctx context.Context, req Request) (domain.ParsedOrderResult, error) {
	if req.CompanyID == uuid.Nil {
		return domain.ParsedOrderResult{}, fmt.Errorf("%w: companyId is required", domain.ErrInvalidInput)
	}
	if req.Data == nil {
		return domain.ParsedOrderResult{}, domain.ErrEmptyUpload
	}
	data, err := io.ReadAll(req.Data)
	if err != nil {
		return domain.ParsedOrderResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.ParsedOrderResult{}, domain.ErrEmptyUpload
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return domain.ParsedOrderResult{}, fmt.Errorf("load company: %w", err)
	}

	parser := workbook.NewParser(
		s.catalogFor(ctx),
		workbook.WithClock(s.now),
		workbook.WithPolicy(s.policyFor(company)),
	)
	result := parser.Parse(ctx, data, company)

	s.recordDiagnostics(ctx, req, result)
	s.logOutcome(req, result)

	return result, nil
}

// ListLogs returns recorded import diagnostics for a company, optionally narrowed to one export.
func (s *Service) ListLogs(ctx context.Context, companyID uuid.UUID, exportID string, limit, offset int) ([]domain.ImportLogEntry, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%w: companyId is required", domain.ErrInvalidInput)
	}
	if s.logRepo == nil {
		return []domain.ImportLogEntry{}, nil
	}
	logs, err := s.logRepo.List(ctx, companyID, exportID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}
	return logs, nil
}

func (s *Service) catalogFor(ctx context.Context) workbook.Catalog {
	if loader := catalogloader.FromContext(ctx); loader != nil {
		return loader
	}
	return catalogloader.NewSKULoader(s.catalog)
}

// policyFor grants price overrides only when the export audit record for the workbook's
// exportId says so. The flag carried inside the uploaded file is never trusted.
func (s *Service) policyFor(company domain.Company) workbook.PolicyResolver {
	return func(ctx context.Context, meta domain.ProvenanceMetadata) domain.Features {
		denied := domain.FeaturesFor(meta.OrderType, false)
		if s.exports == nil {
			return denied
		}
		exportID, err := uuid.Parse(meta.ExportID)
		if err != nil {
			return denied
		}
		record, err := s.exports.Get(ctx, company.ID, exportID)
		if err != nil {
			if !errors.Is(err, domain.ErrExportNotFound) {
				s.logger.Warn().Err(err).Str("export_id", meta.ExportID).Msg("failed to load export policy")
			}
			return denied
		}
		if record.OrderType != meta.OrderType {
			return denied
		}
		return domain.FeaturesFor(record.OrderType, record.Features.AllowPriceOverride)
	}
}

func (s *Service) recordDiagnostics(ctx context.Context, req Request, result domain.ParsedOrderResult) {
	if s.logRepo == nil {
		return
	}
	entries := domain.ImportLogEntriesFromResult(req.CompanyID, req.FileName, result)
	if len(entries) == 0 {
		return
	}
	if err := s.logRepo.RecordBatch(ctx, entries); err != nil {
		s.logger.Warn().Err(err).Str("company_id", req.CompanyID.String()).Msg("failed to record import diagnostics")
	}
}

func (s *Service) logOutcome(req Request, result domain.ParsedOrderResult) {
	if result.Validation.HasWarning(domain.CodeMetadataMissing) || result.Validation.HasWarning(domain.CodeMetadataInvalid) {
		s.logger.Warn().
			Str("company_id", req.CompanyID.String()).
			Str("file_name", req.FileName).
			Msg("workbook metadata unavailable, using default layout")
	}

	event := s.logger.Info()
	if !result.Validation.Valid {
		event = s.logger.Warn()
	}
	event.
		Str("company_id", req.CompanyID.String()).
		Str("export_id", result.Metadata.ExportID).
		Str("file_name", req.FileName).
		Int("items", len(result.Items)).
		Int("errors", len(result.Validation.Errors)).
		Int("warnings", len(result.Validation.Warnings)).
		Str("total", result.Total.StringFixed(2)).
		Msg("order workbook imported")
}
