package workbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/xuri/excelize/v2"
)

const metadataFormat = "wholesale.order-workbook/provenance"

var (
	// ErrMetadataMissing is returned when no metadata blob is present.
	ErrMetadataMissing = errors.New("workbook metadata missing")
	// ErrMalformedMetadata is returned when the blob cannot be interpreted.
	ErrMalformedMetadata = errors.New("workbook metadata malformed")
	// ErrUnsupportedSchemaVersion is returned for layouts this build cannot read.
	ErrUnsupportedSchemaVersion = errors.New("unsupported workbook schema version")
)

// DecodeError describes why a metadata blob could not be decoded.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type envelope struct {
	Format   string                    `json:"format"`
	Version  string                    `json:"version"`
	Metadata domain.ProvenanceMetadata `json:"metadata"`
}

// EncodeMetadata serializes the provenance record into a single tagged JSON value.
func EncodeMetadata(meta domain.ProvenanceMetadata) (string, error) {
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = domain.CurrentSchemaVersion
	}
	if !meta.OrderType.Valid() {
		return "", fmt.Errorf("encode metadata: %w: %q", domain.ErrInvalidOrderType, meta.OrderType)
	}
	payload, err := json.Marshal(envelope{
		Format:   metadataFormat,
		Version:  meta.SchemaVersion,
		Metadata: meta,
	})
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(payload), nil
}

// DecodeMetadata parses a blob produced by EncodeMetadata. Missing column map entries
// are filled from the canonical layout; two mapped fields may not share a column. Feature
// toggles other than AllowPriceOverride are recomputed from the order type.
func DecodeMetadata(raw string) (domain.ProvenanceMetadata, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ProvenanceMetadata{}, &DecodeError{Reason: "empty metadata cell", Err: ErrMetadataMissing}
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return domain.ProvenanceMetadata{}, &DecodeError{Reason: err.Error(), Err: ErrMalformedMetadata}
	}
	if env.Format != metadataFormat {
		return domain.ProvenanceMetadata{}, &DecodeError{Reason: fmt.Sprintf("unexpected format tag %q", env.Format), Err: ErrMalformedMetadata}
	}

	meta := env.Metadata
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = env.Version
	}
	if !supportedSchemaVersion(meta.SchemaVersion) {
		return domain.ProvenanceMetadata{}, &DecodeError{Reason: fmt.Sprintf("version %q", meta.SchemaVersion), Err: ErrUnsupportedSchemaVersion}
	}
	if !meta.OrderType.Valid() {
		return domain.ProvenanceMetadata{}, &DecodeError{Reason: fmt.Sprintf("order type %q", meta.OrderType), Err: ErrMalformedMetadata}
	}

	columns := domain.DefaultColumnMap()
	owners := make(map[string]domain.LogicalField, len(meta.ColumnMap))
	for _, field := range domain.LogicalFields {
		letter, ok := meta.ColumnMap[field]
		if !ok {
			continue
		}
		letter = strings.ToUpper(strings.TrimSpace(letter))
		if _, err := excelize.ColumnNameToNumber(letter); err != nil {
			return domain.ProvenanceMetadata{}, &DecodeError{Reason: fmt.Sprintf("column %q for %s", letter, field), Err: ErrMalformedMetadata}
		}
		if other, taken := owners[letter]; taken {
			return domain.ProvenanceMetadata{}, &DecodeError{
				Reason: fmt.Sprintf("column %s assigned to both %s and %s", letter, other, field),
				Err:    ErrMalformedMetadata,
			}
		}
		owners[letter] = field
		columns[field] = letter
	}
	meta.ColumnMap = columns
	meta.Features = domain.FeaturesFor(meta.OrderType, meta.Features.AllowPriceOverride)

	return meta, nil
}

func schemaMajor(version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	major, _, _ := strings.Cut(version, ".")
	return major
}

func supportedSchemaVersion(version string) bool {
	switch schemaMajor(version) {
	case "1":
		return true
	default:
		return false
	}
}
