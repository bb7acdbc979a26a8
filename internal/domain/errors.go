package domain

import "errors"

var (
	// ErrCompanyNotFound is returned when a company id does not resolve.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrExportNotFound is returned when no audit record exists for an export id.
	ErrExportNotFound = errors.New("workbook export not found")
	// ErrInvalidOrderType is returned for order types outside at-once, prebook and closeout.
	ErrInvalidOrderType = errors.New("invalid order type")
	// ErrInvalidInput flags malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyUpload is returned when an import payload carries no bytes.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)
