package domain

// Error codes block order creation.
const (
	CodeMissingSheet     = "MISSING_SHEET"
	CodeParseError       = "PARSE_ERROR"
	CodeMissingSKU       = "MISSING_SKU"
	CodeInvalidSKU       = "INVALID_SKU"
	CodeInvalidOrderType = "INVALID_ORDER_TYPE"
	CodeInvalidQuantity  = "INVALID_QUANTITY"
	CodeBelowMinimum     = "BELOW_MINIMUM"
)

// Warning codes never block order creation.
const (
	CodeCompanyMismatch = "COMPANY_MISMATCH"
	CodeLowInventory    = "LOW_INVENTORY"
	CodeCreditWarning   = "CREDIT_WARNING"
	CodeMetadataMissing = "METADATA_MISSING"
	CodeMetadataInvalid = "METADATA_INVALID"
	CodeCloseoutExpired = "CLOSEOUT_EXPIRED"
	CodePriceUpdated    = "PRICE_UPDATED"
)

// Severity grades a warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// ValidationError is a row-addressable blocking problem. Row 0 addresses the whole file.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationWarning is a row-addressable advisory.
type ValidationWarning struct {
	Row      int      `json:"row"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

// ValidationResult collects diagnostics. Valid is true exactly when Errors is empty.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() ValidationResult {
	return ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

// AddError appends a blocking error and marks the result invalid.
func (r *ValidationResult) AddError(row int, field, code, message string) {
	r.Errors = append(r.Errors, ValidationError{Row: row, Field: field, Code: code, Message: message})
	r.Valid = false
}

// AddWarning appends an advisory warning; Valid is untouched.
func (r *ValidationResult) AddWarning(row int, field, code string, severity Severity, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		Row:      row,
		Field:    field,
		Code:     code,
		Severity: severity,
		Message:  message,
	})
}

// HasError reports whether an error with the given code was recorded.
func (r ValidationResult) HasError(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// HasWarning reports whether a warning with the given code was recorded.
func (r ValidationResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
