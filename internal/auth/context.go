package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const companyIDKey contextKey = "companyID"

// CompanyHeader is set by the upstream gateway to pin a request to one buying account.
const CompanyHeader = "X-Company-ID"

// ErrScopeViolation is returned when a request targets a company outside the authenticated scope.
var ErrScopeViolation = errors.New("company outside authenticated scope")

// ContextWithCompanyID returns a new context that carries the authenticated company scope.
func ContextWithCompanyID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, companyIDKey, id)
}

// CompanyIDFromContext retrieves the authenticated company scope from the context, if any.
func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(companyIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceCompanyScope ensures the provided company matches the authenticated scope when present.
func EnforceCompanyScope(ctx context.Context, companyID uuid.UUID) error {
	if companyID == uuid.Nil {
		return fmt.Errorf("companyId is required")
	}
	scopedID, ok := CompanyIDFromContext(ctx)
	if !ok {
		return nil
	}
	if scopedID != companyID {
		return fmt.Errorf("companyId %s: %w", companyID, ErrScopeViolation)
	}
	return nil
}
