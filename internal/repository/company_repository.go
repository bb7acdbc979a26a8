package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/wholesale/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository wires a company repository backed by pgxpool.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Company, error) {
	if r.pool == nil {
		return domain.Company{}, fmt.Errorf("company repository not initialized")
	}

	var (
		company       domain.Company
		accountNumber *string
		paymentTerms  *string
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, account_number, pricing_tier, payment_terms, credit_limit, credit_used
		 FROM companies
		 WHERE id = $1`,
		id,
	).Scan(
		&company.ID,
		&company.Name,
		&accountNumber,
		&company.PricingTier,
		&paymentTerms,
		&company.CreditLimit,
		&company.CreditUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, fmt.Errorf("company %s: %w", id, domain.ErrCompanyNotFound)
		}
		return domain.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	if accountNumber != nil {
		company.AccountNumber = *accountNumber
	}
	if paymentTerms != nil {
		company.PaymentTerms = *paymentTerms
	}
	return company, nil
}
