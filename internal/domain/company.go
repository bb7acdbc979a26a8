package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is the buying account an order form is generated for.
type Company struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"accountNumber"`
	PricingTier   string          `json:"pricingTier"`
	PaymentTerms  string          `json:"paymentTerms"`
	CreditLimit   decimal.Decimal `json:"creditLimit"`
	CreditUsed    decimal.Decimal `json:"creditUsed"`
}

// AvailableCredit returns the remaining headroom, which may be negative.
func (c Company) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CreditUsed)
}

// ExceedsCredit reports whether adding amount would push the account past its limit.
// Accounts without a positive limit are treated as having no credit line configured.
func (c Company) ExceedsCredit(amount decimal.Decimal) bool {
	if !c.CreditLimit.IsPositive() {
		return false
	}
	return c.CreditUsed.Add(amount).GreaterThan(c.CreditLimit)
}
