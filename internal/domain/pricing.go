package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PriceSource names which rule produced a unit price.
type PriceSource string

const (
	PriceSourceCloseout PriceSource = "closeout"
	PriceSourceTier     PriceSource = "tier"
	PriceSourceMSRP     PriceSource = "msrp"
	// PriceSourceFile marks a price taken from the uploaded workbook under an override.
	PriceSourceFile     PriceSource = "file"
)

// ResolveUnitPrice applies the authoritative price rule: closeout discount when the order
// is a closeout and the product carries both an original price and a discount percent,
// otherwise the company's tier price, otherwise MSRP. Prices are rounded to cents.
func ResolveUnitPrice(p Product, orderType OrderType, pricingTier string) (decimal.Decimal, PriceSource) {
	if orderType == OrderTypeCloseout && p.Closeout != nil &&
		p.Closeout.OriginalPrice.IsPositive() && !p.Closeout.DiscountPercent.IsZero() {
		factor := hundred.Sub(p.Closeout.DiscountPercent).Div(hundred)
		return p.Closeout.OriginalPrice.Mul(factor).Round(2), PriceSourceCloseout
	}
	if price, ok := p.TierPrices[pricingTier]; ok {
		return price.Round(2), PriceSourceTier
	}
	return p.MSRP.Round(2), PriceSourceMSRP
}
