package domain

import (
	"fmt"
	"strings"
)

// OrderType enumerates the supported wholesale order types.
type OrderType string

const (
	OrderTypeAtOnce   OrderType = "at-once"
	OrderTypePrebook  OrderType = "prebook"
	OrderTypeCloseout OrderType = "closeout"
)

// Valid reports whether the order type is one of the known values.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeAtOnce, OrderTypePrebook, OrderTypeCloseout:
		return true
	default:
		return false
	}
}

// Label returns a human readable name for summary sheets.
func (t OrderType) Label() string {
	switch t {
	case OrderTypeAtOnce:
		return "At-Once"
	case OrderTypePrebook:
		return "Prebook"
	case OrderTypeCloseout:
		return "Closeout"
	default:
		return string(t)
	}
}

// ParseOrderType normalizes raw input ("at_once", "AT-ONCE", "closeout") into an OrderType.
func ParseOrderType(raw string) (OrderType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "atonce" {
		normalized = string(OrderTypeAtOnce)
	}
	t := OrderType(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderType, raw)
	}
	return t, nil
}
