package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type RoundingPolicy string

const (
	RoundCharm99 RoundingPolicy = "charm99"
	RoundCharm95 RoundingPolicy = "charm95"
	RoundPlain   RoundingPolicy = "plain"
)

var (
	oneCent   = decimal.RequireFromString("0.01")
	fiveCents = decimal.RequireFromString("0.05")
	hundred   = decimal.NewFromInt(100)
)

// ParseRoundingPolicy defaults an empty value to charm99.
func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	switch p := RoundingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RoundCharm99, nil
	case RoundCharm99, RoundCharm95, RoundPlain:
		return p, nil
	default:
		return "", fmt.Errorf("unknown rounding policy %q", s)
	}
}

// Apply rounds a raw selling price. Charm prices drop to just below the
// nearest whole unit; nothing is ever returned below zero.
func (p RoundingPolicy) Apply(price decimal.Decimal) decimal.Decimal {
	var rounded decimal.Decimal
	switch p {
	case RoundCharm95:
		rounded = price.Round(0).Sub(fiveCents)
	case RoundPlain:
		rounded = price.Round(2)
	default:
		rounded = price.Round(0).Sub(oneCent)
	}
	if rounded.IsNegative() {
		return decimal.Zero
	}
	return rounded.Round(2)
}

// SellingPrice applies margin (percent) to cost and rounds with the policy.
func SellingPrice(cost, margin decimal.Decimal, policy RoundingPolicy) decimal.Decimal {
	raw := cost.Mul(decimal.NewFromInt(1).Add(margin.Div(hundred)))
	return policy.Apply(raw)
}
