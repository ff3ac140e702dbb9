package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSellingPrice_WorkedExamples(t *testing.T) {
	cases := []struct {
		cost, margin string
		policy       RoundingPolicy
		want         string
	}{
		{"5.00", "45", RoundCharm99, "6.99"},
		{"5.00", "45", RoundPlain, "7.25"},
		{"5.00", "45", RoundCharm95, "6.95"},
		{"1.50", "40", RoundCharm99, "1.99"},
		{"1.50", "40", RoundPlain, "2.10"},
		{"3.10", "50", RoundCharm99, "4.99"}, // 4.65 rounds up to 5
		{"0.00", "30", RoundCharm99, "0.00"},
		{"0.20", "10", RoundCharm95, "0.00"},
	}
	for _, tc := range cases {
		got := SellingPrice(d(tc.cost), d(tc.margin), tc.policy)
		assert.True(t, got.Equal(d(tc.want)), "%s at %s%% %s: got %s want %s", tc.cost, tc.margin, tc.policy, got, tc.want)
	}
}

func TestSellingPrice_Charm99AlwaysEndsInNinetyNine(t *testing.T) {
	for cents := int64(0); cents <= 5000; cents += 37 {
		cost := decimal.New(cents, -2)
		for margin := int64(0); margin <= 100; margin += 5 {
			price := SellingPrice(cost, decimal.NewFromInt(margin), RoundCharm99)
			require.False(t, price.IsNegative(), "cost %s margin %d", cost, margin)
			if price.IsZero() {
				continue
			}
			assert.True(t, strings.HasSuffix(price.StringFixed(2), ".99"), "cost %s margin %d gave %s", cost, margin, price)
		}
	}
}

func TestParseRoundingPolicy(t *testing.T) {
	p, err := ParseRoundingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RoundCharm99, p)

	p, err = ParseRoundingPolicy(" Plain ")
	require.NoError(t, err)
	assert.Equal(t, RoundPlain, p)

	_, err = ParseRoundingPolicy("nearest-dime")
	assert.Error(t, err)
}
