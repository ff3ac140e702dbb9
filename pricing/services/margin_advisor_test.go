package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarginSuggestions_DropsNonFiniteNumbers(t *testing.T) {
	requested := []string{"Soft Drinks", "Snacks & Chips", "Juices"}
	raw := `{
		"Soft Drinks": {"suggested_margin": "NaN"},
		"Snacks & Chips": {"suggested_margin": "+Inf"},
		"Juices": {"suggested_margin": 30, "confidence": "NaN"}
	}`

	var suggestions map[string]Suggestion
	require.NotPanics(t, func() {
		var err error
		suggestions, err = ParseMarginSuggestions(raw, requested)
		require.NoError(t, err)
	})

	require.Len(t, suggestions, 1)
	juices := suggestions["Juices"]
	assert.True(t, juices.Margin.Equal(d("30")))
	assert.Equal(t, 0.5, juices.Confidence, "a non-finite confidence keeps the default")

	_, err := json.Marshal(suggestions)
	assert.NoError(t, err)
}

func TestParseMarginSuggestions_PlainNumbersAndPercentStrings(t *testing.T) {
	suggestions, err := ParseMarginSuggestions(`{"Soft Drinks": 28, "Juices": "35%"}`, []string{"Soft Drinks", "Juices"})
	require.NoError(t, err)
	assert.True(t, suggestions["Soft Drinks"].Margin.Equal(d("28")))
	assert.True(t, suggestions["Juices"].Margin.Equal(d("35")))

	_, err = ParseMarginSuggestions("no json here", []string{"Juices"})
	var formatErr *SuggestionFormatError
	assert.ErrorAs(t, err, &formatErr)
}
