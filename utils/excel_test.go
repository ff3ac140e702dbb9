package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGeneratePriceLabelSheet(t *testing.T) {
	data, err := GeneratePriceLabelSheet("Invoice INV-1", []PriceLabelRow{
		{Category: "Hair Care Products", Name: "Shampoo 250ml", Quantity: 10, UnitCost: "5.00", Margin: "45", SellingPrice: "6.99"},
		{Category: "Soaps & Body Wash", Name: "Soap Bar", Quantity: 20, UnitCost: "1.50", Margin: "40", SellingPrice: "1.99"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Price Labels"}, f.GetSheetList())

	title, err := f.GetCellValue("Price Labels", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-1", title)

	name, err := f.GetCellValue("Price Labels", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Soap Bar", name)

	price, err := f.GetCellValue("Price Labels", "F4")
	require.NoError(t, err)
	assert.Equal(t, "6.99", price)
}
