package utils

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// PriceLabelRow is one printable shelf label.
type PriceLabelRow struct {
	Category     string
	Name         string
	Quantity     int
	UnitCost     string
	Margin       string
	SellingPrice string
}

var priceLabelHeaders = []string{"Category", "Product", "Quantity", "Unit Cost", "Margin %", "Selling Price"}

// GeneratePriceLabelSheet renders label rows into an in-memory xlsx workbook.
func GeneratePriceLabelSheet(title string, rows []PriceLabelRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Price Labels"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for col, header := range priceLabelHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("error setting header %s: %w", header, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		values := []interface{}{row.Category, row.Name, row.Quantity, row.UnitCost, row.Margin, row.SellingPrice}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+4)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("error writing row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 28); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
