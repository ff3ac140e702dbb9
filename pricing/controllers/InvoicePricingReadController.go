package controllers

import (
	"fmt"
	"sort"

	"retail-backoffice/config"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type categorySummary struct {
	Category      string           `json:"category"`
	ItemCount     int              `json:"item_count"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	DefaultMargin *decimal.Decimal `json:"default_margin"`
	Items         []categoryItem   `json:"items"`
}

type categoryItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// GetInvoiceCategoriesController groups the invoice's items by category for
// the pricing screen. Items without a category are listed under "".
func (pc *PricingController) GetInvoiceCategoriesController(c *fiber.Ctx) error {
	id, ok := invoiceIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}
	ctx := c.UserContext()

	invoice, err := pc.InvoiceRepo.GetWithItems(ctx, id)
	if err != nil {
		return respondError(c, err, "load invoice categories")
	}
	defaults, err := pc.CategoryRepo.DefaultMargins(ctx)
	if err != nil {
		return respondError(c, err, "load invoice categories")
	}

	groups := make(map[string]*categorySummary)
	for _, item := range invoice.Items {
		name := item.CategoryName()
		group, ok := groups[name]
		if !ok {
			group = &categorySummary{Category: name, TotalCost: decimal.Zero}
			if margin, found := defaults[name]; found {
				group.DefaultMargin = utils.DecimalPtr(margin)
			}
			groups[name] = group
		}
		group.ItemCount++
		group.TotalCost = group.TotalCost.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
		group.Items = append(group.Items, categoryItem{
			ID:       item.ID.String(),
			Name:     item.Name,
			Quantity: item.Quantity,
			UnitCost: item.UnitCost,
		})
	}

	summaries := make([]categorySummary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, *g)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Category < summaries[j].Category })

	return c.JSON(fiber.Map{
		"status":         "success",
		"invoice_id":     invoice.ID,
		"invoice_status": invoice.Status,
		"location":       invoice.Location,
		"area_type":      invoice.AreaType,
		"categories":     summaries,
	})
}

func (pc *PricingController) GetPriceUpdatesController(c *fiber.Ctx) error {
	id, ok := invoiceIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}
	if _, err := pc.InvoiceRepo.GetByID(c.UserContext(), id); err != nil {
		return respondError(c, err, "load price updates")
	}

	updates, err := pc.PricingRepo.ListPriceUpdates(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "load price updates")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   updates,
	})
}

// GetPriceLabelsController exports the priced items as an xlsx label sheet.
func (pc *PricingController) GetPriceLabelsController(c *fiber.Ctx) error {
	id, ok := invoiceIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	invoice, err := pc.InvoiceRepo.GetWithItems(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "export price labels")
	}

	rows := make([]utils.PriceLabelRow, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		if item.SellingPrice == nil {
			continue
		}
		margin := ""
		if item.Margin != nil {
			margin = item.Margin.StringFixed(2)
		}
		rows = append(rows, utils.PriceLabelRow{
			Category:     item.CategoryName(),
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitCost:     item.UnitCost.StringFixed(2),
			Margin:       margin,
			SellingPrice: item.SellingPrice.StringFixed(2),
		})
	}
	if len(rows) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Invoice has no priced items")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })

	content, err := utils.GeneratePriceLabelSheet(fmt.Sprintf("Price labels: %s", invoice.FileName), rows)
	if err != nil {
		config.Logger.Error("Failed to generate price label sheet", zap.String("invoice_id", id.String()), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate price labels")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="price-labels-%s.xlsx"`, id))
	return c.Send(content)
}
