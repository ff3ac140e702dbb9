package services

import (
	"context"
	"fmt"

	category_repositories "retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	"retail-backoffice/db/models"
	invoice_repositories "retail-backoffice/invoices/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CalculateInput struct {
	InvoiceID   uuid.UUID
	Margins     map[string]decimal.Decimal
	Policy      RoundingPolicy
	TriggeredBy *uuid.UUID
}

type PricedItem struct {
	LineItemID   uuid.UUID           `json:"line_item_id"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	CostPrice    decimal.Decimal     `json:"cost_price"`
	Margin       decimal.Decimal     `json:"margin"`
	SellingPrice decimal.Decimal     `json:"selling_price"`
	MarginSource models.MarginSource `json:"margin_source"`
}

type CalculationResult struct {
	InvoiceID uuid.UUID            `json:"invoice_id"`
	Policy    RoundingPolicy       `json:"rounding_policy"`
	Items     []PricedItem         `json:"items"`
	Updates   []models.PriceUpdate `json:"-"`
	Errors    []*PricingInputError `json:"-"`
}

type PriceCalculator struct {
	db         *gorm.DB
	invoices   invoice_repositories.InvoiceRepository
	categories category_repositories.CategoryRepository
}

func NewPriceCalculator(db *gorm.DB, invoices invoice_repositories.InvoiceRepository, categories category_repositories.CategoryRepository) *PriceCalculator {
	return &PriceCalculator{db: db, invoices: invoices, categories: categories}
}

// Calculate prices every line item of the invoice and appends one PriceUpdate
// per priced item. Items that cannot be priced are reported in Errors and left
// untouched; they are never priced at 0%.
func (pc *PriceCalculator) Calculate(ctx context.Context, in CalculateInput) (*CalculationResult, error) {
	for category, margin := range in.Margins {
		if margin.IsNegative() || margin.GreaterThan(hundred) {
			return nil, &PricingInputError{
				Category: category,
				Reason:   fmt.Sprintf("margin %s for %q is outside 0-100", margin, category),
			}
		}
	}
	if in.Policy == "" {
		in.Policy = RoundCharm99
	}

	if _, err := pc.invoices.GetByID(ctx, in.InvoiceID); err != nil {
		return nil, err
	}
	defaults, err := pc.categories.DefaultMargins(ctx)
	if err != nil {
		return nil, err
	}

	result := &CalculationResult{InvoiceID: in.InvoiceID, Policy: in.Policy}

	err = pc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.ExtractedLineItem
		if err := tx.Where("invoice_id = ?", in.InvoiceID).Order("line_number ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return &PricingInputError{Reason: "invoice has no line items"}
		}

		for i := range items {
			item := &items[i]
			margin, source, inputErr := resolveMargin(item, in.Margins, defaults)
			if inputErr != nil {
				result.Errors = append(result.Errors, inputErr)
				continue
			}
			if source == models.MarginFromCategoryDefault {
				config.Logger.Info("No margin requested for category, using its default",
					zap.String("invoice_id", in.InvoiceID.String()),
					zap.String("category", item.CategoryName()),
					zap.String("margin", margin.String()),
				)
			}

			selling := SellingPrice(item.UnitCost, margin, in.Policy)
			update := models.PriceUpdate{
				InvoiceID:       in.InvoiceID,
				LineItemID:      item.ID,
				OldCostPrice:    item.UnitCost,
				NewCostPrice:    item.UnitCost,
				OldSellingPrice: item.SellingPrice,
				NewSellingPrice: selling,
				OldMargin:       item.Margin,
				NewMargin:       margin,
				MarginSource:    source,
				RoundingPolicy:  string(in.Policy),
				UpdatedBy:       in.TriggeredBy,
			}
			if err := tx.Create(&update).Error; err != nil {
				return fmt.Errorf("record price update: %w", err)
			}

			err := tx.Model(&models.ExtractedLineItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"margin":        margin,
				"selling_price": selling,
			}).Error
			if err != nil {
				return fmt.Errorf("update line item price: %w", err)
			}

			result.Updates = append(result.Updates, update)
			result.Items = append(result.Items, PricedItem{
				LineItemID:   item.ID,
				Name:         item.Name,
				Category:     item.CategoryName(),
				CostPrice:    item.UnitCost,
				Margin:       margin,
				SellingPrice: selling,
				MarginSource: source,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	config.Logger.Info("Prices calculated",
		zap.String("invoice_id", in.InvoiceID.String()),
		zap.String("policy", string(in.Policy)),
		zap.Int("priced", len(result.Items)),
		zap.Int("unpriced", len(result.Errors)),
	)
	return result, nil
}

func resolveMargin(item *models.ExtractedLineItem, requested, defaults map[string]decimal.Decimal) (decimal.Decimal, models.MarginSource, *PricingInputError) {
	itemID := item.ID
	category := item.CategoryName()
	if category == "" {
		return decimal.Zero, "", &PricingInputError{
			LineItemID: &itemID,
			Reason:     fmt.Sprintf("%q has no category", item.Name),
		}
	}
	if margin, ok := requested[category]; ok {
		return margin, models.MarginFromRequest, nil
	}
	if margin, ok := defaults[category]; ok {
		return margin, models.MarginFromCategoryDefault, nil
	}
	return decimal.Zero, "", &PricingInputError{
		LineItemID: &itemID,
		Category:   category,
		Reason:     fmt.Sprintf("no margin for category %q", category),
	}
}
