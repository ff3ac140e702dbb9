package controllers

import (
	"errors"

	"retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CategoryController struct {
	CategoryRepo repositories.CategoryRepository
}

type UpdateDefaultMarginRequest struct {
	DefaultMargin *decimal.Decimal `json:"default_margin" validate:"required"`
}

func (cc *CategoryController) ListCategoriesController(c *fiber.Ctx) error {
	categories, err := cc.CategoryRepo.ListActive(c.UserContext())
	if err != nil {
		config.Logger.Error("Failed to list categories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to list categories",
		})
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   categories,
	})
}

// UpdateDefaultMarginController changes the margin used when pricing falls
// back to the category default.
func (cc *CategoryController) UpdateDefaultMarginController(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid category ID",
		})
	}

	var request UpdateDefaultMarginRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request payload",
		})
	}
	if err := utils.ValidateStruct(request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	margin := *request.DefaultMargin
	if margin.IsNegative() || margin.GreaterThan(decimal.NewFromInt(100)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "default_margin must be between 0 and 100",
		})
	}

	category, err := cc.CategoryRepo.UpdateDefaultMargin(c.UserContext(), id, margin)
	if errors.Is(err, repositories.ErrCategoryNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	if err != nil {
		config.Logger.Error("Failed to update category margin", zap.String("category_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to update category",
		})
	}

	config.Logger.Info("Category default margin updated",
		zap.String("category", category.Name),
		zap.String("default_margin", margin.String()),
	)
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   category,
	})
}
