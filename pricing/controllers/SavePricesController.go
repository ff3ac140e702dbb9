package controllers

import (
	"errors"

	"retail-backoffice/middleware"
	"retail-backoffice/pricing/requests"
	"retail-backoffice/pricing/services"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
)

// SavePricesController prices the invoice, finalizes it and creates staff tasks.
func (pc *PricingController) SavePricesController(c *fiber.Ctx) error {
	id, ok := invoiceIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	var request requests.SavePricesRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	policy := pc.DefaultRounding
	if request.RoundingPolicy != "" {
		policy = services.RoundingPolicy(request.RoundingPolicy)
	}

	result, err := pc.Finalizer.SavePrices(c.UserContext(), services.CalculateInput{
		InvoiceID:   id,
		Margins:     request.Margins,
		Policy:      policy,
		TriggeredBy: middleware.CurrentUser(c),
	})
	if errors.Is(err, services.ErrIncompletePricing) {
		itemErrors := make([]string, 0, len(result.Calculation.Errors))
		for _, e := range result.Calculation.Errors {
			itemErrors = append(itemErrors, e.Error())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":        "error",
			"message":       err.Error(),
			"item_errors":   itemErrors,
			"price_updates": result.Calculation.Items,
		})
	}
	if err != nil {
		return respondError(c, err, "save prices")
	}

	response := fiber.Map{
		"status":        "success",
		"redirect":      "/api/v1/staff/tasks?invoice_id=" + id.String(),
		"price_updates": result.Calculation.Items,
		"tasks":         result.Tasks,
	}
	if len(result.Warnings) > 0 {
		response["warnings"] = result.Warnings
	}
	return c.JSON(response)
}
