package controllers

import (
	"retail-backoffice/pricing/requests"
	"retail-backoffice/pricing/services"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
)

func (pc *PricingController) SuggestMarginsController(c *fiber.Ctx) error {
	id, ok := invoiceIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	var request requests.SuggestMarginsRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	suggestions, err := pc.MarginAdvisor.Suggest(c.UserContext(), id, services.SuggestInput{
		Categories: request.Categories,
		Location:   request.Location,
		AreaType:   request.AreaType,
	})
	if err != nil {
		return respondError(c, err, "suggest margins")
	}
	return c.JSON(fiber.Map{
		"status":      "success",
		"suggestions": suggestions,
		"insights":    services.LocationInsights(request.AreaType),
	})
}
