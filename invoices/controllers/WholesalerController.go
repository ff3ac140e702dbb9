package controllers

import (
	"retail-backoffice/db/models"
	"retail-backoffice/invoices/requests"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
)

func (ic *InvoiceController) ListWholesalersController(c *fiber.Ctx) error {
	wholesalers, err := ic.WholesalerRepo.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "list wholesalers")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   wholesalers,
	})
}

func (ic *InvoiceController) CreateWholesalerController(c *fiber.Ctx) error {
	var request requests.CreateWholesalerRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	wholesaler := models.Wholesaler{
		Name:                request.Name,
		ContactPerson:       request.ContactPerson,
		Email:               request.Email,
		Phone:               request.Phone,
		InvoiceParsingNotes: request.InvoiceParsingNotes,
	}
	if err := ic.WholesalerRepo.Create(c.UserContext(), &wholesaler); err != nil {
		return respondError(c, err, "create wholesaler")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   wholesaler,
	})
}
