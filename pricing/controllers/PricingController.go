package controllers

import (
	"errors"
	"fmt"

	category_repositories "retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	invoice_repositories "retail-backoffice/invoices/repositories"
	invoice_services "retail-backoffice/invoices/services"
	"retail-backoffice/pricing/repositories"
	"retail-backoffice/pricing/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PricingController struct {
	InvoiceRepo   invoice_repositories.InvoiceRepository
	CategoryRepo  category_repositories.CategoryRepository
	PricingRepo   repositories.PricingRepository
	Finalizer     *services.Finalizer
	MarginAdvisor *services.MarginAdvisor
	// used when a request does not name a rounding policy
	DefaultRounding services.RoundingPolicy
}

func invoiceIDParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func respondError(c *fiber.Ctx, err error, action string) error {
	var inputErr *services.PricingInputError
	var timeoutErr *invoice_services.TimeoutError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, invoice_repositories.ErrInvalidTransition):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, invoice_repositories.ErrInvoiceNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &timeoutErr):
		config.Logger.Warn("Pricing model timed out", zap.String("action", action), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	config.Logger.Error("Pricing request failed",
		zap.String("action", action),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to %s", action))
}
