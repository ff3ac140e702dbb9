package controllers

import (
	"retail-backoffice/db/models"

	"github.com/gofiber/fiber/v2"
)

func (ic *InvoiceController) GetInvoiceStatusController(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	view, err := ic.Pipeline.Status(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "status")
	}

	if view.Status == models.InvoiceFailed || view.Status == models.InvoiceUploadFailed {
		message := ""
		if view.Error != nil {
			message = *view.Error
		}
		return c.JSON(fiber.Map{
			"status":       string(view.Status),
			"error":        message,
			"progress":     view.Progress,
			"current_step": view.CurrentStep,
			"attempt":      view.Attempt,
		})
	}

	response := fiber.Map{
		"status":          string(view.Status),
		"progress":        view.Progress,
		"current_step":    view.CurrentStep,
		"step_number":     view.StepNumber,
		"total_steps":     view.TotalSteps,
		"detailed_status": view.DetailedStatus,
		"attempt":         view.Attempt,
	}
	if view.EstimatedTimeRemaining != nil {
		response["estimated_time_remaining"] = *view.EstimatedTimeRemaining
	}
	if view.Status == models.InvoiceProcessed {
		response["redirect"] = pricingURL(id)
	}
	return c.JSON(response)
}

// RetryInvoiceController re-runs the pipeline for a failed invoice.
func (ic *InvoiceController) RetryInvoiceController(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	if err := ic.Pipeline.Retry(c.UserContext(), id); err != nil {
		return respondError(c, err, "retry")
	}
	return c.JSON(fiber.Map{
		"status":       "success",
		"invoice_id":   id,
		"redirect_url": pricingURL(id),
	})
}
