package controllers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"retail-backoffice/config"
	"retail-backoffice/invoices/repositories"
	"retail-backoffice/invoices/requests"
	"retail-backoffice/invoices/services"
	"retail-backoffice/middleware"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxUploadBytes = 16 << 20

var invoiceMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// UploadInvoiceController stores the document and runs extraction and
// categorization before responding.
func (ic *InvoiceController) UploadInvoiceController(c *fiber.Ctx) error {
	var request requests.UploadInvoiceRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid form data")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded")
	}
	if fileHeader.Filename == "" {
		return errorJSON(c, fiber.StatusBadRequest, "No file selected")
	}

	mimeType, ok := invoiceMimeTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid file type. Allowed types: PDF, JPG, JPEG, PNG")
	}
	limit := int64(ic.MaxUploadBytes)
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	if fileHeader.Size > limit {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("File exceeds the %d MB limit", limit/(1024*1024)))
	}

	wholesalerID := uuid.MustParse(request.WholesalerID)
	if _, err := ic.WholesalerRepo.GetByID(c.UserContext(), wholesalerID); err != nil {
		if errors.Is(err, repositories.ErrWholesalerNotFound) {
			return errorJSON(c, fiber.StatusBadRequest, "Unknown wholesaler")
		}
		return respondError(c, err, "upload")
	}
	invoiceDate, _ := time.Parse("2006-01-02", request.InvoiceDate)

	src, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	defer src.Close()

	document, tooLarge, err := utils.ReadAllLimited(src, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	if tooLarge {
		return errorJSON(c, fiber.StatusBadRequest, "File exceeds the upload limit")
	}
	if len(document) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Uploaded file is empty")
	}

	invoiceID, err := ic.Pipeline.Process(c.UserContext(), services.StartInput{
		Document:     document,
		FileName:     fileHeader.Filename,
		MimeType:     mimeType,
		WholesalerID: wholesalerID,
		InvoiceDate:  invoiceDate,
		UploaderID:   middleware.CurrentUser(c),
		Location:     request.Location,
		AreaType:     request.AreaType,
	})

	var transferErr *services.TransferError
	var stageErr *services.StageError
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"status":       "success",
			"invoice_id":   invoiceID,
			"redirect_url": pricingURL(invoiceID),
		})
	case errors.As(err, &transferErr):
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	case errors.As(err, &stageErr):
		// the invoice is kept as failed and can be retried
		config.Logger.Warn("Invoice pipeline failed during upload",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("stage", stageErr.Stage),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":       "error",
			"message":      err.Error(),
			"invoice_id":   invoiceID,
			"redirect_url": statusURL(invoiceID),
		})
	default:
		return respondError(c, err, "upload")
	}
}
