package controllers

import (
	"errors"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	"retail-backoffice/staff/repositories"
	"retail-backoffice/staff/requests"
	"retail-backoffice/staff/services"
	"retail-backoffice/utils"
	"retail-backoffice/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StaffTaskController struct {
	TaskService *services.TaskService
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func respondError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrTaskNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTaskState):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	config.Logger.Error("Staff task request failed",
		zap.String("action", action),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to "+action)
}

func taskIDParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// ListTasksController supports status, category, search, assigned_to and
// invoice_id filters.
func (tc *StaffTaskController) ListTasksController(c *fiber.Ctx) error {
	params, err := pagination.ParseParams(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	filter := repositories.TaskFilter{
		Category: params.Filters["category"],
		Search:   params.Filters["search"],
	}
	if status := params.Filters["status"]; status != "" {
		switch models.TaskStatus(status) {
		case models.TaskPending, models.TaskInProgress, models.TaskCompleted:
			filter.Status = models.TaskStatus(status)
		default:
			return errorJSON(c, fiber.StatusBadRequest, "Invalid status filter")
		}
	}
	for key, target := range map[string]**uuid.UUID{
		"assigned_to": &filter.AssignedTo,
		"invoice_id":  &filter.InvoiceID,
	} {
		raw := params.Filters[key]
		if raw == "" {
			continue
		}
		id := utils.StringToUUIDPtr(raw)
		if id == nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid "+key+" filter")
		}
		*target = id
	}

	tasks, total, err := tc.TaskService.List(c.UserContext(), filter, params)
	if err != nil {
		return respondError(c, err, "list tasks")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   pagination.NewResponse(tasks, total, params),
	})
}

func (tc *StaffTaskController) GetTaskController(c *fiber.Ctx) error {
	id, ok := taskIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}
	task, err := tc.TaskService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "get task")
	}
	return c.JSON(fiber.Map{"status": "success", "data": task})
}

func (tc *StaffTaskController) StartTaskController(c *fiber.Ctx) error {
	id, ok := taskIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}
	task, err := tc.TaskService.Start(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "start task")
	}
	return c.JSON(fiber.Map{"status": "success", "data": task})
}

func (tc *StaffTaskController) CompleteTaskController(c *fiber.Ctx) error {
	id, ok := taskIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	var request requests.CompleteTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
		}
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := tc.TaskService.Complete(c.UserContext(), id, services.CompleteInput{
		LabelPrinted: request.LabelPrinted,
		Notes:        request.Notes,
	})
	if err != nil {
		return respondError(c, err, "complete task")
	}
	return c.JSON(fiber.Map{"status": "success", "data": task})
}

func (tc *StaffTaskController) AssignTaskController(c *fiber.Ctx) error {
	id, ok := taskIDParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	var request requests.AssignTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := tc.TaskService.Assign(c.UserContext(), id, uuid.MustParse(request.AssignedTo))
	if err != nil {
		return respondError(c, err, "assign task")
	}
	return c.JSON(fiber.Map{"status": "success", "data": task})
}
