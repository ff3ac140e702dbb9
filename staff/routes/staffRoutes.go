package routes

import (
	"retail-backoffice/staff/controllers"
	"retail-backoffice/staff/services"

	"github.com/gofiber/fiber/v2"
)

func StaffRouterInit(app *fiber.App, taskService *services.TaskService) {
	taskController := &controllers.StaffTaskController{
		TaskService: taskService,
	}

	staff := app.Group("/api/v1/staff")
	staff.Get("/tasks", taskController.ListTasksController)
	staff.Get("/tasks/:id", taskController.GetTaskController)
	staff.Post("/tasks/:id/start", taskController.StartTaskController)
	staff.Post("/tasks/:id/complete", taskController.CompleteTaskController)
	staff.Patch("/tasks/:id/assign", taskController.AssignTaskController)
}
