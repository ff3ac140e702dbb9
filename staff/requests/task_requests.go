package requests

type CompleteTaskRequest struct {
	LabelPrinted bool   `json:"label_printed"`
	Notes        string `json:"notes" validate:"max=2000"`
}

type AssignTaskRequest struct {
	AssignedTo string `json:"assigned_to" validate:"required,uuid"`
}
