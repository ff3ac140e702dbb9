package requests

// UploadInvoiceRequest holds the multipart form fields sent alongside the file.
type UploadInvoiceRequest struct {
	WholesalerID string `form:"wholesaler_id" validate:"required,uuid"`
	InvoiceDate  string `form:"invoice_date" validate:"required,datetime=2006-01-02"`
	Location     string `form:"location" validate:"omitempty,max=255"`
	AreaType     string `form:"area_type" validate:"omitempty,oneof=urban suburban rural"`
}

type UpdateItemCategoryRequest struct {
	Category string `json:"category" validate:"required,max=100"`
}

type CreateWholesalerRequest struct {
	Name                string `json:"name" validate:"required,max=150"`
	ContactPerson       string `json:"contact_person" validate:"max=100"`
	Email               string `json:"email" validate:"omitempty,email"`
	Phone               string `json:"phone" validate:"max=30"`
	InvoiceParsingNotes string `json:"invoice_parsing_notes"`
}
