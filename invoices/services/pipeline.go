package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	category_repositories "retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	"retail-backoffice/db/models"
	internal_services "retail-backoffice/internal/services"
	"retail-backoffice/invoices/repositories"
	"retail-backoffice/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineConfig is everything the pipeline needs from outside; services read
// no global configuration.
type PipelineConfig struct {
	DocumentModel       internal_services.DocumentModel
	CategorizationModel internal_services.TextModel
	BlobStore           utils.BlobStore
	MaxExtractedItems   int
	AIRequestTimeout    time.Duration
	ExpectedRunSeconds  int
	KeepFailedUploads   bool
}

type StartInput struct {
	Document     []byte
	FileName     string
	MimeType     string
	WholesalerID uuid.UUID
	InvoiceDate  time.Time
	UploaderID   *uuid.UUID
	Location     string
	AreaType     string
}

// StatusView is the polling snapshot of one invoice.
type StatusView struct {
	InvoiceID              uuid.UUID            `json:"invoice_id"`
	Status                 models.InvoiceStatus `json:"status"`
	Progress               int                  `json:"progress"`
	CurrentStep            string               `json:"current_step"`
	StepNumber             int                  `json:"step_number"`
	TotalSteps             int                  `json:"total_steps"`
	Attempt                int                  `json:"attempt"`
	DetailedStatus         string               `json:"detailed_status"`
	EstimatedTimeRemaining *int                 `json:"estimated_time_remaining,omitempty"`
	Error                  *string              `json:"error,omitempty"`
}

type Pipeline struct {
	cfg         PipelineConfig
	invoices    repositories.InvoiceRepository
	wholesalers repositories.WholesalerRepository
	categories  category_repositories.CategoryRepository
	locker      internal_services.InvoiceLocker
	extractor   *DocumentExtractor
	categorizer *Categorizer
}

func NewPipeline(
	cfg PipelineConfig,
	invoices repositories.InvoiceRepository,
	wholesalers repositories.WholesalerRepository,
	categories category_repositories.CategoryRepository,
	locker internal_services.InvoiceLocker,
) *Pipeline {
	if cfg.AIRequestTimeout <= 0 {
		cfg.AIRequestTimeout = 90 * time.Second
	}
	if locker == nil {
		locker = internal_services.NewLocalInvoiceLocker()
	}
	return &Pipeline{
		cfg:         cfg,
		invoices:    invoices,
		wholesalers: wholesalers,
		categories:  categories,
		locker:      locker,
		extractor:   NewDocumentExtractor(cfg.DocumentModel, cfg.MaxExtractedItems),
		categorizer: NewCategorizer(cfg.CategorizationModel),
	}
}

// Process stores the document and runs the whole pipeline in the caller's request.
func (p *Pipeline) Process(ctx context.Context, in StartInput) (uuid.UUID, error) {
	invoiceID, err := p.Start(ctx, in)
	if err != nil {
		return invoiceID, err
	}
	return invoiceID, p.Advance(ctx, invoiceID, in.Document)
}

// Start creates the invoice, transfers the document and opens the first
// processing attempt. A failed transfer leaves no invoice behind unless
// KeepFailedUploads is set.
func (p *Pipeline) Start(ctx context.Context, in StartInput) (uuid.UUID, error) {
	invoice := &models.Invoice{
		WholesalerID: in.WholesalerID,
		ProcessedBy:  in.UploaderID,
		FileName:     in.FileName,
		MimeType:     in.MimeType,
		FileHash:     utils.HashBytes(in.Document),
		InvoiceDate:  in.InvoiceDate,
		Status:       models.InvoiceUploaded,
	}
	if in.Location != "" {
		invoice.Location = utils.StringPtr(in.Location)
	}
	if in.AreaType != "" {
		invoice.AreaType = utils.StringPtr(in.AreaType)
	}
	if err := p.invoices.Create(ctx, invoice); err != nil {
		return uuid.Nil, err
	}

	objectName := fmt.Sprintf("invoices/%s/%s", invoice.ID, utils.CleanStringForFilename(in.FileName))
	started := time.Now()
	locator, err := p.cfg.BlobStore.Upload(ctx, bytes.NewReader(in.Document), objectName, in.MimeType)
	stageDuration.WithLabelValues("upload").Observe(time.Since(started).Seconds())
	if err != nil {
		return invoice.ID, p.failUpload(ctx, invoice.ID, err)
	}

	if err := p.invoices.BeginProcessing(ctx, invoice.ID, locator, totalSteps); err != nil {
		return invoice.ID, fmt.Errorf("start processing: %w", err)
	}

	config.Logger.Info("Invoice uploaded",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("public_id", locator.PublicID),
		zap.Int("size", len(in.Document)),
	)
	return invoice.ID, nil
}

func (p *Pipeline) failUpload(ctx context.Context, invoiceID uuid.UUID, cause error) error {
	stageFailures.WithLabelValues("upload", "transfer").Inc()
	config.Logger.Error("Document transfer failed",
		zap.String("invoice_id", invoiceID.String()),
		zap.Error(cause),
	)

	writeCtx := context.WithoutCancel(ctx)
	err := p.invoices.Transition(writeCtx, invoiceID, models.InvoiceUploadFailed, map[string]interface{}{
		"error_message": cause.Error(),
	})
	if err != nil {
		config.Logger.Error("Failed to record upload failure", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
	}

	if !p.cfg.KeepFailedUploads {
		if _, err := p.invoices.Delete(writeCtx, invoiceID); err != nil {
			config.Logger.Error("Failed to discard invoice after upload failure",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err),
			)
		}
	}
	return &TransferError{InvoiceID: invoiceID, Err: cause}
}

// Advance runs extraction and categorization for an invoice in processing.
// document may be nil, in which case it is read back from the blob store.
func (p *Pipeline) Advance(ctx context.Context, invoiceID uuid.UUID, document []byte) error {
	release, err := p.lock(ctx, invoiceID)
	if err != nil {
		return err
	}
	defer release()

	invoice, err := p.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceProcessing {
		return &repositories.TransitionError{From: invoice.Status, To: models.InvoiceProcessed}
	}
	return p.run(ctx, invoice, document)
}

// Retry restarts a failed invoice from extraction with progress reset to 0.
func (p *Pipeline) Retry(ctx context.Context, invoiceID uuid.UUID) error {
	release, err := p.lock(ctx, invoiceID)
	if err != nil {
		return err
	}
	defer release()

	if err := p.invoices.RestartProcessing(ctx, invoiceID, totalSteps); err != nil {
		return err
	}
	invoice, err := p.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	config.Logger.Info("Retrying invoice processing", zap.String("invoice_id", invoiceID.String()))
	return p.run(ctx, invoice, nil)
}

func (p *Pipeline) Status(ctx context.Context, invoiceID uuid.UUID) (*StatusView, error) {
	invoice, err := p.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		InvoiceID:   invoice.ID,
		Status:      invoice.Status,
		CurrentStep: string(invoice.Status),
		Error:       invoice.ErrorMessage,
	}

	progress, err := p.invoices.Progress().Get(ctx, invoiceID)
	if errors.Is(err, repositories.ErrProgressNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.Progress = progress.Percentage
	view.CurrentStep = progress.CurrentStage
	view.StepNumber = progress.StepNumber
	view.TotalSteps = progress.TotalSteps
	view.Attempt = progress.Attempt
	view.DetailedStatus = progress.DetailedStatus
	view.EstimatedTimeRemaining = progress.EstimatedTimeRemaining
	if view.Error == nil {
		view.Error = progress.ErrorMessage
	}
	return view, nil
}

// SweepStale is scheduled by cron to fail runs interrupted by a crash or restart.
func (p *Pipeline) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return p.invoices.MarkStaleProcessingFailed(ctx, olderThan, "processing interrupted")
}

func (p *Pipeline) lock(ctx context.Context, invoiceID uuid.UUID) (func(), error) {
	release, err := p.locker.Acquire(ctx, invoiceID)
	if errors.Is(err, internal_services.ErrLockNotObtained) {
		return nil, ErrInvoiceBusy
	}
	return release, err
}

func (p *Pipeline) run(ctx context.Context, invoice *models.Invoice, document []byte) error {
	id := invoice.ID

	p.checkpoint(ctx, id, stageFetching, nil)
	if document == nil {
		err := p.callWithTimeout(ctx, "document_fetch", func(callCtx context.Context) error {
			var err error
			document, err = p.fetchDocument(callCtx, invoice)
			return err
		})
		if err != nil {
			return p.fail(ctx, id, stageFetching.name, err)
		}
	}

	p.checkpoint(ctx, id, stageExtracting, nil)
	hint := p.wholesalerHint(ctx, invoice.WholesalerID)
	var extracted []RawLineItem
	err := p.callWithTimeout(ctx, "extraction", func(callCtx context.Context) error {
		var err error
		extracted, err = p.extractor.Extract(callCtx, document, invoice.MimeType, hint)
		return err
	})
	if err != nil {
		return p.fail(ctx, id, stageExtracting.name, err)
	}

	lineItems := make([]models.ExtractedLineItem, len(extracted))
	names := make([]string, len(extracted))
	for i, raw := range extracted {
		lineItems[i] = models.ExtractedLineItem{
			ID:         uuid.New(),
			InvoiceID:  id,
			LineNumber: i + 1,
			Name:       raw.Name,
			Quantity:   raw.Quantity,
			UnitCost:   raw.UnitPrice,
			Status:     models.LineItemPending,
		}
		names[i] = raw.Name
	}
	if err := p.invoices.ReplaceLineItems(ctx, id, lineItems); err != nil {
		return p.fail(ctx, id, stageExtracting.name, err)
	}
	p.checkpoint(ctx, id, stageExtracted, map[string]interface{}{"items": len(lineItems)})

	p.checkpoint(ctx, id, stageCategorizing, nil)
	vocabulary, err := p.categories.ActiveNames(ctx)
	if err != nil {
		return p.fail(ctx, id, stageCategorizing.name, err)
	}
	var assignments []Assignment
	err = p.callWithTimeout(ctx, "categorization", func(callCtx context.Context) error {
		var err error
		assignments, err = p.categorizer.Categorize(callCtx, names, vocabulary)
		return err
	})
	if err != nil {
		return p.fail(ctx, id, stageCategorizing.name, err)
	}

	updates := make([]repositories.CategoryAssignment, 0, len(assignments))
	needsReview := 0
	for _, a := range assignments {
		update := repositories.CategoryAssignment{
			LineItemID:  lineItems[a.ItemIndex].ID,
			NeedsReview: a.NeedsReview,
		}
		if a.Category != "" {
			update.Category = utils.StringPtr(a.Category)
		}
		if a.NeedsReview {
			needsReview++
		}
		updates = append(updates, update)
	}
	if err := p.invoices.ApplyCategories(ctx, id, updates); err != nil {
		return p.fail(ctx, id, stageCategorizing.name, err)
	}
	p.checkpoint(ctx, id, stageCategorized, map[string]interface{}{"needs_review": needsReview})

	p.checkpoint(ctx, id, stageFinalizing, nil)
	complete := p.checkpointFor(stageComplete, map[string]interface{}{
		"items":        len(lineItems),
		"needs_review": needsReview,
	})
	if err := p.invoices.MarkProcessed(ctx, id, complete); err != nil {
		return p.fail(ctx, id, stageFinalizing.name, err)
	}

	runsCompleted.Inc()
	config.Logger.Info("Invoice processed",
		zap.String("invoice_id", id.String()),
		zap.Int("items", len(lineItems)),
		zap.Int("needs_review", needsReview),
	)
	return nil
}

func (p *Pipeline) fetchDocument(ctx context.Context, invoice *models.Invoice) ([]byte, error) {
	if invoice.StoragePublicID == "" {
		return nil, errors.New("invoice has no stored document")
	}
	return p.cfg.BlobStore.Download(ctx, invoice.StoragePublicID)
}

func (p *Pipeline) wholesalerHint(ctx context.Context, wholesalerID uuid.UUID) string {
	if p.wholesalers == nil {
		return ""
	}
	wholesaler, err := p.wholesalers.GetByID(ctx, wholesalerID)
	if err != nil {
		return ""
	}
	return wholesaler.InvoiceParsingNotes
}

// callWithTimeout bounds one external call and turns a deadline into a TimeoutError.
func (p *Pipeline) callWithTimeout(ctx context.Context, stage string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.AIRequestTimeout)
	defer cancel()

	started := time.Now()
	err := fn(callCtx)
	stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())

	if isDeadline(callCtx, err) {
		return &TimeoutError{Stage: stage, Timeout: p.cfg.AIRequestTimeout}
	}
	return err
}

// isDeadline covers calls cut off by the deadline and calls refused early
// because they could not finish before it.
func isDeadline(callCtx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
}

// fail marks the invoice failed with progress frozen at the last checkpoint.
func (p *Pipeline) fail(ctx context.Context, invoiceID uuid.UUID, stage string, cause error) error {
	stageFailures.WithLabelValues(stage, errorKind(cause)).Inc()

	fields := []zap.Field{
		zap.String("invoice_id", invoiceID.String()),
		zap.String("stage", stage),
		zap.Error(cause),
	}
	var formatErr *ExtractionFormatError
	if errors.As(cause, &formatErr) {
		fields = append(fields, zap.String("raw_response", truncate(formatErr.Raw, 2000)))
	}
	var validationErr *CategorizationValidationError
	if errors.As(cause, &validationErr) {
		fields = append(fields, zap.String("raw_response", truncate(validationErr.Raw, 2000)))
	}
	config.Logger.Error("Invoice pipeline stage failed", fields...)

	if err := p.invoices.MarkFailed(context.WithoutCancel(ctx), invoiceID, cause.Error()); err != nil {
		config.Logger.Error("Failed to mark invoice failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
	}
	return &StageError{InvoiceID: invoiceID, Stage: stage, Err: cause}
}
