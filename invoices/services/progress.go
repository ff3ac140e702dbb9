package services

import (
	"context"

	"retail-backoffice/config"
	"retail-backoffice/invoices/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stage is a labelled progress checkpoint. Percentages only ever increase
// within one attempt.
type stage struct {
	name    string
	percent int
	step    int
	status  string
}

const totalSteps = 7

var (
	stageFetching     = stage{"fetching_document", 10, 1, "Loading the uploaded document"}
	stageExtracting   = stage{"extracting", 20, 2, "Reading line items from the invoice"}
	stageExtracted    = stage{"extracted", 40, 3, "Line items saved"}
	stageCategorizing = stage{"categorizing", 50, 4, "Assigning product categories"}
	stageCategorized  = stage{"categorized", 80, 5, "Categories assigned"}
	stageFinalizing   = stage{"finalizing", 90, 6, "Calculating invoice totals"}
	stageComplete     = stage{"complete", 100, 7, "Invoice processed and ready for pricing"}
)

func (p *Pipeline) checkpointFor(st stage, details map[string]interface{}) repositories.Checkpoint {
	cp := repositories.Checkpoint{
		Stage:          st.name,
		Percentage:     st.percent,
		StepNumber:     st.step,
		TotalSteps:     totalSteps,
		DetailedStatus: st.status,
		StageDetails:   details,
	}
	if st.percent < 100 && p.cfg.ExpectedRunSeconds > 0 {
		remaining := (100 - st.percent) * p.cfg.ExpectedRunSeconds / 100
		cp.EstimatedTimeRemaining = &remaining
	}
	return cp
}

// checkpoint records progress; a failed write is logged but does not stop the run.
func (p *Pipeline) checkpoint(ctx context.Context, invoiceID uuid.UUID, st stage, details map[string]interface{}) {
	saved, err := p.invoices.Progress().Save(ctx, invoiceID, p.checkpointFor(st, details))
	if err != nil {
		config.Logger.Error("Failed to save progress checkpoint",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("stage", st.name),
			zap.Error(err),
		)
		return
	}
	if !saved {
		config.Logger.Warn("Progress checkpoint skipped",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("stage", st.name),
		)
	}
}
