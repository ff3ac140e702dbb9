package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"retail-backoffice/db/models"
	"retail-backoffice/internal/testutil"
	invoice_repositories "retail-backoffice/invoices/repositories"
	"retail-backoffice/staff/repositories"
	"retail-backoffice/utils"
	"retail-backoffice/utils/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	to, subject, body []string
	err               error
}

func (n *recordingNotifier) SendEmail(to, subject, body string) error {
	n.to = append(n.to, to)
	n.subject = append(n.subject, subject)
	n.body = append(n.body, body)
	return n.err
}

// pricedInvoice stores an invoice at prices_set with the given number of
// pending_update items per category.
func pricedInvoice(t *testing.T, db *gorm.DB, batches map[string]int) *models.Invoice {
	t.Helper()
	wholesaler := testutil.CreateWholesaler(t, db)
	processor := uuid.New()
	invoice := models.Invoice{
		WholesalerID: wholesaler.ID,
		ProcessedBy:  &processor,
		FileName:     "delivery.pdf",
		InvoiceDate:  time.Now(),
		UploadDate:   time.Now(),
		Status:       models.InvoicePricesSet,
	}
	require.NoError(t, db.Create(&invoice).Error)

	line := 1
	for category, n := range batches {
		for i := 0; i < n; i++ {
			price := decimal.RequireFromString("2.99")
			item := models.ExtractedLineItem{
				InvoiceID:    invoice.ID,
				LineNumber:   line,
				Name:         fmt.Sprintf("%s item %d", category, i+1),
				Category:     utils.StringPtr(category),
				Quantity:     1,
				UnitCost:     decimal.RequireFromString("2.00"),
				SellingPrice: &price,
				Status:       models.LineItemPendingUpdate,
			}
			require.NoError(t, db.Create(&item).Error)
			line++
		}
	}
	return &invoice
}

func TestGenerateTasks_OnePerCategoryAndIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	invoices := invoice_repositories.NewInvoiceRepository(db)
	notifier := &recordingNotifier{}
	generator := NewTaskGenerator(db, invoices, notifier, TaskGeneratorConfig{NotifyEmail: "floor@example.com"})
	invoice := pricedInvoice(t, db, map[string]int{"Soft Drinks": 2, "Snacks & Chips": 1})
	ctx := context.Background()

	tasks, err := generator.GenerateTasks(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Snacks & Chips", tasks[0].Category)
	assert.Equal(t, 1, tasks[0].ItemCount)
	assert.Equal(t, "Soft Drinks", tasks[1].Category)
	assert.Equal(t, 2, tasks[1].ItemCount)
	for _, task := range tasks {
		assert.Equal(t, models.TaskPending, task.Status)
		assert.Equal(t, models.TaskPriorityNormal, task.Priority)
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, *invoice.ProcessedBy, *task.AssignedTo)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), task.DueDate, time.Minute)
	}

	require.Len(t, notifier.to, 1)
	assert.Equal(t, "floor@example.com", notifier.to[0])
	assert.Contains(t, notifier.body[0], "Soft Drinks: 2 items")

	again, err := generator.GenerateTasks(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Len(t, notifier.to, 1, "no mail when nothing new was created")

	var count int64
	require.NoError(t, db.Model(&models.StaffTask{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGenerateTasks_LargeBatchIsHighPriority(t *testing.T) {
	db := testutil.NewTestDB(t)
	generator := NewTaskGenerator(db, invoice_repositories.NewInvoiceRepository(db), nil, TaskGeneratorConfig{})
	invoice := pricedInvoice(t, db, map[string]int{"Dairy": 11, "Bakery": 10})

	tasks, err := generator.GenerateTasks(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Bakery", tasks[0].Category)
	assert.Equal(t, models.TaskPriorityNormal, tasks[0].Priority)
	assert.Equal(t, "Dairy", tasks[1].Category)
	assert.Equal(t, models.TaskPriorityHigh, tasks[1].Priority)
}

func TestGenerateTasks_NotificationFailureKeepsTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	generator := NewTaskGenerator(db, invoice_repositories.NewInvoiceRepository(db), notifier, TaskGeneratorConfig{NotifyEmail: "floor@example.com"})
	invoice := pricedInvoice(t, db, map[string]int{"Dairy": 1})

	tasks, err := generator.GenerateTasks(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestGenerateTasks_RequiresPricesSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	generator := NewTaskGenerator(db, invoice_repositories.NewInvoiceRepository(db), nil, TaskGeneratorConfig{})
	invoice := pricedInvoice(t, db, map[string]int{"Dairy": 1})
	require.NoError(t, db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Update("status", models.InvoiceProcessed).Error)

	_, err := generator.GenerateTasks(context.Background(), invoice.ID)
	var creationErr *TaskCreationError
	require.True(t, errors.As(err, &creationErr))
	assert.Equal(t, invoice.ID, creationErr.InvoiceID)
}

func TestTaskLifecycle_CompletingLastTaskCompletesInvoice(t *testing.T) {
	db := testutil.NewTestDB(t)
	invoices := invoice_repositories.NewInvoiceRepository(db)
	taskRepo := repositories.NewStaffTaskRepository(db)
	generator := NewTaskGenerator(db, invoices, nil, TaskGeneratorConfig{})
	service := NewTaskService(db, taskRepo, invoices)
	invoice := pricedInvoice(t, db, map[string]int{"Soft Drinks": 2, "Snacks & Chips": 1})
	ctx := context.Background()

	tasks, err := generator.GenerateTasks(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	snacks, drinks := tasks[0], tasks[1]

	detail, err := service.Get(ctx, drinks.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)

	started, err := service.Start(ctx, drinks.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	_, err = service.Start(ctx, drinks.ID)
	assert.ErrorIs(t, err, ErrInvalidTaskState)

	done, err := service.Complete(ctx, drinks.ID, CompleteInput{LabelPrinted: true, Notes: "shelf 4"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)
	assert.True(t, done.LabelPrinted)
	require.NotNil(t, done.CompletionNotes)
	assert.Equal(t, "shelf 4", *done.CompletionNotes)

	current, err := invoices.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePricesSet, current.Status, "one task is still open")

	// a pending task can be completed without being started
	_, err = service.Complete(ctx, snacks.ID, CompleteInput{})
	require.NoError(t, err)

	current, err = invoices.GetWithItems(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceCompleted, current.Status)
	for _, item := range current.Items {
		assert.Equal(t, models.LineItemCompleted, item.Status)
	}

	_, err = service.Complete(ctx, snacks.ID, CompleteInput{})
	assert.ErrorIs(t, err, ErrInvalidTaskState)
}

func TestTaskService_ListFiltersAndAssign(t *testing.T) {
	db := testutil.NewTestDB(t)
	invoices := invoice_repositories.NewInvoiceRepository(db)
	service := NewTaskService(db, repositories.NewStaffTaskRepository(db), invoices)
	invoice := pricedInvoice(t, db, map[string]int{"Soft Drinks": 2, "Snacks & Chips": 1})
	ctx := context.Background()

	_, err := NewTaskGenerator(db, invoices, nil, TaskGeneratorConfig{}).GenerateTasks(ctx, invoice.ID)
	require.NoError(t, err)

	page := pagination.Params{Page: 1, PageSize: 20}
	all, total, err := service.List(ctx, repositories.TaskFilter{InvoiceID: &invoice.ID}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	found, total, err := service.List(ctx, repositories.TaskFilter{Search: "snacks & chips ITEM"}, page)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Snacks & Chips", found[0].Category)

	assignee := uuid.New()
	assigned, err := service.Assign(ctx, found[0].ID, assignee)
	require.NoError(t, err)
	assert.Equal(t, assignee, *assigned.AssignedTo)

	mine, _, err := service.List(ctx, repositories.TaskFilter{AssignedTo: &assignee}, page)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, found[0].ID, mine[0].ID)

	_, err = service.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}
