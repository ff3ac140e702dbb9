package repositories

import (
	"context"
	"testing"
	"time"

	"retail-backoffice/db/models"
	"retail-backoffice/internal/testutil"
	"retail-backoffice/utils"
	"retail-backoffice/utils/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type batch struct {
	category string
	priority models.TaskPriority
	names    []string
}

// seedTasks stores one task per batch, in order, all due at the same time.
func seedTasks(t *testing.T, db *gorm.DB, batches ...batch) {
	t.Helper()
	wholesaler := testutil.CreateWholesaler(t, db)
	invoice := models.Invoice{
		WholesalerID: wholesaler.ID,
		FileName:     "delivery.pdf",
		InvoiceDate:  time.Now(),
		UploadDate:   time.Now(),
		Status:       models.InvoicePricesSet,
	}
	require.NoError(t, db.Create(&invoice).Error)

	due := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	line := 1
	for _, b := range batches {
		for _, name := range b.names {
			require.NoError(t, db.Create(&models.ExtractedLineItem{
				InvoiceID:  invoice.ID,
				LineNumber: line,
				Name:       name,
				Category:   utils.StringPtr(b.category),
				Quantity:   1,
				UnitCost:   decimal.NewFromInt(1),
				Status:     models.LineItemPendingUpdate,
			}).Error)
			line++
		}
		require.NoError(t, db.Create(&models.StaffTask{
			InvoiceID: invoice.ID,
			Category:  b.category,
			ItemCount: len(b.names),
			Priority:  b.priority,
			DueDate:   due,
		}).Error)
	}
}

func TestList_HighPriorityFirstWithinSameDueDate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewStaffTaskRepository(db)
	seedTasks(t, db,
		batch{"Bakery", models.TaskPriorityNormal, []string{"Rolls"}},
		batch{"Juices", models.TaskPriorityNormal, []string{"Apple"}},
		batch{"Dairy", models.TaskPriorityHigh, []string{"Milk"}},
	)

	tasks, total, err := repo.List(context.Background(), TaskFilter{}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	assert.Equal(t, "Dairy", tasks[0].Category)
	assert.Equal(t, models.TaskPriorityHigh, tasks[0].Priority)
}

func TestList_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewStaffTaskRepository(db)
	seedTasks(t, db,
		batch{"Snacks & Chips", models.TaskPriorityNormal, []string{"Crisps 50% extra"}},
		batch{"Soft Drinks", models.TaskPriorityNormal, []string{"Cola_Zero 330ml", "Cola Light"}},
	)
	ctx := context.Background()
	page := pagination.Params{Page: 1, PageSize: 10}

	tasks, total, err := repo.List(ctx, TaskFilter{Search: "50%"}, page)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Snacks & Chips", tasks[0].Category)

	// "%" alone would match every item if it were a wildcard
	_, total, err = repo.List(ctx, TaskFilter{Search: "%"}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	tasks, total, err = repo.List(ctx, TaskFilter{Search: "cola_"}, page)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Soft Drinks", tasks[0].Category)

	// "a_l" matches nothing once "_" is literal
	_, total, err = repo.List(ctx, TaskFilter{Search: "a_l"}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
