package seeds

import (
	"testing"

	"retail-backoffice/db/models"
	"retail-backoffice/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRetailAll_Rerunnable(t *testing.T) {
	db := testutil.NewTestDB(t)

	require.NoError(t, SeedRetailAll(db, true))
	require.NoError(t, SeedRetailAll(db, true))

	var wholesalers int64
	require.NoError(t, db.Model(&models.Wholesaler{}).Count(&wholesalers).Error)
	assert.EqualValues(t, 2, wholesalers)

	var uncategorized models.Category
	require.NoError(t, db.Where("name = ?", models.UncategorizedCategory).First(&uncategorized).Error)
	assert.True(t, uncategorized.IsActive)
}
