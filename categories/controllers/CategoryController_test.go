package controllers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retail-backoffice/categories/repositories"
	"retail-backoffice/categories/routes"
	"retail-backoffice/db/models"
	"retail-backoffice/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRoutes(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	app := fiber.New()
	routes.CategoryRouterInit(app, repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []models.Category `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.NotEmpty(t, listed.Data)

	var snacks models.Category
	require.NoError(t, db.First(&snacks, "name = ?", "Snacks & Chips").Error)

	patch := func(id, body string) int {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/categories/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusBadRequest, patch(snacks.ID.String(), `{"default_margin": 150}`))
	assert.Equal(t, fiber.StatusBadRequest, patch(snacks.ID.String(), `{}`))
	assert.Equal(t, fiber.StatusNotFound, patch(uuid.NewString(), `{"default_margin": 20}`))
	assert.Equal(t, fiber.StatusOK, patch(snacks.ID.String(), `{"default_margin": "37.5"}`))

	margins, err := repo.DefaultMargins(t.Context())
	require.NoError(t, err)
	assert.True(t, margins["Snacks & Chips"].Equal(decimal.RequireFromString("37.5")))
}
