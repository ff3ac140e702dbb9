package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	category_repositories "retail-backoffice/categories/repositories"
	internal_services "retail-backoffice/internal/services"
	"retail-backoffice/internal/testutil"
	invoice_repositories "retail-backoffice/invoices/repositories"
	invoice_services "retail-backoffice/invoices/services"
	"retail-backoffice/middleware"
	"retail-backoffice/pricing/controllers"
	"retail-backoffice/pricing/repositories"
	"retail-backoffice/pricing/routes"
	"retail-backoffice/pricing/services"
	staff_services "retail-backoffice/staff/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pricingAPI struct {
	app       *fiber.App
	text      *testutil.FakeTextModel
	invoiceID uuid.UUID
}

func newPricingAPI(t *testing.T) *pricingAPI {
	t.Helper()
	db := testutil.NewTestDB(t)
	invoices := invoice_repositories.NewInvoiceRepository(db)
	categories := category_repositories.NewCategoryRepository(db)
	wholesaler := testutil.CreateWholesaler(t, db)

	pipeline := invoice_services.NewPipeline(invoice_services.PipelineConfig{
		DocumentModel: &testutil.FakeDocumentModel{
			Response: `{"products":[{"name":"Fanta 2L","quantity":6,"price":2.00},{"name":"Lays 50g","quantity":20,"price":0.80}]}`,
		},
		CategorizationModel: &testutil.FakeTextModel{
			Responses: []string{`[{"index":0,"category":"Soft Drinks"},{"index":1,"category":"Snacks & Chips"}]`},
		},
		BlobStore:        testutil.NewMemoryBlobStore(),
		AIRequestTimeout: time.Second,
	}, invoices, invoice_repositories.NewWholesalerRepository(db), categories, internal_services.NewLocalInvoiceLocker())

	invoiceID, err := pipeline.Process(context.Background(), invoice_services.StartInput{
		Document:     []byte("%PDF"),
		FileName:     "delivery.pdf",
		MimeType:     "application/pdf",
		WholesalerID: wholesaler.ID,
		InvoiceDate:  time.Now(),
	})
	require.NoError(t, err)

	pricing := repositories.NewPricingRepository(db)
	calculator := services.NewPriceCalculator(db, invoices, categories)
	generator := staff_services.NewTaskGenerator(db, invoices, nil, staff_services.TaskGeneratorConfig{})
	api := &pricingAPI{text: &testutil.FakeTextModel{}, invoiceID: invoiceID}

	api.app = fiber.New()
	api.app.Use(middleware.IdentifyUser())
	routes.PricingRouterInit(api.app, &controllers.PricingController{
		InvoiceRepo:     invoices,
		CategoryRepo:    categories,
		PricingRepo:     pricing,
		Finalizer:       services.NewFinalizer(db, invoices, calculator, generator),
		MarginAdvisor:   services.NewMarginAdvisor(api.text, invoices, categories, pricing, time.Second),
		DefaultRounding: services.RoundCharm99,
	})
	return api
}

func (api *pricingAPI) do(t *testing.T, method, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, uuid.NewString())

	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestSavePrices_CreatesTasksAndAuditRows(t *testing.T) {
	api := newPricingAPI(t)
	base := "/api/v1/invoice/" + api.invoiceID.String()

	resp, body := api.do(t, http.MethodPost, base+"/save-prices", map[string]interface{}{
		"margins": map[string]interface{}{"Soft Drinks": 45, "Snacks & Chips": 40},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "/api/v1/staff/tasks?invoice_id="+api.invoiceID.String(), body["redirect"])
	assert.Len(t, body["tasks"], 2)

	updates := body["price_updates"].([]interface{})
	require.Len(t, updates, 2)
	assert.Equal(t, "2.99", updates[0].(map[string]interface{})["selling_price"])
	assert.Equal(t, "0.99", updates[1].(map[string]interface{})["selling_price"])

	resp, body = api.do(t, http.MethodGet, base+"/price-updates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 2)

	resp, _ = api.do(t, http.MethodGet, base+"/price-labels.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "price-labels-")
}

func TestSavePrices_RejectsBadInput(t *testing.T) {
	api := newPricingAPI(t)
	base := "/api/v1/invoice/" + api.invoiceID.String()

	resp, _ := api.do(t, http.MethodPost, base+"/save-prices", map[string]interface{}{
		"margins": map[string]interface{}{"Soft Drinks": 140},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, base+"/save-prices", map[string]interface{}{
		"rounding_policy": "nearest-dime",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/v1/invoice/"+uuid.NewString()+"/save-prices", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/v1/invoice/not-a-uuid/save-prices", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSuggestMargins(t *testing.T) {
	api := newPricingAPI(t)
	base := "/api/v1/invoice/" + api.invoiceID.String()
	api.text.SetResponses(`{"suggestions": {"Soft Drinks": 28, "Snacks & Chips": {"suggested_margin": 37, "risk_level": "high"}}}`)

	resp, body := api.do(t, http.MethodPost, base+"/suggest-margins", map[string]interface{}{
		"location": "Bulawayo", "area_type": "rural",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	suggestions := body["suggestions"].(map[string]interface{})
	assert.Equal(t, "28", suggestions["Soft Drinks"].(map[string]interface{})["margin"])
	assert.Equal(t, "high", suggestions["Snacks & Chips"].(map[string]interface{})["risk_level"])

	resp, _ = api.do(t, http.MethodPost, base+"/suggest-margins", map[string]interface{}{"area_type": "rural"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodGet, base+"/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bulawayo", body["location"])
	assert.Len(t, body["categories"], 2)
}
