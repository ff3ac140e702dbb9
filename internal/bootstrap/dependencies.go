package bootstrap

import (
	"context"
	"fmt"
	"time"

	"retail-backoffice/config"
	internal_services "retail-backoffice/internal/services"
	"retail-backoffice/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ModelClients are the two model roles of the pipeline. Document reads
// invoices, Text categorizes items and suggests margins.
type ModelClients struct {
	Document internal_services.DocumentModel
	Text     internal_services.TextModel
}

func NewModelClients(ctx context.Context, settings config.PipelineSettings) (*ModelClients, error) {
	if settings.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for invoice extraction")
	}
	gemini, err := internal_services.NewGeminiService(ctx, settings.GeminiAPIKey, settings.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	clients := &ModelClients{Document: gemini, Text: gemini}

	switch settings.CategorizationProvider {
	case "", "gemini":
	case "openai":
		openai, err := internal_services.NewOpenAIService(settings.OpenAIAPIKey, settings.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		clients.Text = openai
	default:
		return nil, fmt.Errorf("unknown CATEGORIZATION_PROVIDER %q", settings.CategorizationProvider)
	}

	config.Logger.Info("Model clients ready",
		zap.String("document_model", settings.GeminiModel),
		zap.String("categorization_provider", settings.CategorizationProvider),
	)
	return clients, nil
}

// NewBlobStore returns the configured store and a closer for shutdown.
func NewBlobStore(ctx context.Context, settings config.PipelineSettings) (utils.BlobStore, func() error, error) {
	switch settings.BlobStore {
	case "", "local":
		store := utils.NewLocalFileStorage(settings.UploadDir, utils.JoinURL(settings.BaseURL, "uploads"))
		config.Logger.Info("Storing invoices on local disk", zap.String("dir", settings.UploadDir))
		return store, func() error { return nil }, nil
	case "gcs":
		store, err := utils.NewGCSBlobStore(ctx, settings.GCSBucket, settings.GCSCredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		config.Logger.Info("Storing invoices in GCS", zap.String("bucket", settings.GCSBucket))
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown BLOB_STORE %q", settings.BlobStore)
	}
}

// NewInvoiceLocker uses redis when a client is available. The lock TTL covers
// three model calls plus storage round trips.
func NewInvoiceLocker(client *redis.Client, aiTimeout time.Duration) internal_services.InvoiceLocker {
	if client == nil {
		return internal_services.NewLocalInvoiceLocker()
	}
	return internal_services.NewRedisInvoiceLocker(client, 3*aiTimeout+time.Minute)
}
