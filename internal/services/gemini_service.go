package services

import (
	"context"
	"fmt"
	"time"

	"retail-backoffice/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiService struct {
	client      *genai.Client
	model       string
	rateLimiter *rate.Limiter
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiService{
		client:      client,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/15), 15), // 15 requests per minute
	}, nil
}

// jsonConfig asks the model for a JSON body with little creativity.
func jsonConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	}
}

func (g *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := waitForSlot(ctx, g.rateLimiter); err != nil {
		return "", err
	}

	config.Logger.Info("Sending request to Gemini",
		zap.String("type", "text"),
		zap.String("model", g.model),
		zap.Int("prompt_length", len(prompt)),
	)

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}

	startTime := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, jsonConfig())
	if err != nil {
		config.Logger.Error("Gemini API request failed",
			zap.String("type", "text"),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return "", err
	}

	responseText := resp.Text()
	config.Logger.Info("Received response from Gemini",
		zap.String("type", "text"),
		zap.Int("response_length", len(responseText)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return responseText, nil
}

// ProcessDocumentWithPrompt sends the document inline next to the instructions.
func (g *GeminiService) ProcessDocumentWithPrompt(ctx context.Context, fileBytes []byte, mimeType string, prompt string) (string, error) {
	if err := waitForSlot(ctx, g.rateLimiter); err != nil {
		config.Logger.Error("Rate limit wait aborted",
			zap.String("type", "document"),
			zap.String("mimeType", mimeType),
			zap.Error(err),
		)
		return "", err
	}

	config.Logger.Info("Processing document with Gemini",
		zap.String("type", "document"),
		zap.String("model", g.model),
		zap.String("mimeType", mimeType),
		zap.Int("fileSize", len(fileBytes)),
	)

	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     fileBytes,
		}},
	}
	contents := []*genai.Content{
		{Parts: parts},
	}

	startTime := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, jsonConfig())
	if err != nil {
		config.Logger.Error("Gemini API request failed",
			zap.String("type", "document"),
			zap.String("mimeType", mimeType),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return "", err
	}

	result := resp.Text()
	config.Logger.Info("Received document response from Gemini",
		zap.Int("response_length", len(result)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return result, nil
}
