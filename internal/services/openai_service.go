package services

import (
	"context"
	"fmt"
	"time"

	"retail-backoffice/config"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const openAISystemPrompt = "You are a retail pricing and merchandising assistant. Reply with JSON only."

// OpenAIService is the alternate text model used for categorization and margin advice.
type OpenAIService struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
}

func NewOpenAIService(apiKey, model string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
		config.Logger.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	return &OpenAIService{
		client:      openai.NewClient(apiKey),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

func (o *OpenAIService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := waitForSlot(ctx, o.rateLimiter); err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	startTime := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		config.Logger.Error("OpenAI API call failed",
			zap.String("model", o.model),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return "", fmt.Errorf("openai api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	config.Logger.Info("Received response from OpenAI",
		zap.String("model", o.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return resp.Choices[0].Message.Content, nil
}
