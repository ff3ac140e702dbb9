package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// DocumentModel turns a document plus instructions into structured text.
type DocumentModel interface {
	ProcessDocumentWithPrompt(ctx context.Context, fileBytes []byte, mimeType string, prompt string) (string, error)
}

// TextModel answers a plain text prompt.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// waitForSlot blocks until limiter admits one call. The limiter refuses up
// front when the wait would outlast ctx's deadline; that refusal wraps
// context.DeadlineExceeded so callers see it as a timeout.
func waitForSlot(ctx context.Context, limiter *rate.Limiter) error {
	err := limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limit wait: %w (%v)", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("rate limit wait: %w", err)
}
