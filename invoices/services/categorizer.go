package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	internal_services "retail-backoffice/internal/services"
	"retail-backoffice/utils"

	"go.uber.org/zap"
)

const categorizationPrompt = `Assign each product below to exactly one category from the allowed list.
Use the category text exactly as written in the list. If no category fits, use "%s".

Allowed categories:
%s

Products (index: name):
%s

Respond with JSON only:
{"categorized_products": [{"index": 0, "category": "..."}]}`

// Assignment is the category chosen for the item at ItemIndex. Category is ""
// when the item needs manual categorization.
type Assignment struct {
	ItemIndex   int
	Category    string
	NeedsReview bool
}

type Categorizer struct {
	model internal_services.TextModel
}

func NewCategorizer(model internal_services.TextModel) *Categorizer {
	return &Categorizer{model: model}
}

func (c *Categorizer) Categorize(ctx context.Context, names []string, allowed []string) ([]Assignment, error) {
	if len(allowed) == 0 {
		return nil, &CategorizationValidationError{Reason: "category vocabulary is empty"}
	}
	if len(names) == 0 {
		return nil, nil
	}

	vocabulary := "- " + strings.Join(allowed, "\n- ")
	var lines strings.Builder
	for i, name := range names {
		fmt.Fprintf(&lines, "%d: %s\n", i, name)
	}

	prompt := fmt.Sprintf(categorizationPrompt, models.UncategorizedCategory, vocabulary, lines.String())
	raw, err := c.model.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseCategorizationResponse(raw, len(names), allowed)
}

// ParseCategorizationResponse validates the model's assignments against the
// vocabulary. Any category outside it rejects the whole response.
func ParseCategorizationResponse(raw string, itemCount int, allowed []string) ([]Assignment, error) {
	vocabulary := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		vocabulary[name] = true
	}

	payload, ok := utils.DecodeFirstJSON(raw)
	if !ok {
		return nil, &CategorizationValidationError{Reason: "no JSON object found in model response", Raw: raw}
	}

	var entries []interface{}
	switch v := payload.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		list, ok := v["categorized_products"].([]interface{})
		if !ok {
			return nil, &CategorizationValidationError{Reason: "response has no categorized_products list", Raw: raw}
		}
		entries = list
	default:
		return nil, &CategorizationValidationError{Reason: "unexpected JSON payload", Raw: raw}
	}

	chosen := make(map[int]string, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, &CategorizationValidationError{Reason: "categorized entry is not an object", Raw: raw}
		}

		index, ok := entryIndex(obj["index"])
		if !ok || index < 0 || index >= itemCount {
			return nil, &CategorizationValidationError{
				Reason: fmt.Sprintf("invalid item index %v", obj["index"]),
				Raw:    raw,
			}
		}
		if _, dup := chosen[index]; dup {
			return nil, &CategorizationValidationError{
				Reason: fmt.Sprintf("item %d was categorized twice", index),
				Raw:    raw,
			}
		}

		category, _ := obj["category"].(string)
		if category != models.UncategorizedCategory && !vocabulary[category] {
			return nil, &CategorizationValidationError{
				Reason: fmt.Sprintf("category %q is not in the vocabulary", category),
				Raw:    raw,
			}
		}
		chosen[index] = category
	}

	assignments := make([]Assignment, itemCount)
	for i := 0; i < itemCount; i++ {
		category, ok := chosen[i]
		if !ok {
			config.Logger.Info("Model skipped item, falling back to sentinel", zap.Int("index", i))
			category = models.UncategorizedCategory
		}
		assignments[i] = Assignment{ItemIndex: i, Category: category}

		// the sentinel is only assigned when the vocabulary carries it
		if category == models.UncategorizedCategory && !vocabulary[category] {
			assignments[i] = Assignment{ItemIndex: i, NeedsReview: true}
		}
	}
	return assignments, nil
}

func entryIndex(v interface{}) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}
