package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	category_repositories "retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	"retail-backoffice/db/models"
	internal_services "retail-backoffice/internal/services"
	invoice_repositories "retail-backoffice/invoices/repositories"
	invoice_services "retail-backoffice/invoices/services"
	"retail-backoffice/pricing/repositories"
	"retail-backoffice/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const marginPrompt = `You are a retail pricing expert. Suggest a profit margin (percent of cost) for each product category of a shop.

Location: %s
Area type: %s

Categories with their current default margin and the average margin suggested for earlier invoices:
%s

Market notes:
%s

Consider local purchasing power, competition, typical retail margins for each category and product turnover.
Respond with JSON only, keyed by the exact category names above:
{"Category Name": {"suggested_margin": 30.0, "confidence": 0.8, "risk_level": "low|medium|high", "reasoning": ["short reason"]}}`

type SuggestInput struct {
	// Categories defaults to every category present on the invoice.
	Categories []string
	Location   string
	AreaType   string
}

type Suggestion struct {
	Margin     decimal.Decimal  `json:"margin"`
	Reasoning  []string         `json:"reasoning"`
	Confidence float64          `json:"confidence"`
	RiskLevel  models.RiskLevel `json:"risk_level"`
}

type MarginAdvisor struct {
	model      internal_services.TextModel
	invoices   invoice_repositories.InvoiceRepository
	categories category_repositories.CategoryRepository
	pricing    repositories.PricingRepository
	timeout    time.Duration
}

func NewMarginAdvisor(
	model internal_services.TextModel,
	invoices invoice_repositories.InvoiceRepository,
	categories category_repositories.CategoryRepository,
	pricing repositories.PricingRepository,
	timeout time.Duration,
) *MarginAdvisor {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &MarginAdvisor{model: model, invoices: invoices, categories: categories, pricing: pricing, timeout: timeout}
}

// Suggest asks the model for per-category margins, stores every accepted
// suggestion and records the location on the invoice.
func (a *MarginAdvisor) Suggest(ctx context.Context, invoiceID uuid.UUID, in SuggestInput) (map[string]Suggestion, error) {
	if strings.TrimSpace(in.Location) == "" {
		return nil, &PricingInputError{Reason: "location is required"}
	}

	categories := in.Categories
	if len(categories) == 0 {
		var err error
		categories, err = a.invoiceCategories(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
	} else if _, err := a.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, &PricingInputError{Reason: "invoice has no categorized items"}
	}

	defaults, err := a.categories.DefaultMargins(ctx)
	if err != nil {
		return nil, err
	}
	history, err := a.pricing.HistoricalMargins(ctx, categories)
	if err != nil {
		return nil, err
	}
	insights := LocationInsights(in.AreaType)

	prompt := fmt.Sprintf(marginPrompt,
		in.Location,
		orDefault(in.AreaType, "unknown"),
		describeCategories(categories, defaults, history),
		"- "+strings.Join(insights.Recommendations, "\n- "),
	)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	raw, err := a.model.GenerateText(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &invoice_services.TimeoutError{Stage: "margin_suggestion", Timeout: a.timeout}
		}
		return nil, fmt.Errorf("margin suggestion: %w", err)
	}

	suggestions, err := ParseMarginSuggestions(raw, categories)
	if err != nil {
		return nil, err
	}

	insightsJSON, _ := json.Marshal(insights)
	rows := make([]models.MarginSuggestion, 0, len(suggestions))
	for _, category := range categories {
		s, ok := suggestions[category]
		if !ok {
			continue
		}
		reasoning, _ := json.Marshal(s.Reasoning)
		rows = append(rows, models.MarginSuggestion{
			InvoiceID:       invoiceID,
			CategoryName:    category,
			SuggestedMargin: s.Margin,
			Confidence:      s.Confidence,
			RiskLevel:       s.RiskLevel,
			Reasoning:       datatypes.JSON(reasoning),
			Location:        in.Location,
			AreaType:        in.AreaType,
			Insights:        datatypes.JSON(insightsJSON),
		})
	}
	if err := a.pricing.SaveSuggestions(ctx, rows); err != nil {
		return nil, fmt.Errorf("save margin suggestions: %w", err)
	}

	var areaType *string
	if in.AreaType != "" {
		areaType = utils.StringPtr(in.AreaType)
	}
	if err := a.invoices.UpdateLocation(ctx, invoiceID, in.Location, areaType); err != nil {
		return nil, err
	}

	config.Logger.Info("Margin suggestions generated",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("requested", len(categories)),
		zap.Int("suggested", len(suggestions)),
	)
	return suggestions, nil
}

func (a *MarginAdvisor) invoiceCategories(ctx context.Context, invoiceID uuid.UUID) ([]string, error) {
	if _, err := a.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	items, err := a.invoices.ListLineItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var categories []string
	for _, item := range items {
		name := item.CategoryName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		categories = append(categories, name)
	}
	sort.Strings(categories)
	return categories, nil
}

// ParseMarginSuggestions keeps only the requested categories, clamping margins
// to 0-100 and confidence to 0-1.
func ParseMarginSuggestions(raw string, requested []string) (map[string]Suggestion, error) {
	payload, ok := utils.DecodeFirstJSON(raw)
	if !ok {
		return nil, &SuggestionFormatError{Raw: raw}
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, &SuggestionFormatError{Raw: raw}
	}
	if nested, ok := obj["suggestions"].(map[string]interface{}); ok {
		obj = nested
	}

	wanted := make(map[string]bool, len(requested))
	for _, c := range requested {
		wanted[c] = true
	}

	suggestions := make(map[string]Suggestion, len(obj))
	for category, value := range obj {
		if !wanted[category] {
			config.Logger.Warn("Dropping margin suggestion for unrequested category", zap.String("category", category))
			continue
		}

		s := Suggestion{Confidence: 0.5, RiskLevel: models.RiskMedium}
		var margin interface{}
		switch v := value.(type) {
		case map[string]interface{}:
			margin = firstPresent(v, "suggested_margin", "margin")
			if c, ok := toFloat(v["confidence"]); ok {
				s.Confidence = c
			}
			s.RiskLevel = normalizeRisk(v["risk_level"])
			s.Reasoning = reasoningList(v["reasoning"])
		default:
			margin = v
		}

		m, ok := toFloat(margin)
		if !ok {
			config.Logger.Warn("Dropping margin suggestion without a numeric margin", zap.String("category", category))
			continue
		}
		s.Margin = decimal.NewFromFloat(clamp(m, 0, 100)).Round(2)
		s.Confidence = clamp(s.Confidence, 0, 1)
		if s.Reasoning == nil {
			s.Reasoning = []string{}
		}
		suggestions[category] = s
	}
	return suggestions, nil
}

func describeCategories(categories []string, defaults, history map[string]decimal.Decimal) string {
	var b strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: default %s%%", c, orDefault(defaults[c].String(), "0"))
		if avg, ok := history[c]; ok {
			fmt.Fprintf(&b, ", earlier average %s%%", avg.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func firstPresent(obj map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

// toFloat rejects NaN and infinities, which ParseFloat accepts as text.
func toFloat(v interface{}) (float64, bool) {
	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func normalizeRisk(v interface{}) models.RiskLevel {
	s, _ := v.(string)
	switch models.RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case models.RiskLow:
		return models.RiskLow
	case models.RiskHigh:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}

func reasoningList(v interface{}) []string {
	switch r := v.(type) {
	case string:
		if strings.TrimSpace(r) == "" {
			return nil
		}
		return []string{r}
	case []interface{}:
		out := make([]string, 0, len(r))
		for _, line := range r {
			if s, ok := line.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
