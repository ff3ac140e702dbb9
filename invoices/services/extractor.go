package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"retail-backoffice/config"
	internal_services "retail-backoffice/internal/services"
	"retail-backoffice/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const extractionPrompt = `You are reading a supplier invoice for a retail shop.
Extract every product line. Respond with JSON only, in exactly this shape:
{"products": [{"name": "product name", "quantity": 1, "price": 0.00}]}

Rules:
- "name" is the product description as printed, including pack size.
- "quantity" is the number of units ordered, as an integer.
- "price" is the unit cost before tax, as a number without currency symbols.
- List at most %d products.
- Do not add commentary.`

// RawLineItem is one validated product row from the extraction model.
type RawLineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type DocumentExtractor struct {
	model    internal_services.DocumentModel
	maxItems int
}

func NewDocumentExtractor(model internal_services.DocumentModel, maxItems int) *DocumentExtractor {
	if maxItems <= 0 {
		maxItems = 20
	}
	return &DocumentExtractor{model: model, maxItems: maxItems}
}

// Extract sends the document to the model and parses the reply. hint is
// optional wholesaler-specific guidance appended to the prompt.
func (e *DocumentExtractor) Extract(ctx context.Context, document []byte, mimeType, hint string) ([]RawLineItem, error) {
	prompt := fmt.Sprintf(extractionPrompt, e.maxItems)
	if hint = strings.TrimSpace(hint); hint != "" {
		prompt += "\n\nNotes about this supplier's invoices: " + hint
	}

	raw, err := e.model.ProcessDocumentWithPrompt(ctx, document, mimeType, prompt)
	if err != nil {
		return nil, err
	}
	return ParseExtractionResponse(raw, e.maxItems)
}

// ParseExtractionResponse tolerates prose and code fences around the payload,
// fills defaults for missing fields and caps the result at maxItems.
func ParseExtractionResponse(raw string, maxItems int) ([]RawLineItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ExtractionFormatError{Reason: "model returned an empty response", Raw: raw}
	}

	payload, ok := utils.DecodeFirstJSON(raw)
	if !ok {
		config.Logger.Warn("No JSON payload in extraction response", zap.String("raw", truncate(raw, 500)))
		return nil, &ExtractionFormatError{Reason: "no JSON object found in model response", Raw: raw}
	}

	entries, err := productEntries(payload)
	if err != nil {
		return nil, &ExtractionFormatError{Reason: err.Error(), Raw: raw}
	}

	items := make([]RawLineItem, 0, len(entries))
	for idx, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			config.Logger.Warn("Dropping malformed extracted line",
				zap.Int("position", idx+1),
				zap.Any("entry", entry),
			)
			continue
		}
		items = append(items, normalizeLine(obj, idx+1))
	}

	if len(items) == 0 {
		return nil, &ExtractionFormatError{Reason: "response contained no line items", Raw: raw}
	}

	if maxItems > 0 && len(items) > maxItems {
		config.Logger.Warn("Extraction exceeded item limit, truncating",
			zap.Int("extracted", len(items)),
			zap.Int("limit", maxItems),
		)
		items = items[:maxItems]
	}
	return items, nil
}

func productEntries(payload interface{}) ([]interface{}, error) {
	switch v := payload.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, key := range []string{"products", "items", "line_items"} {
			if list, ok := v[key]; ok {
				entries, ok := list.([]interface{})
				if !ok {
					return nil, fmt.Errorf("%q is not a list", key)
				}
				return entries, nil
			}
		}
		return nil, fmt.Errorf("response object has no products list")
	default:
		return nil, fmt.Errorf("unexpected JSON payload type %T", payload)
	}
}

func normalizeLine(obj map[string]interface{}, position int) RawLineItem {
	name := firstString(obj, "name", "product_name", "description")
	if name == "" {
		name = fmt.Sprintf("Unknown Product %d", position)
	}

	quantity, ok := parseQuantity(firstValue(obj, "quantity", "qty"))
	if !ok || quantity < 1 {
		quantity = 1
	}

	price, ok := parsePrice(firstValue(obj, "price", "unit_price", "unit_cost", "cost"))
	if !ok || price.IsNegative() {
		price = decimal.Zero
	}

	return RawLineItem{Name: clipName(name), Quantity: quantity, UnitPrice: price.Round(2)}
}

// maxItemNameRunes is the width of extracted_line_items.name.
const maxItemNameRunes = 255

// clipName cuts on a rune boundary so multi-byte names stay valid UTF-8.
func clipName(name string) string {
	if utf8.RuneCountInString(name) <= maxItemNameRunes {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:maxItemNameRunes]))
}

func firstValue(obj map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var nonNumeric = regexp.MustCompile(`[^0-9.,\-]`)

func parseQuantity(v interface{}) (int, bool) {
	var f float64
	switch q := v.(type) {
	case json.Number:
		parsed, err := q.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(nonNumeric.ReplaceAllString(q, ""), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Floor(f + 0.5)), true
}

var decimalComma = regexp.MustCompile(`^-?\d+,\d{1,2}$`)

// parsePrice accepts numbers and strings such as "$1,250.50" or "3,75".
func parsePrice(v interface{}) (decimal.Decimal, bool) {
	switch p := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		return d, err == nil
	case string:
		s := nonNumeric.ReplaceAllString(p, "")
		if decimalComma.MatchString(s) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
