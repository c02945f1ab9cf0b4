package nutrition

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	textMaxTokens        = 100
	recognitionMaxTokens = 300
	aggregationMaxTokens = 200
)

const textPromptTemplate = `Определи калорийность и БЖУ (белки, жиры, углеводы) для: %s.
Ответь строго JSON-объектом, без пояснений, без форматирования, без других символов.

Если JSON неверный, сам исправь и отправь только правильный объект:

{"calories": 0, "proteins": 0, "fats": 0, "carbs": 0}`

const recognitionPrompt = `Перечисли продукты и блюда, которые видны на фото, и оцени массу каждого в граммах.
Ответь строго JSON-объектом, без пояснений, без форматирования:

{"products": [{"name": "...", "grams": 0}]}`

const aggregationPromptTemplate = `Посчитай суммарную калорийность и БЖУ (белки, жиры, углеводы) для всего списка: %s.
Ответь строго JSON-объектом, без пояснений, без форматирования.

Если JSON неверный, сам исправь и отправь только правильный объект:

{"description": "...", "calories": 0, "proteins": 0, "fats": 0, "carbs": 0}`

// ModelClient is the boundary to the language model service.
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
	GenerateVision(ctx context.Context, prompt, imageURL string, maxTokens int) (string, error)
}

// Estimate is the extractor's output, shaped like a meal record. Nil macro
// fields mean the model reply lacked that value.
type Estimate struct {
	Description string
	Calories    *int
	Proteins    *float64
	Fats        *float64
	Carbs       *float64
}

// RecognizedProduct is one food item found on a photo by the recognition
// stage. Never persisted; only feeds the aggregation prompt.
type RecognizedProduct struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// Extractor turns free text or a photo URL into a nutrition estimate.
// Every model call is attempted once per user action; no retries.
type Extractor struct {
	model ModelClient
	log   *zap.SugaredLogger
}

func NewExtractor(model ModelClient, log *zap.SugaredLogger) *Extractor {
	return &Extractor{model: model, log: log}
}

// FromText asks the model for the nutrition of a free-text meal description.
// A valid JSON envelope with some fields missing still yields a usable
// partially-filled estimate; an invalid envelope aborts the extraction.
func (e *Extractor) FromText(ctx context.Context, text string) (Estimate, error) {
	raw, err := e.model.GenerateText(ctx, fmt.Sprintf(textPromptTemplate, text), textMaxTokens)
	if err != nil {
		return Estimate{}, fmt.Errorf("text extraction: %w", err)
	}

	var obj map[string]any
	if err := Normalize(raw, &obj); err != nil {
		e.log.Warnw("text extraction reply rejected", "raw", raw, "error", err)
		return Estimate{}, err
	}

	est := estimateFromObject(obj)
	est.Description = text
	return est, nil
}

// FromImage runs the two-stage photo pipeline: recognition of visible food
// items with mass estimates, then aggregation of the summed nutrition over
// that list. The stages are strictly sequential; without at least one
// recognized product the aggregation is never attempted.
func (e *Extractor) FromImage(ctx context.Context, imageURL string) (Estimate, error) {
	raw, err := e.model.GenerateVision(ctx, recognitionPrompt, imageURL, recognitionMaxTokens)
	if err != nil {
		return Estimate{}, fmt.Errorf("photo recognition: %w", err)
	}

	var rec struct {
		Products []RecognizedProduct `json:"products"`
	}
	if err := Normalize(raw, &rec); err != nil {
		e.log.Warnw("recognition reply rejected", "raw", raw, "error", err)
		return Estimate{}, err
	}
	if len(rec.Products) == 0 {
		e.log.Warnw("recognition found no products", "raw", raw)
		return Estimate{}, ErrNoProductsRecognized
	}

	list := renderProducts(rec.Products)
	raw, err = e.model.GenerateText(ctx, fmt.Sprintf(aggregationPromptTemplate, list), aggregationMaxTokens)
	if err != nil {
		return Estimate{}, fmt.Errorf("photo aggregation: %w", err)
	}

	var obj map[string]any
	if err := Normalize(raw, &obj); err != nil {
		e.log.Warnw("aggregation reply rejected", "raw", raw, "error", err)
		return Estimate{}, err
	}

	est := estimateFromObject(obj)
	if desc, ok := obj["description"].(string); ok && strings.TrimSpace(desc) != "" {
		est.Description = strings.TrimSpace(desc)
	} else {
		est.Description = list
	}
	return est, nil
}

// renderProducts joins recognized items into the aggregation prompt's
// human-readable list, e.g. "150 г борщ, 30 г хлеб".
func renderProducts(products []RecognizedProduct) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		grams := strconv.FormatFloat(p.Grams, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("%s г %s", grams, p.Name))
	}
	return strings.Join(parts, ", ")
}

// estimateFromObject reads macro fields with default-to-missing semantics:
// an absent or non-numeric value becomes nil, never a hard failure.
func estimateFromObject(obj map[string]any) Estimate {
	return Estimate{
		Calories: intField(obj, "calories"),
		Proteins: floatField(obj, "proteins"),
		Fats:     floatField(obj, "fats"),
		Carbs:    floatField(obj, "carbs"),
	}
}

func intField(obj map[string]any, key string) *int {
	v, ok := obj[key].(float64)
	if !ok {
		return nil
	}
	n := int(math.Round(v))
	return &n
}

func floatField(obj map[string]any, key string) *float64 {
	v, ok := obj[key].(float64)
	if !ok {
		return nil
	}
	return &v
}
