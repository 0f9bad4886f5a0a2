package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"github.com/google/logger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	DefaultAuditModel   = "gemini-2.5-flash"
	DefaultAuditBaseURL = "https://generativelanguage.googleapis.com"

	fallbackReasoning = "Analisis kualitas otomatis tidak dapat diselesaikan saat ini. " +
		"Sistem tidak menerima hasil pemeriksaan yang valid dari layanan analisis. " +
		"Silakan unggah ulang foto yang lebih jelas atau coba beberapa saat lagi."
)

// AuditImage is one photo inlined into the audit request.
type AuditImage struct {
	MIMEType string
	Data     []byte
}

// AuditRequest is the submission context sent alongside the photos.
type AuditRequest struct {
	Images          []AuditImage
	Name            string
	Ingredients     string
	PreparedAt      *time.Time
	StorageLocation string
	WeightGram      float64
	PackagingType   string
}

// AuditOutcome is either a genuine audit (Err == nil) or the fixed fallback
// with Err wrapping ErrAuditUnavailable.
type AuditOutcome struct {
	Result models.AuditResult
	Err    error
}

func (o AuditOutcome) OK() bool { return o.Err == nil }

// FallbackAuditResult is returned whenever the external model gives no usable answer.
func FallbackAuditResult() models.AuditResult {
	return models.AuditResult{
		IsSafe:              false,
		IsHalal:             false,
		HalalScore:          0,
		HalalReasoning:      "Status halal tidak dapat diverifikasi.",
		Reasoning:           fallbackReasoning,
		Allergens:           []string{},
		ShelfLifePrediction: "",
		HygieneScore:        0,
		QualityPercentage:   0,
		DetectedItems:       []models.DetectedItem{},
		DetectedCategory:    models.CategoryMixed,
		StorageTips:         []string{},
	}
}

func unavailable(err error) AuditOutcome {
	return AuditOutcome{
		Result: FallbackAuditResult(),
		Err:    fmt.Errorf("%w: %v", ErrAuditUnavailable, err),
	}
}

type AuditConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AuditGateway calls a Gemini-style generateContent endpoint with a strict
// JSON response schema.
type AuditGateway struct {
	client  HTTPClient
	apiKey  string
	model   string
	baseURL string
}

func NewAuditGateway(cfg AuditConfig, client HTTPClient) *AuditGateway {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultAuditModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultAuditBaseURL
	}
	return &AuditGateway{
		client:  client,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Audit sends a single request. It never retries and never panics; any
// failure yields the fallback outcome. Deadlines come from ctx.
func (g *AuditGateway) Audit(ctx context.Context, req AuditRequest) (out AuditOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[AUDIT] ❌ recovered from panic: %v", r)
			out = unavailable(fmt.Errorf("panic: %v", r))
		}
	}()

	if strings.TrimSpace(g.apiKey) == "" {
		return unavailable(errors.New("audit api key not configured"))
	}
	if len(req.Images) == 0 {
		return unavailable(errors.New("no images supplied"))
	}

	body, err := json.Marshal(g.buildPayload(req))
	if err != nil {
		return unavailable(err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return unavailable(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	started := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		logger.Warningf("[AUDIT] ⚠️ request failed after %s: %v", time.Since(started), err)
		return unavailable(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.Warningf("[AUDIT] ⚠️ model returned %d: %s", resp.StatusCode, string(b))
		return unavailable(fmt.Errorf("model returned status %d", resp.StatusCode))
	}

	var gen struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return unavailable(fmt.Errorf("decode envelope: %w", err))
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return unavailable(errors.New("no candidates"))
	}

	var text strings.Builder
	for _, p := range gen.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	result, err := ParseAuditResult([]byte(text.String()))
	if err != nil {
		logger.Warningf("[AUDIT] ⚠️ schema mismatch: %v", err)
		return unavailable(err)
	}

	logger.Infof("[AUDIT] ✅ %q audited in %s: quality=%.2f safe=%t category=%s",
		req.Name, time.Since(started), result.QualityPercentage, result.IsSafe, result.DetectedCategory)
	return AuditOutcome{Result: result}
}

// rawAudit mirrors the response schema. Pointers mark required fields.
type rawAudit struct {
	IsSafe              *bool    `json:"isSafe"`
	IsHalal             *bool    `json:"isHalal"`
	HalalScore          *float64 `json:"halalScore"`
	HalalReasoning      *string  `json:"halalReasoning"`
	Reasoning           *string  `json:"reasoning"`
	Allergens           []string `json:"allergens"`
	ShelfLifePrediction string   `json:"shelfLifePrediction"`
	HygieneScore        *float64 `json:"hygieneScore"`
	QualityPercentage   *float64 `json:"qualityPercentage"`
	DetectedItems       []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"detectedItems"`
	DetectedCategory string   `json:"detectedCategory"`
	StorageTips      []string `json:"storageTips"`
}

// ParseAuditResult decodes model output strictly: unknown fields, missing
// required fields, out-of-range scores and unknown categories are errors.
func ParseAuditResult(data []byte) (models.AuditResult, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.DisallowUnknownFields()

	var raw rawAudit
	if err := dec.Decode(&raw); err != nil {
		return models.AuditResult{}, fmt.Errorf("invalid audit JSON: %w", err)
	}
	if dec.More() {
		return models.AuditResult{}, errors.New("trailing data after audit JSON")
	}

	switch {
	case raw.IsSafe == nil:
		return models.AuditResult{}, errors.New("missing isSafe")
	case raw.IsHalal == nil:
		return models.AuditResult{}, errors.New("missing isHalal")
	case raw.HalalScore == nil:
		return models.AuditResult{}, errors.New("missing halalScore")
	case raw.HalalReasoning == nil:
		return models.AuditResult{}, errors.New("missing halalReasoning")
	case raw.Reasoning == nil || strings.TrimSpace(*raw.Reasoning) == "":
		return models.AuditResult{}, errors.New("missing reasoning")
	case raw.HygieneScore == nil:
		return models.AuditResult{}, errors.New("missing hygieneScore")
	case raw.QualityPercentage == nil:
		return models.AuditResult{}, errors.New("missing qualityPercentage")
	}

	for name, v := range map[string]float64{
		"halalScore":        *raw.HalalScore,
		"hygieneScore":      *raw.HygieneScore,
		"qualityPercentage": *raw.QualityPercentage,
	} {
		if v < 0 || v > 100 {
			return models.AuditResult{}, fmt.Errorf("%s out of range: %v", name, v)
		}
	}

	category := models.CategoryMixed
	if raw.DetectedCategory != "" {
		category = models.FoodCategory(raw.DetectedCategory)
		if !category.Valid() {
			return models.AuditResult{}, fmt.Errorf("unknown detectedCategory %q", raw.DetectedCategory)
		}
	}

	// A Caser is stateful, so one per parse.
	title := cases.Title(language.Indonesian)
	items := make([]models.DetectedItem, 0, len(raw.DetectedItems))
	for _, it := range raw.DetectedItems {
		c := models.FoodCategory(it.Category)
		if !c.Valid() {
			return models.AuditResult{}, fmt.Errorf("unknown category %q for item %q", it.Category, it.Name)
		}
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		items = append(items, models.DetectedItem{Name: title.String(name), Category: c})
	}

	return models.AuditResult{
		IsSafe:              *raw.IsSafe,
		IsHalal:             *raw.IsHalal,
		HalalScore:          *raw.HalalScore,
		HalalReasoning:      strings.TrimSpace(*raw.HalalReasoning),
		Reasoning:           strings.TrimSpace(*raw.Reasoning),
		Allergens:           cleanList(raw.Allergens),
		ShelfLifePrediction: strings.TrimSpace(raw.ShelfLifePrediction),
		HygieneScore:        *raw.HygieneScore,
		QualityPercentage:   *raw.QualityPercentage,
		DetectedItems:       items,
		DetectedCategory:    category,
		StorageTips:         cleanList(raw.StorageTips),
	}, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (g *AuditGateway) buildPayload(req AuditRequest) map[string]any {
	parts := make([]map[string]any, 0, len(req.Images)+1)
	for _, img := range req.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, map[string]any{
			"inline_data": map[string]string{
				"mime_type": mime,
				"data":      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	parts = append(parts, map[string]any{"text": auditPrompt(req)})

	return map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"responseMimeType": "application/json",
			"responseSchema":   auditResponseSchema(),
		},
	}
}

func auditPrompt(req AuditRequest) string {
	prepared := "tidak disebutkan"
	if req.PreparedAt != nil {
		prepared = req.PreparedAt.Format("2006-01-02 15:04")
	}
	categories := make([]string, len(models.FoodCategories))
	for i, c := range models.FoodCategories {
		categories[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You are a food safety auditor for a surplus food donation platform. ")
	b.WriteString("Inspect the attached photos and the donor's declaration below.\n\n")
	fmt.Fprintf(&b, "Declared name: %s\n", req.Name)
	fmt.Fprintf(&b, "Declared ingredients: %s\n", req.Ingredients)
	fmt.Fprintf(&b, "Prepared at: %s\n", prepared)
	fmt.Fprintf(&b, "Storage location: %s\n", req.StorageLocation)
	fmt.Fprintf(&b, "Declared weight (gram): %.0f\n", req.WeightGram)
	fmt.Fprintf(&b, "Packaging: %s\n\n", req.PackagingType)
	b.WriteString("Return ONLY a JSON object matching the response schema. ")
	b.WriteString("The field \"reasoning\" must be a paragraph of several sentences that covers: ")
	b.WriteString("the visual condition of the food; whether the photo is consistent with the declared name and ingredients; ")
	b.WriteString("a hygiene assessment of the food and its container; and a concluding verdict on whether it is fit to eat. ")
	b.WriteString("Scores are numbers between 0 and 100. qualityPercentage may have decimals. ")
	fmt.Fprintf(&b, "Every category must be one of: %s.", strings.Join(categories, ", "))
	return b.String()
}

func auditResponseSchema() map[string]any {
	categoryEnum := make([]string, len(models.FoodCategories))
	for i, c := range models.FoodCategories {
		categoryEnum[i] = string(c)
	}
	stringList := map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}}

	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"isSafe":              map[string]any{"type": "BOOLEAN"},
			"isHalal":             map[string]any{"type": "BOOLEAN"},
			"halalScore":          map[string]any{"type": "NUMBER"},
			"halalReasoning":      map[string]any{"type": "STRING"},
			"reasoning":           map[string]any{"type": "STRING"},
			"allergens":           stringList,
			"shelfLifePrediction": map[string]any{"type": "STRING"},
			"hygieneScore":        map[string]any{"type": "NUMBER"},
			"qualityPercentage":   map[string]any{"type": "NUMBER"},
			"detectedItems": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"name":     map[string]any{"type": "STRING"},
						"category": map[string]any{"type": "STRING", "enum": categoryEnum},
					},
					"required": []string{"name", "category"},
				},
			},
			"detectedCategory": map[string]any{"type": "STRING", "enum": categoryEnum},
			"storageTips":      stringList,
		},
		"required": []string{
			"isSafe", "isHalal", "halalScore", "halalReasoning",
			"reasoning", "hygieneScore", "qualityPercentage",
		},
	}
}
