package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

var geminiPrompt = dedent.Dedent(`
	Analyze this product photo for resale valuation.

	Respond in JSON format with these fields:
	- productName: The specific product name including brand and model if visible
	- description: 2-3 sentences describing the product and its notable features
	- category: One of footwear, apparel, accessories, collectibles, electronics, general
	- brand: The brand name if identifiable (empty string if unknown)
	- model: The model name or number if identifiable (empty string if unknown)
	- condition: Estimated condition (new, like new, good, fair, poor)
	- estimatedRetailPrice: Retail price as "$N" or "$N - $M" in USD
	- estimatedResellPrice: Realistic resale price as "$N" or "$N - $M" in USD
	- marketDemand: One of high, moderate, low
	- confidence: Your confidence in the identification, 0.0 to 1.0

	Example response:
	{"productName": "Nike Air Jordan 1 Retro High OG", "description": "High-top basketball sneaker in the Chicago colorway.", "category": "footwear", "brand": "Nike", "model": "Air Jordan 1", "condition": "good", "estimatedRetailPrice": "$180", "estimatedResellPrice": "$250 - $400", "marketDemand": "high", "confidence": 0.9}

	Respond ONLY with the JSON object, no markdown or other text.`)

// GeminiProvider is the primary vision provider. It sends image bytes
// inline and parses a JSON object out of the model's free-text reply.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates the primary provider using the given API key.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// AnalyzeBytes implements the ByteAnalyzer interface.
func (g *GeminiProvider) AnalyzeBytes(ctx context.Context, data []byte, mimeType string) (*Identification, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(geminiPrompt),
		{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	text := result.Text()
	log.Debug().Str("response", text).Msg("gemini vision response")

	ident, err := parseIdentification(text)
	if err != nil {
		return nil, err
	}
	ident.Provider = Gemini
	ident.Sources = []string{"gemini-vision"}
	if ident.Narrative == "" {
		ident.Narrative = "Identified from image by AI vision analysis."
	}
	return ident, nil
}

// parseIdentification extracts the JSON object from a model reply.
// Replies are sometimes wrapped in markdown fences or surrounded by
// prose, so it trims to the outermost braces before unmarshaling.
func parseIdentification(text string) (*Identification, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response: %s", text)
	}
	text = text[start : end+1]

	var ident Identification
	if err := json.Unmarshal([]byte(text), &ident); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, text)
	}
	if ident.ProductName == "" {
		return nil, fmt.Errorf("response JSON missing productName: %s", text)
	}
	ident.Confidence = clamp01(ident.Confidence)
	return &ident, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
