// Package provider contains the identification providers and the
// orchestrator that selects between them. Providers come in two
// capability flavors: the primary vision provider accepts raw image
// bytes inline, while visual-search providers need the image published
// at a public URL first.
package provider

import "context"

// ID names a provider in the closed provider set.
type ID string

const (
	// Gemini is the primary AI-vision provider. It accepts raw image
	// bytes and is the fallback target for every other provider.
	Gemini ID = "gemini"
	// SerpLens is a visual-search provider backed by a Google
	// Lens-style search API. URL capability only.
	SerpLens ID = "serp-lens"
	// BingVisual is a visual-search provider backed by a Bing Visual
	// Search-style API. URL capability only.
	BingVisual ID = "bing-visual"
)

// Normalize maps a requested preference to a member of the closed set.
// Unknown or empty preferences resolve to the primary provider.
func Normalize(id ID) ID {
	switch id {
	case Gemini, SerpLens, BingVisual:
		return id
	default:
		return Gemini
	}
}

// Identification is the normalized product identification every
// provider produces, regardless of its native response shape. It is
// immutable once returned.
type Identification struct {
	ProductName       string   `json:"productName"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	Brand             string   `json:"brand"`
	Model             string   `json:"model"`
	Condition         string   `json:"condition"`
	RetailPriceText   string   `json:"estimatedRetailPrice"`
	ResellPriceText   string   `json:"estimatedResellPrice"`
	MarketDemand      string   `json:"marketDemand"`
	ReferenceImageURL string   `json:"referenceImageUrl,omitempty"`
	Confidence        float64  `json:"confidence"`
	Sources           []string `json:"sources"`
	Provider          ID       `json:"provider"`
	Narrative         string   `json:"narrative"`
}

// ByteAnalyzer identifies a product from raw image bytes.
type ByteAnalyzer interface {
	AnalyzeBytes(ctx context.Context, data []byte, mimeType string) (*Identification, error)
}

// URLAnalyzer identifies a product from a publicly dereferenceable
// image URL.
type URLAnalyzer interface {
	AnalyzeURL(ctx context.Context, imageURL string) (*Identification, error)
}
