package provider

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const serpLensBaseURL = "https://serpapi.com"

type serpLensResponse struct {
	VisualMatches []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Source    string `json:"source"`
		Thumbnail string `json:"thumbnail"`
		Price     struct {
			ExtractedValue float64 `json:"extracted_value"`
			Currency       string  `json:"currency"`
		} `json:"price"`
	} `json:"visual_matches"`
	KnowledgeGraph []struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		Brand    string `json:"brand"`
	} `json:"knowledge_graph"`
}

// SerpLensProvider identifies products through a Google Lens-style
// visual search API. It requires the image to be reachable at a public
// URL; the orchestrator takes care of that precondition.
type SerpLensProvider struct {
	httpClient *resty.Client
	apiKey     string
}

type SerpLensOpts struct {
	BaseURL string
	APIKey  string
}

func NewSerpLensProvider(opts SerpLensOpts) *SerpLensProvider {
	baseURL := serpLensBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &SerpLensProvider{
		httpClient: resty.New().SetBaseURL(baseURL),
		apiKey:     opts.APIKey,
	}
}

// AnalyzeURL implements the URLAnalyzer interface.
func (p *SerpLensProvider) AnalyzeURL(ctx context.Context, imageURL string) (*Identification, error) {
	result := &serpLensResponse{}
	res, err := p.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google_lens",
			"url":     imageURL,
			"api_key": p.apiKey,
		}).
		SetResult(result).
		Get("/search")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("visual search request failed (status: %d)", res.StatusCode())
	}
	return p.mapResponse(result)
}

// mapResponse folds the heterogeneous visual-match/knowledge-graph
// shape into the normalized identification.
func (p *SerpLensProvider) mapResponse(r *serpLensResponse) (*Identification, error) {
	if len(r.VisualMatches) == 0 && len(r.KnowledgeGraph) == 0 {
		return nil, fmt.Errorf("no visual matches found")
	}

	ident := &Identification{
		Provider:   SerpLens,
		Confidence: 0.6,
		Narrative:  "Identified by visual match search.",
	}

	if len(r.KnowledgeGraph) > 0 {
		kg := r.KnowledgeGraph[0]
		ident.ProductName = kg.Title
		ident.Description = kg.Subtitle
		ident.Brand = kg.Brand
		ident.Confidence = 0.7
	}

	for _, m := range r.VisualMatches {
		if ident.ProductName == "" {
			ident.ProductName = m.Title
		}
		if ident.ReferenceImageURL == "" && m.Thumbnail != "" {
			ident.ReferenceImageURL = m.Thumbnail
		}
		if m.Price.ExtractedValue > 0 && ident.RetailPriceText == "" {
			ident.RetailPriceText = fmt.Sprintf("$%.0f", m.Price.ExtractedValue)
		}
		ident.Sources = append(ident.Sources, m.Source)
	}
	if ident.ProductName == "" {
		return nil, fmt.Errorf("visual matches carried no usable title")
	}
	return ident, nil
}
