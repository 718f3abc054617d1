package market

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const retailBaseURL = "https://serpapi.com"

const retailWeight = 0.90

type retailSearchResponse struct {
	ShoppingResults []struct {
		Title          string  `json:"title"`
		Source         string  `json:"source"`
		ExtractedPrice float64 `json:"extracted_price"`
	} `json:"shopping_results"`
}

// RetailSource scrapes current retail prices through a shopping search
// API. Its observations carry the retail role, anchoring the "new"
// price that resale estimates are derived from.
type RetailSource struct {
	httpClient *resty.Client
	apiKey     string
}

type RetailOpts struct {
	BaseURL string
	APIKey  string
}

func NewRetailSource(opts RetailOpts) *RetailSource {
	baseURL := retailBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &RetailSource{
		httpClient: resty.New().SetBaseURL(baseURL),
		apiKey:     opts.APIKey,
	}
}

func (s *RetailSource) Name() string {
	return "retail-search"
}

// Search implements the Source interface.
func (s *RetailSource) Search(ctx context.Context, productName string) ([]Observation, error) {
	result := &retailSearchResponse{}
	res, err := s.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google_shopping",
			"q":       productName,
			"api_key": s.apiKey,
		}).
		SetResult(result).
		Get("/search")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("shopping search failed (status: %d)", res.StatusCode())
	}

	var obs []Observation
	for _, r := range result.ShoppingResults {
		if r.ExtractedPrice <= 0 {
			continue
		}
		obs = append(obs, Observation{
			SourcePlatform:   s.Name(),
			Price:            r.ExtractedPrice,
			Currency:         "USD",
			Condition:        "new",
			Kind:             KindRetail,
			ConfidenceWeight: retailWeight,
		})
	}
	return obs, nil
}
