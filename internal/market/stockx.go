package market

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const stockxBaseURL = "https://stockx.com/api"

// Active-listing data reflects asking prices, not completed sales.
const stockxWeight = 0.85

type stockxBrowseResponse struct {
	Products []struct {
		Title  string `json:"title"`
		Brand  string `json:"brand"`
		Market struct {
			LastSale      float64 `json:"lastSale"`
			LowestAsk     float64 `json:"lowestAsk"`
			SalesLast72h  int     `json:"salesLast72Hours"`
			DeadstockSold int     `json:"deadstockSold"`
		} `json:"market"`
	} `json:"Products"`
}

// StockxSource queries a StockX-style browse API for active resale
// listings and recent sale prices.
type StockxSource struct {
	httpClient *resty.Client
}

type StockxOpts struct {
	BaseURL string
	APIKey  string
}

func NewStockxSource(opts StockxOpts) *StockxSource {
	baseURL := stockxBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	client := resty.New().SetBaseURL(baseURL)
	if opts.APIKey != "" {
		client.SetHeader("x-api-key", opts.APIKey)
	}
	return &StockxSource{httpClient: client}
}

func (s *StockxSource) Name() string {
	return "stockx"
}

// Search implements the Source interface.
func (s *StockxSource) Search(ctx context.Context, productName string) ([]Observation, error) {
	result := &stockxBrowseResponse{}
	res, err := s.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParam("_search", productName).
		SetResult(result).
		Get("/browse")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("browse request failed (status: %d)", res.StatusCode())
	}

	var obs []Observation
	for _, p := range result.Products {
		price := p.Market.LastSale
		if price <= 0 {
			price = p.Market.LowestAsk
		}
		if price <= 0 {
			continue
		}
		obs = append(obs, Observation{
			SourcePlatform:   s.Name(),
			Price:            price,
			Currency:         "USD",
			Condition:        "new",
			Kind:             KindResale,
			ConfidenceWeight: stockxWeight,
			SampleSize:       p.Market.DeadstockSold,
		})
	}
	return obs, nil
}
