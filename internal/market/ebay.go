package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const ebayBaseURL = "https://api.ebay.com"

// Sold-listing marketplace data is the most trustworthy signal we get.
const ebayWeight = 0.95

type ebaySearchResponse struct {
	Total         int `json:"total"`
	ItemSummaries []struct {
		Title string `json:"title"`
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
		Condition string `json:"condition"`
		Image     struct {
			ImageURL string `json:"imageUrl"`
		} `json:"image"`
		Thumbnails []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"thumbnailImages"`
	} `json:"itemSummaries"`
}

// EbaySource queries eBay's Browse API for sold/completed listings.
// It also serves the orchestrator as a reference-image finder, since
// listing photos come back with the search results.
type EbaySource struct {
	httpClient *resty.Client
	tokens     *tokenSource
	limit      int
}

type EbayOpts struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Limit caps listings fetched per query. Defaults to 20.
	Limit int
}

func NewEbaySource(opts EbayOpts) *EbaySource {
	baseURL := ebayBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	httpClient := resty.New().SetBaseURL(baseURL)
	return &EbaySource{
		httpClient: httpClient,
		tokens: newTokenSource(
			httpClient,
			"/identity/v1/oauth2/token",
			opts.ClientID,
			opts.ClientSecret,
			"https://api.ebay.com/oauth/api_scope",
		),
		limit: limit,
	}
}

func (s *EbaySource) Name() string {
	return "ebay"
}

// Search implements the Source interface.
func (s *EbaySource) Search(ctx context.Context, productName string) ([]Observation, error) {
	resp, err := s.search(ctx, productName)
	if err != nil {
		return nil, err
	}

	var obs []Observation
	for _, item := range resp.ItemSummaries {
		price, err := strconv.ParseFloat(item.Price.Value, 64)
		if err != nil || price <= 0 {
			continue
		}
		obs = append(obs, Observation{
			SourcePlatform:   s.Name(),
			Price:            price,
			Currency:         item.Price.Currency,
			Condition:        item.Condition,
			Kind:             KindResale,
			ConfidenceWeight: ebayWeight,
			SampleSize:       resp.Total,
		})
	}
	return obs, nil
}

// FindListingImage implements provider.ReferenceFinder: the photo of
// the best-matching listing for a product name.
func (s *EbaySource) FindListingImage(ctx context.Context, productName string) (string, error) {
	resp, err := s.search(ctx, productName)
	if err != nil {
		return "", err
	}
	for _, item := range resp.ItemSummaries {
		if item.Image.ImageURL != "" {
			return item.Image.ImageURL, nil
		}
		for _, thumb := range item.Thumbnails {
			if thumb.ImageURL != "" {
				return thumb.ImageURL, nil
			}
		}
	}
	return "", nil
}

func (s *EbaySource) search(ctx context.Context, productName string) (*ebaySearchResponse, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	result := &ebaySearchResponse{}
	res, err := s.httpClient.NewRequest().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":      productName,
			"limit":  strconv.Itoa(s.limit),
			"filter": "buyingOptions:{FIXED_PRICE|AUCTION}",
		}).
		SetResult(result).
		Get("/buy/browse/v1/item_summary/search")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("search request failed (status: %d)", res.StatusCode())
	}
	return result, nil
}
