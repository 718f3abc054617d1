package provider

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const bingVisualBaseURL = "https://api.bing.microsoft.com"

type bingVisualResponse struct {
	Tags []struct {
		DisplayName string `json:"displayName"`
		Actions     []struct {
			ActionType string `json:"actionType"`
			Data       struct {
				Value []struct {
					Name               string `json:"name"`
					ContentURL         string `json:"contentUrl"`
					ThumbnailURL       string `json:"thumbnailUrl"`
					HostPageDomainName string `json:"hostPageDomainName"`
					InsightsMetadata   struct {
						AggregateOffer struct {
							LowPrice      float64 `json:"lowPrice"`
							PriceCurrency string  `json:"priceCurrency"`
						} `json:"aggregateOffer"`
					} `json:"insightsMetadata"`
				} `json:"value"`
			} `json:"data"`
		} `json:"actions"`
	} `json:"tags"`
}

// BingVisualProvider identifies products through a Bing Visual
// Search-style API. URL capability only.
type BingVisualProvider struct {
	httpClient *resty.Client
}

type BingVisualOpts struct {
	BaseURL string
	APIKey  string
}

func NewBingVisualProvider(opts BingVisualOpts) *BingVisualProvider {
	baseURL := bingVisualBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &BingVisualProvider{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Ocp-Apim-Subscription-Key", opts.APIKey),
	}
}

// AnalyzeURL implements the URLAnalyzer interface.
func (p *BingVisualProvider) AnalyzeURL(ctx context.Context, imageURL string) (*Identification, error) {
	result := &bingVisualResponse{}
	res, err := p.httpClient.NewRequest().
		SetContext(ctx).
		SetBody(map[string]any{
			"imageInfo": map[string]string{"url": imageURL},
		}).
		SetResult(result).
		Post("/v7.0/images/visualsearch")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("visual search request failed (status: %d)", res.StatusCode())
	}
	return p.mapResponse(result)
}

func (p *BingVisualProvider) mapResponse(r *bingVisualResponse) (*Identification, error) {
	ident := &Identification{
		Provider:   BingVisual,
		Confidence: 0.55,
		Narrative:  "Identified by visual similarity search.",
	}

	for _, tag := range r.Tags {
		if ident.Category == "" && tag.DisplayName != "" {
			ident.Category = tag.DisplayName
		}
		for _, action := range tag.Actions {
			// VisualSearch carries similar images, ProductVisualSearch
			// carries shoppable matches with offer data.
			if action.ActionType != "VisualSearch" && action.ActionType != "ProductVisualSearch" {
				continue
			}
			for _, v := range action.Data.Value {
				if ident.ProductName == "" && v.Name != "" {
					ident.ProductName = v.Name
				}
				if ident.ReferenceImageURL == "" && v.ThumbnailURL != "" {
					ident.ReferenceImageURL = v.ThumbnailURL
				}
				if offer := v.InsightsMetadata.AggregateOffer; offer.LowPrice > 0 && ident.RetailPriceText == "" {
					ident.RetailPriceText = fmt.Sprintf("$%.0f", offer.LowPrice)
				}
				if v.HostPageDomainName != "" {
					ident.Sources = append(ident.Sources, v.HostPageDomainName)
				}
			}
		}
	}
	if ident.ProductName == "" {
		return nil, fmt.Errorf("no product matches in visual search response")
	}
	return ident, nil
}
