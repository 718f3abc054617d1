package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serpLensTestServer(t *testing.T, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "google_lens", r.URL.Query().Get("engine"))
		assert.Equal(t, "https://img.example.com/x.jpg", r.URL.Query().Get("url"))
		assert.Equal(t, "key-123", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

func TestSerpLensKnowledgeGraphTakesPriority(t *testing.T) {
	ts := serpLensTestServer(t, map[string]any{
		"knowledge_graph": []map[string]any{
			{"title": "Acme Runner 2000", "subtitle": "Trail running shoe", "brand": "Acme"},
		},
		"visual_matches": []map[string]any{
			{
				"title":     "acme runner lookalike",
				"source":    "shop.example.com",
				"thumbnail": "https://i.example.com/t.jpg",
				"price":     map[string]any{"extracted_value": 120.0, "currency": "USD"},
			},
		},
	})
	defer ts.Close()

	p := NewSerpLensProvider(SerpLensOpts{BaseURL: ts.URL, APIKey: "key-123"})
	ident, err := p.AnalyzeURL(context.Background(), "https://img.example.com/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "Acme Runner 2000", ident.ProductName)
	assert.Equal(t, "Trail running shoe", ident.Description)
	assert.Equal(t, "Acme", ident.Brand)
	assert.Equal(t, 0.7, ident.Confidence)
	assert.Equal(t, "https://i.example.com/t.jpg", ident.ReferenceImageURL)
	assert.Equal(t, "$120", ident.RetailPriceText)
	assert.Equal(t, []string{"shop.example.com"}, ident.Sources)
	assert.Equal(t, SerpLens, ident.Provider)
}

func TestSerpLensVisualMatchesOnly(t *testing.T) {
	ts := serpLensTestServer(t, map[string]any{
		"visual_matches": []map[string]any{
			{"title": "Acme Runner 2000 size 10", "source": "resale.example.com"},
			{"title": "some other shoe", "source": "other.example.com"},
		},
	})
	defer ts.Close()

	p := NewSerpLensProvider(SerpLensOpts{BaseURL: ts.URL, APIKey: "key-123"})
	ident, err := p.AnalyzeURL(context.Background(), "https://img.example.com/x.jpg")
	require.NoError(t, err)
	// First match wins the title; without a knowledge graph the
	// confidence stays at the visual-match baseline.
	assert.Equal(t, "Acme Runner 2000 size 10", ident.ProductName)
	assert.Equal(t, 0.6, ident.Confidence)
	assert.Equal(t, []string{"resale.example.com", "other.example.com"}, ident.Sources)
}

func TestSerpLensEmptyResponseIsError(t *testing.T) {
	ts := serpLensTestServer(t, map[string]any{})
	defer ts.Close()

	p := NewSerpLensProvider(SerpLensOpts{BaseURL: ts.URL, APIKey: "key-123"})
	_, err := p.AnalyzeURL(context.Background(), "https://img.example.com/x.jpg")
	assert.ErrorContains(t, err, "no visual matches")
}

func TestSerpLensMatchesWithoutTitleIsError(t *testing.T) {
	ts := serpLensTestServer(t, map[string]any{
		"visual_matches": []map[string]any{
			{"source": "shop.example.com", "thumbnail": "https://i.example.com/t.jpg"},
		},
	})
	defer ts.Close()

	p := NewSerpLensProvider(SerpLensOpts{BaseURL: ts.URL, APIKey: "key-123"})
	_, err := p.AnalyzeURL(context.Background(), "https://img.example.com/x.jpg")
	assert.ErrorContains(t, err, "no usable title")
}

func TestSerpLensHTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p := NewSerpLensProvider(SerpLensOpts{BaseURL: ts.URL, APIKey: "key-123"})
	_, err := p.AnalyzeURL(context.Background(), "https://img.example.com/x.jpg")
	assert.ErrorContains(t, err, "status: 429")
}
