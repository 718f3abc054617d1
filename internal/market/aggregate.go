package market

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DataQuality grades how much real market evidence backs a summary.
type DataQuality string

const (
	// QualityAuthenticated: at least one live source produced
	// observations.
	QualityAuthenticated DataQuality = "authenticated"
	// QualityEstimated: only heuristic refinement contributed.
	QualityEstimated DataQuality = "estimated"
	// QualityLimited: nothing at all was available.
	QualityLimited DataQuality = "limited"
)

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Summary is the reconciled market view for one product. Derived
// deterministically from the observation set: the same observations
// always produce the same summary.
type Summary struct {
	RetailRange            *PriceRange `json:"retailPriceRange,omitempty"`
	ResellRange            *PriceRange `json:"resellPriceRange,omitempty"`
	RecommendedResellRange *PriceRange `json:"recommendedResellRange,omitempty"`
	RetailAverage          float64     `json:"retailAverage,omitempty"`
	ResellAverage          float64     `json:"resellAverage,omitempty"`
	ProfitMarginPercent    *int        `json:"profitMarginPercent,omitempty"`
	DataQuality            DataQuality `json:"dataQuality"`
	ContributingSources    []string    `json:"contributingSources"`
}

// Config holds the tuned aggregation constants. They are defaults, not
// business rules; override per aggregator.
type Config struct {
	// Recommended resale band around the observed resale average.
	ResaleBandLow  float64
	ResaleBandHigh float64
	// Markdown band applied to retail when no resale data exists.
	RetailMarkdownLow  float64
	RetailMarkdownHigh float64
	// SourceTimeout bounds each source call independently.
	SourceTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ResaleBandLow:      0.85,
		ResaleBandHigh:     1.15,
		RetailMarkdownLow:  0.60,
		RetailMarkdownHigh: 0.85,
		SourceTimeout:      10 * time.Second,
	}
}

// Aggregator fans out to every configured source concurrently and
// merges whatever came back. It never fails: with zero successful
// sources it returns a summary with limited data quality.
type Aggregator struct {
	sources []Source
	cfg     Config
}

func NewAggregator(sources []Source, cfg Config) *Aggregator {
	return &Aggregator{sources: sources, cfg: cfg}
}

// Aggregate queries all sources for a product name. Source failures,
// timeouts, and panics are absorbed and logged; they only shrink the
// observation set.
func (a *Aggregator) Aggregate(ctx context.Context, productName string) Summary {
	results := make([][]Observation, len(a.sources))

	g := new(errgroup.Group)
	for i, src := range a.sources {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("source", src.Name()).Any("panic", r).Msg("pricing source panicked")
				}
			}()

			srcCtx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
			defer cancel()

			obs, err := src.Search(srcCtx, productName)
			if err != nil {
				log.Warn().Str("source", src.Name()).Err(err).Msg("pricing source failed")
				return nil
			}
			results[i] = obs
			return nil
		})
	}
	g.Wait()

	var all []Observation
	for _, obs := range results {
		all = append(all, obs...)
	}
	return Summarize(all, a.cfg)
}

// Summarize reduces an observation set to a summary. Pure: sorting
// makes the weighted math independent of source completion order.
func Summarize(obs []Observation, cfg Config) Summary {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SourcePlatform != sorted[j].SourcePlatform {
			return sorted[i].SourcePlatform < sorted[j].SourcePlatform
		}
		return sorted[i].Price < sorted[j].Price
	})

	summary := Summary{DataQuality: QualityLimited}

	retailRange, retailAvg := mergeKind(sorted, KindRetail)
	resellRange, resellAvg := mergeKind(sorted, KindResale)
	summary.RetailRange = retailRange
	summary.ResellRange = resellRange
	summary.RetailAverage = retailAvg
	summary.ResellAverage = resellAvg

	switch {
	case resellRange != nil:
		summary.RecommendedResellRange = &PriceRange{
			Low:  round2(resellAvg * cfg.ResaleBandLow),
			High: round2(resellAvg * cfg.ResaleBandHigh),
		}
	case retailRange != nil:
		// Estimated-from-retail markdown.
		summary.RecommendedResellRange = &PriceRange{
			Low:  round2(retailAvg * cfg.RetailMarkdownLow),
			High: round2(retailAvg * cfg.RetailMarkdownHigh),
		}
	}

	if retailRange != nil && resellRange != nil && retailAvg > 0 {
		margin := int(math.Round((resellAvg - retailAvg) / retailAvg * 100))
		summary.ProfitMarginPercent = &margin
	}

	seen := map[string]bool{}
	for _, o := range sorted {
		if !seen[o.SourcePlatform] {
			seen[o.SourcePlatform] = true
			summary.ContributingSources = append(summary.ContributingSources, o.SourcePlatform)
		}
	}
	if len(sorted) > 0 {
		summary.DataQuality = QualityAuthenticated
	}
	return summary
}

// mergeKind computes the observed range and confidence-weighted average
// for one pricing role.
func mergeKind(obs []Observation, kind Kind) (*PriceRange, float64) {
	var (
		weightedSum float64
		totalWeight float64
		low         = math.Inf(1)
		high        = math.Inf(-1)
		n           int
	)
	for _, o := range obs {
		if o.Kind != kind || o.Price <= 0 || o.ConfidenceWeight <= 0 {
			continue
		}
		n++
		weightedSum += o.Price * o.ConfidenceWeight
		totalWeight += o.ConfidenceWeight
		low = math.Min(low, o.Price)
		high = math.Max(high, o.Price)
	}
	if n == 0 || totalWeight == 0 {
		return nil, 0
	}
	return &PriceRange{Low: round2(low), High: round2(high)}, round2(weightedSum / totalWeight)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
