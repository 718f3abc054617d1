// Package analysis composes the full pipeline: cache lookup,
// identification, market pricing with heuristic fallback, accuracy
// validation, and cache/persistence writes. It is the surface the
// route layer consumes.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ReptilePvP/ai-ndresells-sub000/internal/cache"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/fingerprint"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/market"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/pricing"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/provider"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/storage"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/validate"
)

// Identifier runs provider selection and fallback. Satisfied by
// provider.Orchestrator.
type Identifier interface {
	Identify(ctx context.Context, imageBytes []byte, preference provider.ID) (*provider.Identification, error)
}

// Pricer produces a market summary for a product name. Satisfied by
// market.Aggregator.
type Pricer interface {
	Aggregate(ctx context.Context, productName string) market.Summary
}

// Record is the analysis result handed back to callers.
type Record struct {
	ID             string                  `json:"id"`
	Fingerprint    fingerprint.Fingerprint `json:"fingerprint"`
	Provider       provider.ID             `json:"provider"`
	Identification provider.Identification `json:"identification"`
	Market         market.Summary          `json:"market"`
	Accuracy       validate.Report         `json:"accuracy"`
	Cached         bool                    `json:"cached"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// Opts wires a Pipeline. Store and LoadUpload are optional; without a
// store nothing persists and the blocklist is process-local.
type Opts struct {
	Identifier Identifier
	Pricer     Pricer
	Heuristics *pricing.Engine
	Validator  *validate.Validator
	Store      storage.Store
	// FullTTL caches complete analyses; LiveTTL caches low-latency
	// live-mode analyses.
	FullTTL time.Duration
	LiveTTL time.Duration
	// LoadUpload reads the original image bytes for a stored upload
	// reference. Defaults to os.ReadFile.
	LoadUpload func(ref string) ([]byte, error)
}

// Pipeline owns the per-process cache and blocklist and runs analyses.
type Pipeline struct {
	identifier Identifier
	pricer     Pricer
	heur       *pricing.Engine
	validator  *validate.Validator
	store      storage.Store
	cache      *cache.Cache[*Record]
	fullTTL    time.Duration
	liveTTL    time.Duration
	loadUpload func(ref string) ([]byte, error)
}

func New(opts Opts) *Pipeline {
	p := &Pipeline{
		identifier: opts.Identifier,
		pricer:     opts.Pricer,
		heur:       opts.Heuristics,
		validator:  opts.Validator,
		store:      opts.Store,
		cache:      cache.New[*Record](),
		fullTTL:    opts.FullTTL,
		liveTTL:    opts.LiveTTL,
		loadUpload: opts.LoadUpload,
	}
	if p.heur == nil {
		p.heur = pricing.NewEngine(pricing.Defaults())
	}
	if p.validator == nil {
		p.validator = validate.New(validate.Defaults())
	}
	if p.fullTTL <= 0 {
		p.fullTTL = time.Hour
	}
	if p.liveTTL <= 0 {
		p.liveTTL = 5 * time.Minute
	}
	if p.loadUpload == nil {
		p.loadUpload = os.ReadFile
	}
	p.seedBlocklist()
	return p
}

// seedBlocklist restores persisted negative-feedback membership so it
// survives restarts.
func (p *Pipeline) seedBlocklist() {
	if p.store == nil {
		return
	}
	fps, err := p.store.BlockedFingerprints()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load persisted blocklist")
		return
	}
	seed := make([]fingerprint.Fingerprint, len(fps))
	for i, fp := range fps {
		seed[i] = fingerprint.Fingerprint(fp)
	}
	p.cache.SeedBlocklist(seed)
	if len(seed) > 0 {
		log.Info().Int("count", len(seed)).Msg("seeded blocklist from storage")
	}
}

// Analyze runs one full analysis. uploadRef is the caller's stable
// reference to the original image (used later for negative feedback).
func (p *Pipeline) Analyze(ctx context.Context, imageBytes []byte, preference provider.ID, uploadRef string) (*Record, error) {
	return p.analyze(ctx, imageBytes, preference, uploadRef, p.fullTTL)
}

// AnalyzeLive is Analyze with the short live-mode cache TTL.
func (p *Pipeline) AnalyzeLive(ctx context.Context, imageBytes []byte, preference provider.ID, uploadRef string) (*Record, error) {
	return p.analyze(ctx, imageBytes, preference, uploadRef, p.liveTTL)
}

func (p *Pipeline) analyze(ctx context.Context, imageBytes []byte, preference provider.ID, uploadRef string, ttl time.Duration) (*Record, error) {
	fp := fingerprint.Hash(imageBytes)
	providerID := provider.Normalize(preference)

	if cached, ok := p.cache.Get(fp, providerID); ok {
		log.Debug().Str("fingerprint", fp.Short()).Msg("analysis cache hit")
		rec := *cached
		rec.Cached = true
		return &rec, nil
	}

	ident, err := p.identifier.Identify(ctx, imageBytes, providerID)
	if err != nil {
		return nil, err
	}

	// Pricing and validation are data-independent; run them
	// concurrently. Both absorb their own failures.
	var (
		summary         market.Summary
		imgRes, dataRes validate.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = p.pricer.Aggregate(gctx, ident.ProductName)
		if summary.DataQuality == market.QualityLimited {
			summary = p.estimateSummary(ident, summary)
		}
		return nil
	})
	g.Go(func() error {
		imgRes = p.validator.ValidateImage(imageBytes)
		dataRes = p.validator.ValidateProductData(validate.ProductData{
			Name:            ident.ProductName,
			Brand:           ident.Brand,
			Model:           ident.Model,
			Category:        ident.Category,
			RetailPriceText: ident.RetailPriceText,
			ResellPriceText: ident.ResellPriceText,
		})
		return nil
	})
	g.Wait()

	rec := &Record{
		ID:             uuid.NewString(),
		Fingerprint:    fp,
		Provider:       providerID,
		Identification: *ident,
		Market:         summary,
		Accuracy:       p.validator.BuildReport(imgRes, dataRes),
		CreatedAt:      time.Now(),
	}

	p.persist(rec, uploadRef)
	p.cache.Put(fp, providerID, rec, ttl)
	return rec, nil
}

// estimateSummary fills a limited summary from the heuristics engine.
// Only the data quality tier changes when the heuristics also come up
// empty.
func (p *Pipeline) estimateSummary(ident *provider.Identification, summary market.Summary) market.Summary {
	est := p.heur.Refine(ident.ProductName, ident.Description, ident.RetailPriceText, ident.ResellPriceText)
	if est.RetailPrice == nil && est.ResellPrice == nil {
		return summary
	}

	summary.DataQuality = market.QualityEstimated
	if est.RetailPrice != nil {
		summary.RetailRange = &market.PriceRange{Low: est.RetailPrice.Low, High: est.RetailPrice.High}
		summary.RetailAverage = est.RetailPrice.Avg
	}
	if est.ResellPrice != nil {
		summary.ResellRange = &market.PriceRange{Low: est.ResellPrice.Low, High: est.ResellPrice.High}
		summary.ResellAverage = est.ResellPrice.Avg
		summary.RecommendedResellRange = &market.PriceRange{Low: est.ResellPrice.Low, High: est.ResellPrice.High}
	}
	if est.ProfitMargin != nil {
		margin := int(math.Round(*est.ProfitMargin))
		summary.ProfitMarginPercent = &margin
	}
	summary.ContributingSources = append(summary.ContributingSources, "heuristics")
	return summary
}

func (p *Pipeline) persist(rec *Record, uploadRef string) {
	if p.store == nil {
		return
	}
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal analysis record")
		return
	}
	row := &storage.AnalysisRow{
		ID:          rec.ID,
		Fingerprint: string(rec.Fingerprint),
		Provider:    string(rec.Provider),
		ProductName: rec.Identification.ProductName,
		RecordJSON:  string(recordJSON),
		Confidence:  rec.Accuracy.OverallConfidence,
		UploadRef:   uploadRef,
		CreatedAt:   rec.CreatedAt,
	}
	if err := p.store.SaveAnalysis(row); err != nil {
		log.Warn().Err(err).Str("id", rec.ID).Msg("failed to persist analysis")
	}
}

// RecordNegativeFeedback handles a user marking an analysis as
// inaccurate: the original upload is re-hashed and the fingerprint is
// blocklisted so the next identical upload recomputes from scratch.
// Missing records or unreadable uploads skip invalidation with a log
// line; only a storage lookup failure is returned.
func (p *Pipeline) RecordNegativeFeedback(recordID string) error {
	if p.store == nil {
		return fmt.Errorf("no store configured")
	}
	row, err := p.store.GetAnalysis(recordID)
	if err != nil {
		return fmt.Errorf("failed to look up analysis: %w", err)
	}
	if row == nil {
		log.Warn().Str("id", recordID).Msg("feedback for unknown analysis, skipping invalidation")
		return nil
	}

	data, err := p.loadUpload(row.UploadRef)
	if err != nil {
		log.Warn().Err(err).Str("uploadRef", row.UploadRef).Msg("original upload unavailable, skipping invalidation")
		return nil
	}

	fp := fingerprint.Hash(data)
	p.cache.Invalidate(fp)
	if err := p.store.AddFeedback(string(fp)); err != nil {
		log.Error().Err(err).Str("fingerprint", fp.Short()).Msg("failed to persist feedback")
	}
	log.Info().Str("fingerprint", fp.Short()).Str("id", recordID).Msg("analysis blocklisted after negative feedback")
	return nil
}

// ClearFeedback removes a fingerprint from the blocklist, both in
// memory and in storage.
func (p *Pipeline) ClearFeedback(fp fingerprint.Fingerprint) {
	p.cache.ClearBlock(fp)
	if p.store != nil {
		if err := p.store.ClearFeedback(string(fp)); err != nil {
			log.Warn().Err(err).Str("fingerprint", fp.Short()).Msg("failed to clear persisted feedback")
		}
	}
}
