// Command analyze runs one product analysis against a local image file
// and prints the resulting record as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ReptilePvP/ai-ndresells-sub000/config"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/analysis"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/imagestore"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/market"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/provider"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [gemini|serp-lens|bing-visual] [live]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY  - Required, primary provider\n")
		fmt.Fprintf(os.Stderr, "  CREDENTIAL_KEY  - Required, encrypts stored credentials\n")
		fmt.Fprintf(os.Stderr, "  SERPAPI_KEY, BING_API_KEY, EBAY_CLIENT_ID/SECRET, MINIO_* - Optional capabilities\n")
		os.Exit(1)
	}
	imagePath := os.Args[1]
	preference := provider.Gemini
	live := false
	for _, arg := range os.Args[2:] {
		if arg == "live" {
			live = true
			continue
		}
		preference = provider.ID(arg)
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Fatal().Msgf("missing required config: %s", strings.Join(missing, ", "))
	}

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", imagePath).Msg("failed to read image")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	encryptionKey, err := storage.DeriveKey(cfg.CredentialKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to derive encryption key")
	}
	store, err := storage.NewSQLiteStore(cfg.DBPath, encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("analysis store initialized")

	gemini, err := provider.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini provider")
	}

	// URL-capable providers need the image published at a public URL,
	// so they are only registered when an object store is configured.
	var publisher provider.Publisher
	urlProviders := map[provider.ID]provider.URLAnalyzer{}
	if cfg.MinioEndpoint != "" {
		images, err := imagestore.New(ctx, imagestore.Opts{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize image store")
		}
		publisher = images
		if cfg.SerpAPIKey != "" {
			urlProviders[provider.SerpLens] = provider.NewSerpLensProvider(provider.SerpLensOpts{APIKey: cfg.SerpAPIKey})
		}
		if cfg.BingAPIKey != "" {
			urlProviders[provider.BingVisual] = provider.NewBingVisualProvider(provider.BingVisualOpts{APIKey: cfg.BingAPIKey})
		}
	} else {
		log.Warn().Msg("no object store configured, visual search providers disabled")
	}

	var sources []market.Source
	var refs provider.ReferenceFinder
	if cfg.EbayClientID != "" && cfg.EbayClientSecret != "" {
		ebay := market.NewEbaySource(market.EbayOpts{
			ClientID:     cfg.EbayClientID,
			ClientSecret: cfg.EbayClientSecret,
		})
		sources = append(sources, ebay)
		refs = ebay
	}
	sources = append(sources, market.NewStockxSource(market.StockxOpts{APIKey: cfg.StockxAPIKey}))
	if cfg.SerpAPIKey != "" {
		sources = append(sources, market.NewRetailSource(market.RetailOpts{APIKey: cfg.SerpAPIKey}))
	}

	marketCfg := market.DefaultConfig()
	marketCfg.SourceTimeout = cfg.SourceTimeout

	pipeline := analysis.New(analysis.Opts{
		Identifier: provider.NewOrchestrator(provider.OrchestratorOpts{
			Registry:  provider.NewRegistry(gemini, urlProviders),
			Publisher: publisher,
			Refs:      refs,
		}),
		Pricer:  market.NewAggregator(sources, marketCfg),
		Store:   store,
		FullTTL: cfg.CacheTTL,
		LiveTTL: cfg.LiveCacheTTL,
	})

	analyze := pipeline.Analyze
	if live {
		analyze = pipeline.AnalyzeLive
	}
	rec, err := analyze(ctx, imageBytes, preference, imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode record")
	}
	fmt.Println(string(out))
}
