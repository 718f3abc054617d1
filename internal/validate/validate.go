// Package validate scores image quality and product-data completeness
// independently and combines them into one accuracy report. Nothing in
// this package returns an error: malformed input degrades confidence
// instead.
package validate

import (
	"bytes"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Scorer rates one visual quality aspect of a decoded image. Output
// must be in [0,1]; higher is better. The defaults are placeholder
// heuristics; a computer-vision backend can be plugged in without
// touching the aggregation logic.
type Scorer func(cfg image.Config, data []byte) float64

// Config collects the validation thresholds and penalty sizes. All
// overridable defaults.
type Config struct {
	MinFileSize int
	MaxFileSize int
	MinWidth    int
	MinHeight   int

	SizePenalty       float64
	FormatPenalty     float64
	ResolutionPenalty float64
	SharpnessPenalty  float64
	LightingPenalty   float64
	CenteringPenalty  float64

	SharpnessFloor float64
	LightingFloor  float64
	CenteringFloor float64

	NamePenalty      float64
	ShortNamePenalty float64
	BrandPenalty     float64
	ModelPenalty     float64
	CategoryPenalty  float64
	PricePenalty     float64
	InversionPenalty float64
	MarginPenalty    float64

	MinNameLength int
	// Profit margin sanity band, percent.
	MarginSanityLow  float64
	MarginSanityHigh float64

	// Status ladder thresholds.
	ExcellentThreshold float64
	GoodThreshold      float64
	FairThreshold      float64
}

// Defaults returns the reference thresholds.
func Defaults() Config {
	return Config{
		MinFileSize: 5 * 1024,
		MaxFileSize: 10 * 1024 * 1024,
		MinWidth:    200,
		MinHeight:   200,

		SizePenalty:       0.15,
		FormatPenalty:     0.25,
		ResolutionPenalty: 0.20,
		SharpnessPenalty:  0.15,
		LightingPenalty:   0.10,
		CenteringPenalty:  0.10,

		SharpnessFloor: 0.5,
		LightingFloor:  0.4,
		CenteringFloor: 0.4,

		NamePenalty:      0.30,
		ShortNamePenalty: 0.10,
		BrandPenalty:     0.15,
		ModelPenalty:     0.10,
		CategoryPenalty:  0.10,
		PricePenalty:     0.15,
		InversionPenalty: 0.10,
		MarginPenalty:    0.15,

		MinNameLength:    8,
		MarginSanityLow:  -50,
		MarginSanityHigh: 80,

		ExcellentThreshold: 0.85,
		GoodThreshold:      0.70,
		FairThreshold:      0.50,
	}
}

// Result is one validation verdict: either for the image or for the
// product data.
type Result struct {
	IsValid         bool     `json:"isValid"`
	Confidence      float64  `json:"confidence"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Validator runs the checks. Construct with New; scorers default to
// the stubbed heuristics.
type Validator struct {
	cfg       Config
	sharpness Scorer
	lighting  Scorer
	centering Scorer
}

// Option customizes a Validator.
type Option func(*Validator)

// WithSharpnessScorer replaces the sharpness heuristic.
func WithSharpnessScorer(s Scorer) Option { return func(v *Validator) { v.sharpness = s } }

// WithLightingScorer replaces the lighting heuristic.
func WithLightingScorer(s Scorer) Option { return func(v *Validator) { v.lighting = s } }

// WithCenteringScorer replaces the centering heuristic.
func WithCenteringScorer(s Scorer) Option { return func(v *Validator) { v.centering = s } }

func New(cfg Config, opts ...Option) *Validator {
	v := &Validator{
		cfg:       cfg,
		sharpness: stubScorer(0.8),
		lighting:  stubScorer(0.75),
		centering: stubScorer(0.8),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// stubScorer is the placeholder heuristic: a constant score.
func stubScorer(score float64) Scorer {
	return func(image.Config, []byte) float64 { return score }
}

// imageFormat sniffs the format from magic bytes. File extensions are
// not consulted.
func imageFormat(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xff, 0xd8, 0xff}):
		return "jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}):
		return "png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	default:
		return ""
	}
}

// ValidateImage scores image quality. Each penalty is independent and
// additive; confidence is floor-clamped at 0.
func (v *Validator) ValidateImage(data []byte) Result {
	confidence := 1.0
	var issues, recs []string

	if len(data) < v.cfg.MinFileSize {
		confidence -= v.cfg.SizePenalty
		issues = append(issues, "image file is very small")
		recs = append(recs, "Upload a higher quality photo")
	} else if len(data) > v.cfg.MaxFileSize {
		confidence -= v.cfg.SizePenalty
		issues = append(issues, "image file exceeds the size limit")
		recs = append(recs, "Compress or resize the photo before uploading")
	}

	format := imageFormat(data)
	if format == "" {
		confidence -= v.cfg.FormatPenalty
		issues = append(issues, "unrecognized image format")
		recs = append(recs, "Use a JPEG or PNG photo")
	}

	var cfg image.Config
	if format != "" && format != "webp" {
		decoded, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err == nil {
			cfg = decoded
			if cfg.Width < v.cfg.MinWidth || cfg.Height < v.cfg.MinHeight {
				confidence -= v.cfg.ResolutionPenalty
				issues = append(issues, "image resolution is below the minimum")
				recs = append(recs, "Take the photo at a higher resolution")
			}
		}
	}

	if score := clamp01(v.sharpness(cfg, data)); score < v.cfg.SharpnessFloor {
		confidence -= v.cfg.SharpnessPenalty
		issues = append(issues, "image appears blurry")
		recs = append(recs, "Hold the camera steady and refocus")
	}
	if score := clamp01(v.lighting(cfg, data)); score < v.cfg.LightingFloor {
		confidence -= v.cfg.LightingPenalty
		issues = append(issues, "poor lighting")
		recs = append(recs, "Photograph the item in better light")
	}
	if score := clamp01(v.centering(cfg, data)); score < v.cfg.CenteringFloor {
		confidence -= v.cfg.CenteringPenalty
		issues = append(issues, "item is not centered in the frame")
		recs = append(recs, "Center the item and fill the frame")
	}

	confidence = math.Max(confidence, 0)
	return Result{
		IsValid:         confidence >= v.cfg.FairThreshold,
		Confidence:      confidence,
		Issues:          issues,
		Recommendations: recs,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
