// Package pricing refines raw price text into estimates when
// authoritative marketplace data is unavailable. Everything here is a
// pure function of its inputs: no I/O, no clocks, no side effects.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Category is the coarse product class driving resale multipliers.
type Category string

const (
	CategoryFootwear     Category = "footwear"
	CategoryApparel      Category = "apparel"
	CategoryAccessories  Category = "accessories"
	CategoryCollectibles Category = "collectibles"
	CategoryGeneral      Category = "general"
)

// BrandTier buckets brands by resale behavior.
type BrandTier string

const (
	TierPremium    BrandTier = "premium"
	TierStreetwear BrandTier = "streetwear"
	TierSneaker    BrandTier = "sneaker"
	TierUnknown    BrandTier = "unknown"
)

// Market condition labels on the estimated profit margin.
const (
	ConditionStrongResell   = "strong resell potential"
	ConditionModerateProfit = "moderate profit opportunity"
	ConditionHighLossRisk   = "high loss risk"
	ConditionBreakEven      = "break-even"
)

// priceRangeRe matches "$N" and "$N - $M", optionally followed by a
// currency code.
var priceRangeRe = regexp.MustCompile(`^\$(\d+(?:\.\d+)?)(?:\s*-\s*\$(\d+(?:\.\d+)?))?(?:\s+[A-Za-z]{3})?$`)

// PriceRange is a parsed free-text price expression.
type PriceRange struct {
	Low  float64
	High float64
	Avg  float64
}

// ParsePriceRange parses "$50" or "$50 - $75" style text. Returns nil
// for anything unparseable; callers must treat nil as insufficient
// data, never as zero.
func ParsePriceRange(text string) *PriceRange {
	m := priceRangeRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	low, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	high := low
	if m[2] != "" {
		high, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil
		}
	}
	if high < low {
		low, high = high, low
	}
	return &PriceRange{Low: low, High: high, Avg: (low + high) / 2}
}

// Config collects the tuned heuristic constants. All of them are
// overridable defaults rather than load-bearing business rules.
type Config struct {
	CategoryKeywords         map[Category][]string
	CategoryResaleMultiplier map[Category]float64
	BrandTierKeywords        map[BrandTier][]string
	BrandTierMultiplier      map[BrandTier]float64
	// CollectibleBoosts are independent multiplicative factors keyed
	// by keyword; each matching keyword boosts the resale estimate.
	CollectibleBoosts map[string]float64
	// Margin thresholds (percent) for the market condition label.
	StrongMarginPct float64
	LossMarginPct   float64
}

// Defaults returns the reference tuning.
func Defaults() Config {
	return Config{
		CategoryKeywords: map[Category][]string{
			CategoryFootwear:     {"sneaker", "shoe", "boot", "trainer", "runner", "jordan", "dunk", "yeezy"},
			CategoryApparel:      {"shirt", "hoodie", "jacket", "tee", "sweater", "pants", "jeans", "dress"},
			CategoryAccessories:  {"watch", "bag", "wallet", "belt", "sunglasses", "hat", "cap"},
			CategoryCollectibles: {"card", "figure", "funko", "lego", "vinyl", "comic", "poster"},
		},
		CategoryResaleMultiplier: map[Category]float64{
			CategoryFootwear:     0.75,
			CategoryApparel:      0.65,
			CategoryAccessories:  0.70,
			CategoryCollectibles: 1.10,
			CategoryGeneral:      0.60,
		},
		BrandTierKeywords: map[BrandTier][]string{
			TierPremium:    {"gucci", "louis vuitton", "prada", "rolex", "hermes", "chanel"},
			TierStreetwear: {"supreme", "bape", "off-white", "palace", "stussy"},
			TierSneaker:    {"nike", "adidas", "jordan", "new balance", "asics", "yeezy"},
		},
		BrandTierMultiplier: map[BrandTier]float64{
			TierPremium:    1.15,
			TierStreetwear: 1.25,
			TierSneaker:    1.20,
			TierUnknown:    1.0,
		},
		CollectibleBoosts: map[string]float64{
			"limited edition": 1.20,
			"collab":          1.15,
			"vintage":         1.10,
			"deadstock":       1.25,
		},
		StrongMarginPct: 20,
		LossMarginPct:   -10,
	}
}

// Estimate is the heuristic refinement result. Nil price fields mean
// insufficient data.
type Estimate struct {
	RetailPrice     *PriceRange
	ResellPrice     *PriceRange
	ProfitMargin    *float64
	MarketCondition string
	Confidence      float64
}

// Engine applies the heuristics. Deterministic for identical inputs.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Classify buckets a product into a category and brand tier by
// substring matching against the curated keyword lists.
func (e *Engine) Classify(name, description string) (Category, BrandTier) {
	text := strings.ToLower(name + " " + description)

	category := CategoryGeneral
	for _, c := range []Category{CategoryFootwear, CategoryApparel, CategoryAccessories, CategoryCollectibles} {
		if containsAny(text, e.cfg.CategoryKeywords[c]) {
			category = c
			break
		}
	}

	tier := TierUnknown
	for _, t := range []BrandTier{TierPremium, TierStreetwear, TierSneaker} {
		if containsAny(text, e.cfg.BrandTierKeywords[t]) {
			tier = t
			break
		}
	}
	return category, tier
}

// collectibleFactor compounds the boost of every matching collectible
// keyword. "Collab" also catches "collaboration".
func (e *Engine) collectibleFactor(text string) float64 {
	factor := 1.0
	for keyword, boost := range e.cfg.CollectibleBoosts {
		if strings.Contains(text, keyword) {
			factor *= boost
		}
	}
	return factor
}

// Refine turns raw price text into a refined estimate. When resale
// text is missing or unparseable, the resale range is derived from
// retail via the category, brand tier, and collectible multipliers.
func (e *Engine) Refine(name, description, rawRetail, rawResell string) Estimate {
	text := strings.ToLower(name + " " + description)
	category, tier := e.Classify(name, description)

	retail := ParsePriceRange(rawRetail)
	resell := ParsePriceRange(rawResell)

	derived := false
	if resell == nil && retail != nil {
		mult := e.cfg.CategoryResaleMultiplier[category] *
			e.cfg.BrandTierMultiplier[tier] *
			e.collectibleFactor(text)
		resell = &PriceRange{
			Low:  round2(retail.Low * mult),
			High: round2(retail.High * mult),
		}
		resell.Avg = round2((resell.Low + resell.High) / 2)
		derived = true
	}

	est := Estimate{
		RetailPrice: retail,
		ResellPrice: resell,
	}

	if retail != nil && resell != nil && retail.Avg > 0 {
		margin := round2((resell.Avg - retail.Avg) / retail.Avg * 100)
		est.ProfitMargin = &margin
		est.MarketCondition = e.marketCondition(margin)
	}

	switch {
	case retail != nil && resell != nil && !derived:
		est.Confidence = 0.8
	case retail != nil || resell != nil:
		est.Confidence = 0.6
	default:
		est.Confidence = 0.3
	}
	return est
}

func (e *Engine) marketCondition(marginPct float64) string {
	switch {
	case marginPct > e.cfg.StrongMarginPct:
		return ConditionStrongResell
	case marginPct > 0:
		return ConditionModerateProfit
	case marginPct < e.cfg.LossMarginPct:
		return ConditionHighLossRisk
	default:
		return ConditionBreakEven
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
