package validate

import (
	"math"
	"strings"

	"github.com/ReptilePvP/ai-ndresells-sub000/internal/pricing"
)

// ProductData carries the identification fields subject to
// completeness checks.
type ProductData struct {
	Name            string
	Brand           string
	Model           string
	Category        string
	RetailPriceText string
	ResellPriceText string
}

var placeholderNames = []string{"unknown", "unknown product", "n/a", "unidentified", "item"}

var knownCategories = map[string]bool{
	"footwear":     true,
	"apparel":      true,
	"accessories":  true,
	"collectibles": true,
	"electronics":  true,
	"general":      true,
}

// ValidateProductData scores identification completeness. Penalties
// are independent and additive, floor-clamped at 0; never errors.
func (v *Validator) ValidateProductData(d ProductData) Result {
	confidence := 1.0
	var issues, recs []string

	name := strings.TrimSpace(d.Name)
	switch {
	case name == "" || isPlaceholderName(name):
		confidence -= v.cfg.NamePenalty
		issues = append(issues, "product name is missing or a placeholder")
		recs = append(recs, "Retry the analysis with a clearer photo of the product")
	case len(name) < v.cfg.MinNameLength:
		confidence -= v.cfg.ShortNamePenalty
		issues = append(issues, "product name is very short")
		recs = append(recs, "A photo showing the product label may improve identification")
	}

	if strings.TrimSpace(d.Brand) == "" {
		confidence -= v.cfg.BrandPenalty
		issues = append(issues, "brand could not be identified")
		recs = append(recs, "Include the brand logo or label in the photo")
	}
	if strings.TrimSpace(d.Model) == "" {
		confidence -= v.cfg.ModelPenalty
		issues = append(issues, "model could not be identified")
		recs = append(recs, "Include the model number or tag in the photo")
	}
	if !knownCategories[strings.ToLower(strings.TrimSpace(d.Category))] {
		confidence -= v.cfg.CategoryPenalty
		issues = append(issues, "category is not recognized")
	}

	retail := pricing.ParsePriceRange(d.RetailPriceText)
	resell := pricing.ParsePriceRange(d.ResellPriceText)
	if retail == nil {
		confidence -= v.cfg.PricePenalty
		issues = append(issues, "retail price is malformed or missing")
	}
	if resell == nil {
		confidence -= v.cfg.PricePenalty
		issues = append(issues, "resale price is malformed or missing")
	}

	if retail != nil && resell != nil {
		if resell.Avg > retail.Avg {
			confidence -= v.cfg.InversionPenalty
			issues = append(issues, "resale price exceeds retail price; verify market data")
			recs = append(recs, "Verify market data before listing at this price")
		}
		if retail.Avg > 0 {
			margin := (resell.Avg - retail.Avg) / retail.Avg * 100
			if margin < v.cfg.MarginSanityLow || margin > v.cfg.MarginSanityHigh {
				confidence -= v.cfg.MarginPenalty
				issues = append(issues, "profit margin is outside the plausible band")
			}
		}
	}

	confidence = math.Max(confidence, 0)
	return Result{
		IsValid:         confidence >= v.cfg.FairThreshold,
		Confidence:      confidence,
		Issues:          issues,
		Recommendations: recs,
	}
}

func isPlaceholderName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range placeholderNames {
		if lower == p {
			return true
		}
	}
	return false
}
