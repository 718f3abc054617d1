package validate

// Status is the four-tier accuracy grade.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
)

// Report combines the image-quality and data-completeness results.
type Report struct {
	OverallConfidence float64  `json:"overallConfidence"`
	Status            Status   `json:"status"`
	Summary           string   `json:"summary"`
	Improvements      []string `json:"improvements"`
}

// BuildReport averages the two component confidences and maps the mean
// onto the status ladder. Malformed confidences are clamped toward 0;
// this never panics.
func (v *Validator) BuildReport(img, data Result) Report {
	overall := (clamp01(img.Confidence) + clamp01(data.Confidence)) / 2

	var improvements []string
	improvements = append(improvements, img.Recommendations...)
	improvements = append(improvements, data.Recommendations...)

	status := v.status(overall)
	return Report{
		OverallConfidence: overall,
		Status:            status,
		Summary:           summaryFor(status),
		Improvements:      improvements,
	}
}

func (v *Validator) status(confidence float64) Status {
	switch {
	case confidence >= v.cfg.ExcellentThreshold:
		return StatusExcellent
	case confidence >= v.cfg.GoodThreshold:
		return StatusGood
	case confidence >= v.cfg.FairThreshold:
		return StatusFair
	default:
		return StatusPoor
	}
}

func summaryFor(status Status) string {
	switch status {
	case StatusExcellent:
		return "High-confidence identification with strong supporting data."
	case StatusGood:
		return "Good identification; minor gaps in the supporting data."
	case StatusFair:
		return "Identification is plausible but the supporting data is incomplete."
	default:
		return "Low-confidence result; consider retrying with a better photo."
	}
}
