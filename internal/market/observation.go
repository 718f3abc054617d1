// Package market fans out to independent pricing sources and reconciles
// their observations into one market summary. Sources are unreliable by
// assumption: any of them may fail, time out, or return nothing, and
// none of that aborts the aggregation.
package market

import "context"

// Kind distinguishes the pricing role of an observation.
type Kind string

const (
	KindRetail Kind = "retail"
	KindResale Kind = "resale"
)

// Observation is one price data point from a pricing source. Never
// mutated after creation.
type Observation struct {
	SourcePlatform   string
	Price            float64
	Currency         string
	Condition        string
	Kind             Kind
	ConfidenceWeight float64
	SampleSize       int
}

// Source is a pricing source queried by product name. Finding no
// matching listings is a successful empty result, not an error.
type Source interface {
	Name() string
	Search(ctx context.Context, productName string) ([]Observation, error)
}
