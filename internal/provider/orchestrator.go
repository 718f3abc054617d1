package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Publisher makes image bytes reachable at a stable public URL and
// stores downloaded reference images. Satisfied by imagestore.Store.
type Publisher interface {
	Publish(ctx context.Context, data []byte, mimeType string) (string, error)
	SaveReference(ctx context.Context, srcURL string) (string, error)
}

// ReferenceFinder looks up a listing photo URL for an identified
// product name. Satisfied by the eBay pricing source.
type ReferenceFinder interface {
	FindListingImage(ctx context.Context, productName string) (string, error)
}

// Orchestrator selects an identification provider per request, enforces
// the URL-publication precondition for visual-search providers, and
// falls back to the primary provider when a non-primary one fails.
type Orchestrator struct {
	registry    *Registry
	publisher   Publisher
	refs        ReferenceFinder
	callTimeout time.Duration
	refTimeout  time.Duration
}

type OrchestratorOpts struct {
	Registry  *Registry
	Publisher Publisher
	// Refs is optional; without it reference image resolution is
	// skipped.
	Refs        ReferenceFinder
	CallTimeout time.Duration
	RefTimeout  time.Duration
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	o := &Orchestrator{
		registry:    opts.Registry,
		publisher:   opts.Publisher,
		refs:        opts.Refs,
		callTimeout: opts.CallTimeout,
		refTimeout:  opts.RefTimeout,
	}
	if o.callTimeout <= 0 {
		o.callTimeout = 30 * time.Second
	}
	if o.refTimeout <= 0 {
		o.refTimeout = 10 * time.Second
	}
	return o
}

// Identify runs the identification for one image. A non-primary
// preference that fails is retried once against the primary provider
// with the fallback reason recorded in the narrative. Errors propagate
// only when the primary provider itself fails.
func (o *Orchestrator) Identify(ctx context.Context, imageBytes []byte, preference ID) (*Identification, error) {
	preference = Normalize(preference)
	attempts := map[ID]error{}

	if preference != Gemini {
		ident, err := o.identifyByURL(ctx, imageBytes, preference)
		if err == nil {
			o.resolveReferenceImage(ctx, ident)
			return ident, nil
		}
		var precondErr *PreconditionError
		if errors.As(err, &precondErr) {
			return nil, precondErr
		}
		log.Warn().
			Str("provider", string(preference)).
			Err(err).
			Msg("provider failed, falling back to primary")
		attempts[preference] = err

		ident, primaryErr := o.identifyPrimary(ctx, imageBytes)
		if primaryErr != nil {
			attempts[Gemini] = primaryErr
			return nil, &ProviderError{Attempts: attempts}
		}
		ident.Narrative = fmt.Sprintf("%s (Fell back to primary provider after %s failed: %v)", ident.Narrative, preference, err)
		o.resolveReferenceImage(ctx, ident)
		return ident, nil
	}

	ident, err := o.identifyPrimary(ctx, imageBytes)
	if err != nil {
		attempts[Gemini] = err
		return nil, &ProviderError{Attempts: attempts}
	}
	o.resolveReferenceImage(ctx, ident)
	return ident, nil
}

func (o *Orchestrator) identifyPrimary(ctx context.Context, imageBytes []byte) (*Identification, error) {
	ctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	return o.registry.Primary().AnalyzeBytes(ctx, imageBytes, detectMimeType(imageBytes))
}

func (o *Orchestrator) identifyByURL(ctx context.Context, imageBytes []byte, id ID) (*Identification, error) {
	p, ok := o.registry.URLProvider(id)
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", id)
	}
	if o.publisher == nil {
		return nil, &PreconditionError{Provider: id, Err: fmt.Errorf("no image publisher configured")}
	}

	imageURL, err := o.publisher.Publish(ctx, imageBytes, detectMimeType(imageBytes))
	if err != nil {
		return nil, &PreconditionError{Provider: id, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	return p.AnalyzeURL(callCtx, imageURL)
}

// resolveReferenceImage fills in a listing photo for the identified
// product, best effort. Failure never affects the identification.
func (o *Orchestrator) resolveReferenceImage(ctx context.Context, ident *Identification) {
	if o.refs == nil || o.publisher == nil || ident.ReferenceImageURL != "" {
		return
	}
	refCtx, cancel := context.WithTimeout(ctx, o.refTimeout)
	defer cancel()

	srcURL, err := o.refs.FindListingImage(refCtx, ident.ProductName)
	if err != nil || srcURL == "" {
		log.Debug().Err(err).Str("product", ident.ProductName).Msg("no reference listing image found")
		return
	}
	storedURL, err := o.publisher.SaveReference(refCtx, srcURL)
	if err != nil {
		log.Warn().Err(err).Str("url", srcURL).Msg("failed to store reference image")
		return
	}
	ident.ReferenceImageURL = storedURL
}

func detectMimeType(data []byte) string {
	return http.DetectContentType(data)
}
