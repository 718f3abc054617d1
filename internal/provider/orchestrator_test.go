package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeByteAnalyzer struct {
	ident *Identification
	err   error
	calls int
}

func (f *fakeByteAnalyzer) AnalyzeBytes(ctx context.Context, data []byte, mimeType string) (*Identification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ident := *f.ident
	return &ident, nil
}

type fakeURLAnalyzer struct {
	ident   *Identification
	err     error
	lastURL string
	calls   int
}

func (f *fakeURLAnalyzer) AnalyzeURL(ctx context.Context, imageURL string) (*Identification, error) {
	f.calls++
	f.lastURL = imageURL
	if f.err != nil {
		return nil, f.err
	}
	ident := *f.ident
	return &ident, nil
}

type fakePublisher struct {
	publishURL string
	publishErr error
	savedURL   string
	saveErr    error
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return f.publishURL, nil
}

func (f *fakePublisher) SaveReference(ctx context.Context, srcURL string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return f.savedURL, nil
}

type fakeRefFinder struct {
	url string
	err error
}

func (f *fakeRefFinder) FindListingImage(ctx context.Context, productName string) (string, error) {
	return f.url, f.err
}

func TestIdentifyPrimary(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "Acme Runner 2000", Provider: Gemini, Narrative: "n"}}
	o := NewOrchestrator(OrchestratorOpts{Registry: NewRegistry(primary, nil)})

	ident, err := o.Identify(context.Background(), []byte("img"), Gemini)
	require.NoError(t, err)
	assert.Equal(t, "Acme Runner 2000", ident.ProductName)
	assert.Equal(t, 1, primary.calls)
}

func TestIdentifyFallsBackToPrimary(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "Acme Runner 2000", Provider: Gemini, Narrative: "Identified by AI vision."}}
	lens := &fakeURLAnalyzer{err: fmt.Errorf("quota exceeded")}
	registry := NewRegistry(primary, map[ID]URLAnalyzer{SerpLens: lens})
	o := NewOrchestrator(OrchestratorOpts{
		Registry:  registry,
		Publisher: &fakePublisher{publishURL: "https://img.example.com/abc.jpg"},
	})

	ident, err := o.Identify(context.Background(), []byte("img"), SerpLens)
	require.NoError(t, err)
	assert.Equal(t, Gemini, ident.Provider)
	assert.Contains(t, ident.Narrative, "Fell back to primary provider")
	assert.Contains(t, ident.Narrative, "serp-lens")
	assert.Equal(t, 1, lens.calls)
	assert.Equal(t, "https://img.example.com/abc.jpg", lens.lastURL)
}

func TestIdentifyPrimaryFailureIsFatal(t *testing.T) {
	primary := &fakeByteAnalyzer{err: fmt.Errorf("model overloaded")}
	o := NewOrchestrator(OrchestratorOpts{Registry: NewRegistry(primary, nil)})

	_, err := o.Identify(context.Background(), []byte("img"), Gemini)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Error(), "model overloaded")
}

func TestIdentifyAllProvidersFailed(t *testing.T) {
	primary := &fakeByteAnalyzer{err: fmt.Errorf("model overloaded")}
	lens := &fakeURLAnalyzer{err: fmt.Errorf("quota exceeded")}
	registry := NewRegistry(primary, map[ID]URLAnalyzer{SerpLens: lens})
	o := NewOrchestrator(OrchestratorOpts{
		Registry:  registry,
		Publisher: &fakePublisher{publishURL: "https://img.example.com/abc.jpg"},
	})

	_, err := o.Identify(context.Background(), []byte("img"), SerpLens)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Len(t, provErr.Attempts, 2)
}

func TestIdentifyPublishFailureIsPrecondition(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "x"}}
	lens := &fakeURLAnalyzer{ident: &Identification{ProductName: "y"}}
	registry := NewRegistry(primary, map[ID]URLAnalyzer{SerpLens: lens})
	o := NewOrchestrator(OrchestratorOpts{
		Registry:  registry,
		Publisher: &fakePublisher{publishErr: errors.New("bucket unavailable")},
	})

	_, err := o.Identify(context.Background(), []byte("img"), SerpLens)
	var precondErr *PreconditionError
	require.ErrorAs(t, err, &precondErr)
	assert.Equal(t, SerpLens, precondErr.Provider)
	// The primary must not be consulted for a precondition failure.
	assert.Equal(t, 0, primary.calls)
}

func TestIdentifyUnknownPreferenceUsesPrimary(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "x", Narrative: "n"}}
	o := NewOrchestrator(OrchestratorOpts{Registry: NewRegistry(primary, nil)})

	_, err := o.Identify(context.Background(), []byte("img"), ID("nonsense"))
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
}

func TestResolveReferenceImageBestEffort(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "Acme Runner 2000", Narrative: "n"}}
	o := NewOrchestrator(OrchestratorOpts{
		Registry:  NewRegistry(primary, nil),
		Publisher: &fakePublisher{savedURL: "https://img.example.com/ref.jpg"},
		Refs:      &fakeRefFinder{url: "https://market.example.com/listing.jpg"},
	})

	ident, err := o.Identify(context.Background(), []byte("img"), Gemini)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/ref.jpg", ident.ReferenceImageURL)
}

func TestResolveReferenceImageFailureIsNotAnError(t *testing.T) {
	primary := &fakeByteAnalyzer{ident: &Identification{ProductName: "Acme Runner 2000", Narrative: "n"}}
	o := NewOrchestrator(OrchestratorOpts{
		Registry:  NewRegistry(primary, nil),
		Publisher: &fakePublisher{saveErr: errors.New("download failed")},
		Refs:      &fakeRefFinder{err: errors.New("search failed")},
	})

	ident, err := o.Identify(context.Background(), []byte("img"), Gemini)
	require.NoError(t, err)
	assert.Empty(t, ident.ReferenceImageURL)
}
