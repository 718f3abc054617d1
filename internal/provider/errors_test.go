package provider

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorMessageHasStableOrder(t *testing.T) {
	err := &ProviderError{Attempts: map[ID]error{
		SerpLens:   fmt.Errorf("timeout"),
		Gemini:     fmt.Errorf("overloaded"),
		BingVisual: fmt.Errorf("quota"),
	}}
	want := "all identification providers failed: bing-visual: quota; gemini: overloaded; serp-lens: timeout"
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, err.Error())
	}
}

func TestPreconditionErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("bucket unavailable")
	err := &PreconditionError{Provider: SerpLens, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "serp-lens")
}
