package provider

import (
	"fmt"
	"sort"
	"strings"
)

// ProviderError is returned by Identify when every eligible provider
// failed, including the primary fallback. It is fatal to the request.
type ProviderError struct {
	Attempts map[ID]error
}

func (e *ProviderError) Error() string {
	ids := make([]string, 0, len(e.Attempts))
	for id := range e.Attempts {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Attempts[ID(id)]))
	}
	return "all identification providers failed: " + strings.Join(parts, "; ")
}

// PreconditionError is returned when a URL-capability provider was
// requested but the image could not be published at a public URL.
// Distinct from ProviderError so callers can react differently.
type PreconditionError struct {
	Provider ID
	Err      error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("image could not be made URL-accessible for provider %s: %v", e.Provider, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
