package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// expirySkew refreshes tokens slightly before their server-side expiry
// so an in-flight request doesn't race the cutoff.
const expirySkew = 30 * time.Second

// tokenSource caches an OAuth client-credentials access token in
// process and refreshes it lazily on the first call after expiry.
// Refresh is a suspension point on the calling request, not a
// background task.
type tokenSource struct {
	httpClient   *resty.Client
	tokenPath    string
	clientID     string
	clientSecret string
	scope        string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func newTokenSource(httpClient *resty.Client, tokenPath, clientID, clientSecret, scope string) *tokenSource {
	return &tokenSource{
		httpClient:   httpClient,
		tokenPath:    tokenPath,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
	}
}

func (t *tokenSource) expired() bool {
	if t.expiresAt.IsZero() {
		return t.token == ""
	}
	return time.Now().After(t.expiresAt.Add(-expirySkew))
}

// Token returns a valid access token, refreshing it first if needed.
// The mutex single-flights concurrent refreshes.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && !t.expired() {
		return t.token, nil
	}

	result := &tokenResponse{}
	res, err := t.httpClient.NewRequest().
		SetContext(ctx).
		SetBasicAuth(t.clientID, t.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      t.scope,
		}).
		SetResult(result).
		Post(t.tokenPath)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("token request failed (status: %d)", res.StatusCode())
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}

	t.token = result.AccessToken
	t.expiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	log.Debug().Time("expiresAt", t.expiresAt).Msg("refreshed pricing source access token")
	return t.token, nil
}
