package daraja

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"golang.org/x/sync/singleflight"
)

// tokenExpiryBuffer is how far ahead of a cached token's expiry a refresh
// is forced, so a token already close to expiring is never handed to a
// caller mid-flight.
const tokenExpiryBuffer = 5 * time.Minute

// cachedToken is one credential set's currently valid OAuth token.
type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// tokenCache caches Daraja OAuth tokens per (consumer key, environment)
// and coalesces concurrent refreshes for the same key into a single
// outbound request via singleflight, mirroring the map+mutex concurrency
// idiom the rest of this codebase uses for per-key state.
type tokenCache struct {
	mu     sync.RWMutex
	tokens map[string]cachedToken
	group  singleflight.Group
	httpDo func(*http.Request) (*http.Response, error)
}

func newTokenCache(httpClient *http.Client) *tokenCache {
	return &tokenCache{
		tokens: make(map[string]cachedToken),
		httpDo: httpClient.Do,
	}
}

// get returns a valid access token for the (consumerKey, environment)
// pair, fetching (or waiting on an in-flight fetch for) a fresh one when
// the cached token is absent or within tokenExpiryBuffer of expiring.
// baseURL is derived from the environment, so it serves as the
// environment half of the cache key.
func (tc *tokenCache) get(ctx context.Context, baseURL, consumerKey, consumerSecret string) (string, error) {
	key := consumerKey + "|" + baseURL

	tc.mu.RLock()
	cached, ok := tc.tokens[key]
	tc.mu.RUnlock()
	if ok && time.Now().Add(tokenExpiryBuffer).Before(cached.expiresAt) {
		return cached.accessToken, nil
	}

	result, err, _ := tc.group.Do(key, func() (interface{}, error) {
		return tc.fetch(ctx, baseURL, consumerKey, consumerSecret)
	})
	if err != nil {
		return "", err
	}
	token := result.(cachedToken)

	tc.mu.Lock()
	tc.tokens[key] = token
	tc.mu.Unlock()

	return token.accessToken, nil
}

func (tc *tokenCache) fetch(ctx context.Context, baseURL, consumerKey, consumerSecret string) (cachedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return cachedToken{}, fmt.Errorf("daraja: building auth request: %w", err)
	}
	basicAuth := base64.StdEncoding.EncodeToString([]byte(consumerKey + ":" + consumerSecret))
	req.Header.Set("Authorization", "Basic "+basicAuth)

	resp, err := tc.httpDo(req)
	if err != nil {
		return cachedToken{}, fmt.Errorf("%w: %v", domain.ErrDarajaAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedToken{}, fmt.Errorf("%w: reading response: %v", domain.ErrDarajaAuthFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return cachedToken{}, fmt.Errorf("%w: status %d: %s", domain.ErrDarajaAuthFailed, resp.StatusCode, body)
	}

	var parsed authTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return cachedToken{}, fmt.Errorf("%w: decoding response: %v", domain.ErrDarajaAuthFailed, err)
	}
	if parsed.AccessToken == "" {
		return cachedToken{}, fmt.Errorf("%w: empty access token", domain.ErrDarajaAuthFailed)
	}

	expiresIn := 3600 * time.Second
	if secs, err := time.ParseDuration(parsed.ExpiresIn + "s"); err == nil {
		expiresIn = secs
	}

	return cachedToken{
		accessToken: parsed.AccessToken,
		expiresAt:   time.Now().Add(expiresIn),
	}, nil
}
