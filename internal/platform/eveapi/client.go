package eveapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/phrazzld/evekey-api/internal/config"
	"github.com/phrazzld/evekey-api/internal/platform/logger"
)

// keyInfoEndpoint is the provider path that reports which characters an
// API key grants access to.
const keyInfoEndpoint = "/account/APIKeyInfo.xml.aspx"

// Client verifies EVE API keys against the provider's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      ResponseCache
	logger     *slog.Logger
}

// NewClient creates a verification client. The cache may be nil, in which
// case responses are not cached.
func NewClient(cfg config.EveAPIConfig, cache ResponseCache, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NopCache{}
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		cache:      cache,
		logger:     logger.With(slog.String("component", "eveapi_client")),
	}, nil
}

// VerifyKey checks the given key against the provider and returns the
// characters it grants access to.
//
// Error mapping:
//   - transport failures, non-200 responses, unparseable bodies, and
//     provider-level fault envelopes yield ErrUnreachable;
//   - a well-formed response listing no characters yields ErrInvalidKey.
func (c *Client) VerifyKey(ctx context.Context, keyID int64, vcode string) (KeyInfo, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.Int64("key_id", keyID))

	cacheKey := responseCacheKey(keyID, vcode, keyInfoEndpoint)

	body, cached, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		// A broken cache must not break verification
		log.Warn("response cache read failed", slog.String("error", err.Error()))
		cached = false
	}

	if !cached {
		body, err = c.fetchKeyInfo(ctx, keyID, vcode)
		if err != nil {
			return nil, err
		}
	}

	info, err := parseKeyInfo(body)
	if err != nil {
		if cached {
			// A stale or corrupt cache entry should not fail the lookup;
			// refetch once from the provider.
			log.Warn("cached response unusable, refetching",
				slog.String("error", err.Error()))
			body, fetchErr := c.fetchKeyInfo(ctx, keyID, vcode)
			if fetchErr != nil {
				return nil, fetchErr
			}
			info, err = parseKeyInfo(body)
			if err != nil {
				return nil, err
			}
			c.storeResponse(ctx, log, cacheKey, body)
			return info, nil
		}
		return nil, err
	}

	if !cached {
		c.storeResponse(ctx, log, cacheKey, body)
	}

	return info, nil
}

// fetchKeyInfo performs the provider HTTP call and returns the raw body.
func (c *Client) fetchKeyInfo(ctx context.Context, keyID int64, vcode string) ([]byte, error) {
	endpoint := c.baseURL + keyInfoEndpoint

	params := url.Values{}
	params.Set("keyID", strconv.FormatInt(keyID, 10))
	params.Set("vCode", vcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	return body, nil
}

// parseKeyInfo decodes the provider envelope and applies the error mapping.
func parseKeyInfo(body []byte) (KeyInfo, error) {
	var parsed keyInfoResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnreachable, err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: provider error %d: %s",
			ErrUnreachable, parsed.Error.Code, parsed.Error.Message)
	}

	if len(parsed.Result.Key.Rows) == 0 {
		// The provider answered, but the key grants nothing
		return nil, ErrInvalidKey
	}

	info := make(KeyInfo, len(parsed.Result.Key.Rows))
	for _, row := range parsed.Result.Key.Rows {
		info[row.CharacterName] = CharacterInfo{Corporation: row.CorporationName}
	}
	return info, nil
}

// storeResponse writes a response body to the cache, logging failures
// without propagating them.
func (c *Client) storeResponse(ctx context.Context, log *slog.Logger, key string, body []byte) {
	if err := c.cache.Set(ctx, key, body); err != nil {
		log.Warn("response cache write failed", slog.String("error", err.Error()))
	}
}

// responseCacheKey derives the cache key from (keyID, vcode, endpoint).
// The vcode is hashed so credential secrets never appear in cache keys.
func responseCacheKey(keyID int64, vcode, endpoint string) string {
	digest := sha256.Sum256([]byte(vcode))
	return fmt.Sprintf("evekey:%d:%s:%s", keyID, hex.EncodeToString(digest[:8]), endpoint)
}
