package eveapi

import "context"

// ResponseCache caches raw provider responses keyed by credential and
// endpoint, so identical recently-seen requests skip the network call.
// TTL and eviction policy belong to the implementation, not the client.
type ResponseCache interface {
	// Get returns the cached response body for key, with ok reporting
	// whether the key was present.
	Get(ctx context.Context, key string) (body []byte, ok bool, err error)

	// Set stores a response body under key.
	Set(ctx context.Context, key string, body []byte) error
}

// NopCache is a ResponseCache that caches nothing. Used when no shared
// cache is configured.
type NopCache struct{}

// Get implements ResponseCache. It always misses.
func (NopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements ResponseCache. It discards the body.
func (NopCache) Set(ctx context.Context, key string, body []byte) error {
	return nil
}
