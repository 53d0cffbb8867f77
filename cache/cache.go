// Package cache holds the shortId -> destination URL fast path used by the
// redirect handler. Entries are written on link creation and on cache-miss
// resolution, removed on link deletion, and never expired otherwise: a store
// mutation made outside this process leaves a stale entry behind.
package cache

import "context"

// Cache maps a short identifier to its destination URL.
type Cache interface {
	// Get returns the cached destination URL and whether it was present.
	Get(ctx context.Context, shortID string) (string, bool)

	// Set unconditionally overwrites the entry for shortID.
	Set(ctx context.Context, shortID, url string)

	// Delete evicts the entry for shortID, if any.
	Delete(ctx context.Context, shortID string)
}
