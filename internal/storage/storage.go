// Package storage manages the local placeholder image catalog and its
// optional remote backing bucket.
package storage

import "context"

// CatalogSyncer pulls placeholder images from a remote catalog into the local
// placeholder directory used by the image resolver's terminal fallback.
type CatalogSyncer interface {
	Sync(ctx context.Context) (int, error)
}
