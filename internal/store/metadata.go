package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chartstash/chartstash-server/internal/metadata"
)

const metadataPrefix = "metacache:chart:"

// defaultMetadataTTL bounds how long a cached record is served before the
// online source is consulted again. Rank status changes are infrequent.
const defaultMetadataTTL = 7 * 24 * time.Hour

// CachedMetadata wraps a resolved record with cache bookkeeping.
type CachedMetadata struct {
	Metadata  *metadata.OnlineMetadata `json:"metadata"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// GetCachedMetadata retrieves cached metadata for a chart checksum.
// Returns nil, nil when missing or expired.
func (s *Store) GetCachedMetadata(ctx context.Context, checksum string) (*metadata.OnlineMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Appendf(nil, "%s%s", metadataPrefix, checksum)

	var cached CachedMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cached)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached metadata: %w", err)
	}

	if time.Since(cached.FetchedAt) > defaultMetadataTTL {
		return nil, nil // Treat as cache miss
	}

	return cached.Metadata, nil
}

// SetCachedMetadata stores resolved metadata under the chart checksum.
func (s *Store) SetCachedMetadata(ctx context.Context, checksum string, meta *metadata.OnlineMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cached := CachedMetadata{
		Metadata:  meta,
		FetchedAt: time.Now(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cached metadata: %w", err)
	}

	key := fmt.Appendf(nil, "%s%s", metadataPrefix, checksum)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("set cached metadata: %w", err)
	}
	return nil
}

// DeleteCachedMetadata evicts the cached record, forcing the next lookup
// back online. Deleting a missing key is not an error.
func (s *Store) DeleteCachedMetadata(ctx context.Context, checksum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := fmt.Appendf(nil, "%s%s", metadataPrefix, checksum)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete cached metadata: %w", err)
	}
	return nil
}
