// Package main dumps the metadata cache for debugging. It opens the Badger
// database read-only, so it is safe to run against a live server.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/store"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/ChartStash/data")
	}
	cachePath := filepath.Join(dataPath, "cache")

	opts := badger.DefaultOptions(cachePath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	defer db.Close()

	fmt.Printf("=== Metadata Cache (%s) ===\n\n", cachePath)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("metacache:chart:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			checksum := strings.TrimPrefix(string(item.Key()), string(prefix))

			err := item.Value(func(val []byte) error {
				var cached store.CachedMetadata
				if err := json.Unmarshal(val, &cached); err != nil {
					fmt.Printf("%s  <corrupt: %v>\n", checksum, err)
					return nil
				}
				printEntry(checksum, &cached)
				return nil
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("iterate cache: %v", err)
	}

	fmt.Printf("\n%d cached record(s)\n", count)
}

func printEntry(checksum string, cached *store.CachedMetadata) {
	meta := cached.Metadata
	if meta == nil {
		fmt.Printf("%s  <empty>\n", checksum)
		return
	}

	fmt.Printf("%s\n", checksum)
	fmt.Printf("  chart_id=%d set_id=%d author_id=%d\n", meta.ChartID, meta.SetID, meta.AuthorID)
	fmt.Printf("  status=%s fetched=%s\n", statusLabel(meta), cached.FetchedAt.Format("2006-01-02 15:04:05"))
	if len(meta.UserTags) > 0 {
		fmt.Printf("  tags=%s\n", strings.Join(meta.UserTags, ", "))
	}
}

func statusLabel(meta *metadata.OnlineMetadata) string {
	if meta.ChartStatus == nil {
		return "unknown"
	}
	return meta.ChartStatus.String()
}
