// Package main resolves metadata for a single chart from the command line,
// using the same catalog, cache, and ChartHub client as the server. Handy
// for debugging why a chart stays unenriched.
//
// Usage:
//
//	go run ./cmd/lookup [--refresh] <checksum-or-chart-file>
package main

import (
	"context"
	"encoding/json/v2"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/charthub"
	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/logger"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/metadata/cached"
	"github.com/chartstash/chartstash-server/internal/metadata/online"
	"github.com/chartstash/chartstash-server/internal/scanner"
	"github.com/chartstash/chartstash-server/internal/search"
	"github.com/chartstash/chartstash-server/internal/service"
	"github.com/chartstash/chartstash-server/internal/store"
)

var refresh = flag.Bool("refresh", false, "Retry even if the chart was previously unmatched")

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: lookup [--refresh] <checksum-or-chart-file>")
		os.Exit(1)
	}

	// The argument is either a checksum or a path to a .chart file.
	checksum := flag.Arg(0)
	if _, statErr := os.Stat(checksum); statErr == nil {
		sum, err := scanner.ChecksumFile(checksum)
		if err != nil {
			fatal("checksum %s: %v", checksum, err)
		}
		checksum = sum
	}

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		fatal("load config: %v", err)
	}

	log := logger.New(logger.Config{
		Format: logger.FormatPretty,
		Level:  slog.LevelWarn,
	})

	cat, err := catalog.Open(cfg.Data.CatalogPath(), log)
	if err != nil {
		fatal("open catalog: %v", err)
	}
	defer cat.Close()

	cache, err := store.Open(cfg.Data.CachePath(), log)
	if err != nil {
		fatal("open metadata cache: %v", err)
	}
	defer cache.Close()

	index, err := search.NewIndex(search.Options{DataPath: cfg.Data.IndexPath(), Logger: log})
	if err != nil {
		fatal("open search index: %v", err)
	}
	defer index.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sources := []metadata.Source{cached.NewSource(cache, log)}
	var setTags service.SetDescriber

	if cfg.ChartHub.BaseURL != "" {
		monitor := connectivity.NewMonitor()
		client := charthub.NewWithRate(
			cfg.ChartHub.BaseURL,
			cfg.ChartHub.RequestsPerSecond,
			cfg.ChartHub.Burst,
			monitor,
			log,
		)
		defer client.Close()

		// Resolve the connectivity state before the lookup consults the
		// online source.
		client.Probe(ctx)

		sources = append(sources, online.NewSource(client, log))
		setTags = client
	}

	svc := service.NewLookupService(sources, cache, cat, index, setTags, log)

	var meta *metadata.OnlineMetadata
	if *refresh {
		meta, err = svc.Refresh(ctx, checksum)
	} else {
		meta, err = svc.Lookup(ctx, checksum)
	}
	if err != nil {
		fatal("%v", err)
	}

	out, err := json.Marshal(meta, json.Deterministic(true))
	if err != nil {
		fatal("encode result: %v", err)
	}
	fmt.Println(string(out))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
