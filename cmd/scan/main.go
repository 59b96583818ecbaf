// Package main provides a standalone dry-run library scanner for debugging
// what a scan would discover without touching the catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chartstash/chartstash-server/internal/scanner"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: scan <library-path>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Dry run never reaches the catalog or cover storage.
	s := scanner.NewScanner(nil, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.Scan(ctx, os.Args[1], scanner.ScanOptions{
		Workers: 4,
		DryRun:  true,
		OnProgress: func(p *scanner.Progress) {
			fmt.Printf("\r%-12s %d/%d %s", p.Phase, p.Current, p.Total, p.CurrentItem)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nscan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n\nrun %s finished in %s\n",
		result.RunID, result.CompletedAt.Sub(result.StartedAt))
	fmt.Printf("  sets:   %d\n", result.SetsFound)
	fmt.Printf("  charts: %d\n", result.ChartsFound)
	fmt.Printf("  errors: %d\n", result.Errors)
}
