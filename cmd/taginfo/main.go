// Package main prints the audio tags a scan would read from a set's track.
// Useful when a set catalogs under the wrong title.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/simonhull/audiometa"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: taginfo <audio-file>")
	}

	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		log.Fatalf("failed to open file: %v", err)
	}
	defer file.Close()

	fmt.Printf("File:   %s\n", path)
	fmt.Printf("Format: %s\n", file.Format.String())
	fmt.Printf("Title:  %q\n", file.Tags.Title)
	fmt.Printf("Artist: %q\n", file.Tags.Artist)
}
