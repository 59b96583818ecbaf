// Package main generates a demo chart library on disk for testing scans
// and the API without real content.
//
// Usage:
//
//	go run ./cmd/seed --out ./demo-library --sets 12
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	outDir   = flag.String("out", "demo-library", "Directory to create the library in")
	setCount = flag.Int("sets", 8, "Number of chart sets to generate")
	randSeed = flag.Int64("seed", 42, "Random seed for reproducible output")
)

var artists = []string{
	"Volt Runner", "Neon Cascade", "Static Bloom", "Paper Satellites",
	"Midnight Circuit", "Glass Harbor", "Echo Vendor", "Kilohertz",
}

var titles = []string{
	"Night Drive", "Afterglow", "Fractal Season", "Last Transmission",
	"Parallel Lines", "Slow Orbit", "Wired Shut", "Amber Skyline",
	"Terminal Velocity", "Quiet Machines", "Second Sunrise", "Undertow",
}

var difficulties = []string{"easy", "medium", "hard", "expert"}

func main() {
	flag.Parse()

	rng := rand.New(rand.NewSource(*randSeed))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}

	for i := 0; i < *setCount; i++ {
		artist := artists[rng.Intn(len(artists))]
		title := titles[rng.Intn(len(titles))]
		dir := filepath.Join(*outDir, fmt.Sprintf("%s - %s", artist, title))

		if err := writeSet(rng, dir, artist, title); err != nil {
			log.Fatalf("write set %q: %v", dir, err)
		}
		fmt.Printf("created %s\n", dir)
	}

	fmt.Printf("\n%d set(s) under %s\n", *setCount, *outDir)
}

func writeSet(rng *rand.Rand, dir, artist, title string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// One chart file per difficulty; drop a random suffix of the list so
	// sets vary in how many difficulties they ship.
	n := 1 + rng.Intn(len(difficulties))
	for _, diff := range difficulties[:n] {
		path := filepath.Join(dir, diff+".chart")
		if err := os.WriteFile(path, chartFile(rng, artist, title, diff), 0o644); err != nil {
			return err
		}
	}

	// The track is opaque to the scanner when untagged; the set falls back
	// to its directory name, which is what a demo library exercises.
	audio := make([]byte, 2048+rng.Intn(8192))
	rng.Read(audio)
	if err := os.WriteFile(filepath.Join(dir, "song.ogg"), audio, 0o644); err != nil {
		return err
	}

	return writeCover(rng, filepath.Join(dir, "cover.png"))
}

func chartFile(rng *rand.Rand, artist, title, difficulty string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[Song]\n{\n")
	fmt.Fprintf(&b, "  Name = %q\n", title)
	fmt.Fprintf(&b, "  Artist = %q\n", artist)
	fmt.Fprintf(&b, "  Difficulty = %q\n", difficulty)
	fmt.Fprintf(&b, "  Resolution = 192\n")
	fmt.Fprintf(&b, "}\n[SyncTrack]\n{\n  0 = TS 4\n  0 = B 120000\n}\n")
	fmt.Fprintf(&b, "[Notes]\n{\n")
	for tick := 0; tick < 20; tick++ {
		fmt.Fprintf(&b, "  %d = N %d 0\n", tick*192, rng.Intn(5))
	}
	fmt.Fprintf(&b, "}\n")
	return []byte(b.String())
}

func writeCover(rng *rand.Rand, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	base := color.RGBA{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
		A: 255,
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := base
			c.R += uint8(x * 2)
			c.B += uint8(y * 2)
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
