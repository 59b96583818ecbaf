package scanner

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
)

// Hasher computes chart-file checksums with a bounded worker pool. The MD5
// checksum is the primary key ChartHub resolves lookups by, so every chart
// gets hashed before lookup can run.
type Hasher struct {
	logger *slog.Logger
}

// NewHasher creates a new hasher.
func NewHasher(logger *slog.Logger) *Hasher {
	return &Hasher{logger: logger}
}

// HashOptions configures hashing behavior.
type HashOptions struct {
	// Workers is the pool size; defaults to runtime.NumCPU().
	Workers int
}

// Hash fills in the Checksum of every chart file. Files that cannot be read
// keep an empty checksum and are logged; only context cancellation aborts
// the run.
func (h *Hasher) Hash(ctx context.Context, files []ChartFileData, opts HashOptions) ([]ChartFileData, error) {
	if len(files) == 0 {
		return []ChartFileData{}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type job struct {
		file  ChartFileData
		index int
	}
	type result struct {
		file  ChartFileData
		index int
		err   error
	}

	jobs := make(chan job, len(files))
	results := make(chan result, len(files))

	for range workers {
		go func() {
			for j := range jobs {
				select {
				case <-ctx.Done():
					results <- result{file: j.file, index: j.index, err: ctx.Err()}
					return
				default:
				}

				sum, err := ChecksumFile(j.file.Path)
				if err != nil {
					h.logger.Error("failed to hash chart file", "path", j.file.Path, "error", err)
					results <- result{file: j.file, index: j.index}
					continue
				}
				j.file.Checksum = sum
				results <- result{file: j.file, index: j.index}
			}
		}()
	}

	for i, file := range files {
		select {
		case jobs <- job{file: file, index: i}:
		case <-ctx.Done():
			close(jobs)
			return nil, ctx.Err()
		}
	}
	close(jobs)

	hashed := make([]ChartFileData, len(files))
	for range len(files) {
		select {
		case r := <-results:
			if r.err != nil {
				return nil, r.err
			}
			hashed[r.index] = r.file
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return hashed, nil
}

// ChecksumFile computes the MD5 checksum of a single chart file, hex encoded.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
