package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chartstash/chartstash-server/internal/normalize"
)

// Extension sets for file classification (package-level to avoid allocations).
var (
	chartExtensions = map[string]bool{
		".chart": true,
	}

	audioExtensions = map[string]bool{
		".ogg":  true,
		".mp3":  true,
		".opus": true,
		".flac": true,
		".wav":  true,
	}

	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// Walker traverses a library root and discovers chart-set directories. A
// set directory is any directory that directly contains at least one
// .chart file.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{logger: logger}
}

// WalkResult is one discovered set directory.
type WalkResult struct {
	Error error
	Set   *SetData
}

// Walk traverses the library root and streams discovered set directories.
// The channel closes when the walk completes or the context is canceled.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 16)

	go func() {
		defer close(results)

		err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				w.logger.Error("walk error", "path", path, "error", err)
				return nil
			}

			// Skip hidden directories entirely.
			if d.IsDir() && path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() {
				return nil
			}

			set, scanErr := w.scanDir(rootPath, path)
			if scanErr != nil {
				select {
				case results <- WalkResult{Error: scanErr}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}
			if set == nil {
				// Not a set directory, keep descending.
				return nil
			}

			select {
			case results <- WalkResult{Set: set}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}

// WalkDir scans a single directory as a set, non-recursively. Returns nil
// when the directory holds no chart files.
func (w *Walker) WalkDir(rootPath, dirPath string) (*SetData, error) {
	return w.scanDir(rootPath, dirPath)
}

// scanDir classifies the direct entries of one directory. A nil SetData
// with nil error means the directory is not a set.
func (w *Walker) scanDir(rootPath, dirPath string) (*SetData, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	set := &SetData{Path: dirPath}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		name := normalize.Filename(entry.Name())
		ext := strings.ToLower(filepath.Ext(name))
		path := filepath.Join(dirPath, entry.Name())

		switch {
		case chartExtensions[ext]:
			info, err := entry.Info()
			if err != nil {
				w.logger.Error("failed to stat chart file", "path", path, "error", err)
				continue
			}
			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				relPath = name
			}
			set.Charts = append(set.Charts, ChartFileData{
				Path:     path,
				RelPath:  relPath,
				Filename: name,
				Size:     info.Size(),
				ModTime:  info.ModTime().Unix(),
			})

		case audioExtensions[ext]:
			// First audio file wins; sets ship a single track.
			if set.AudioPath == "" {
				set.AudioPath = path
			}

		case imageExtensions[ext]:
			if set.CoverPath == "" || isPreferredCoverName(name) {
				set.CoverPath = path
			}
		}
	}

	if len(set.Charts) == 0 {
		return nil, nil
	}

	if relPath, err := filepath.Rel(rootPath, dirPath); err == nil {
		set.RelPath = relPath
	}
	return set, nil
}

// isPreferredCoverName reports whether the image file is named like a
// front cover, beating whatever was picked up first.
func isPreferredCoverName(name string) bool {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	return base == "cover" || base == "album" || base == "folder"
}
