// Package scanner walks the library root, discovers chart-set directories,
// and reconciles the catalog with what is on disk.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/simonhull/audiometa"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/id"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/normalize"
)

// Scanner orchestrates the library scanning process.
type Scanner struct {
	catalog        *catalog.Catalog
	covers         *images.Storage
	imageProcessor *images.Processor
	logger         *slog.Logger

	walker *Walker
	hasher *Hasher
}

// NewScanner creates a new scanner instance.
func NewScanner(cat *catalog.Catalog, covers *images.Storage, imageProcessor *images.Processor, logger *slog.Logger) *Scanner {
	return &Scanner{
		catalog:        cat,
		covers:         covers,
		imageProcessor: imageProcessor,
		logger:         logger,
		walker:         NewWalker(logger),
		hasher:         NewHasher(logger),
	}
}

// ScanOptions configures a scan.
type ScanOptions struct {
	OnProgress func(*Progress)
	Workers    int
	DryRun     bool
}

// Scan performs a full library scan of the given root. It walks the
// filesystem, hashes chart files, reads audio tags and covers, and
// reconciles the catalog (unless DryRun is set).
func (s *Scanner) Scan(ctx context.Context, rootPath string, opts ScanOptions) (*ScanResult, error) {
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("library root not accessible: %w", err)
	}

	result := &ScanResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	tracker := NewProgressTracker(opts.OnProgress)

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	logger := s.logger.With("run_id", result.RunID)
	logger.Info("scan started", "root", rootPath)

	sets := s.walkLibrary(ctx, rootPath, tracker, result)

	if err := s.hashSets(ctx, sets, tracker, result, opts); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, rootPath, sets, tracker, result, opts); err != nil {
		return nil, err
	}

	result.CompletedAt = time.Now()
	tracker.SetPhase(PhaseComplete)
	logger.Info("scan complete",
		"duration", result.CompletedAt.Sub(result.StartedAt),
		"sets", result.SetsFound,
		"charts", result.ChartsFound,
		"added", result.Added,
		"removed", result.Removed,
		"errors", result.Errors,
	)

	return result, nil
}

// ScanDir scans a single set directory and reconciles just that set. Used
// by the watcher for incremental updates.
func (s *Scanner) ScanDir(ctx context.Context, rootPath, dirPath string, opts ScanOptions) error {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	set, err := s.walker.WalkDir(rootPath, dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.removeSetByPath(ctx, dirPath)
		}
		return fmt.Errorf("scan directory %s: %w", dirPath, err)
	}
	if set == nil {
		// No chart files left; if the catalog knows this path, drop it.
		return s.removeSetByPath(ctx, dirPath)
	}

	set.Charts, err = s.hasher.Hash(ctx, set.Charts, HashOptions{Workers: opts.Workers})
	if err != nil {
		return err
	}

	s.describeSet(ctx, set)
	return s.persistSet(ctx, set)
}

// walkLibrary walks the root and collects discovered sets.
func (s *Scanner) walkLibrary(ctx context.Context, rootPath string, tracker *ProgressTracker, result *ScanResult) []*SetData {
	tracker.SetPhase(PhaseWalking)

	var sets []*SetData
	for wr := range s.walker.Walk(ctx, rootPath) {
		if wr.Error != nil {
			tracker.AddError(ScanError{
				Path:  rootPath,
				Phase: PhaseWalking,
				Error: wr.Error,
				Time:  time.Now(),
			})
			result.Errors++
			continue
		}
		sets = append(sets, wr.Set)
		result.SetsFound++
		result.ChartsFound += len(wr.Set.Charts)
		tracker.Increment(wr.Set.Path)
	}

	s.logger.Info("walk complete", "sets", len(sets))
	return sets
}

// hashSets checksums every chart file of every set.
func (s *Scanner) hashSets(ctx context.Context, sets []*SetData, tracker *ProgressTracker, result *ScanResult, opts ScanOptions) error {
	tracker.SetPhase(PhaseHashing)
	tracker.SetTotal(len(sets))

	for _, set := range sets {
		hashed, err := s.hasher.Hash(ctx, set.Charts, HashOptions{Workers: opts.Workers})
		if err != nil {
			return err
		}
		set.Charts = hashed
		for _, ch := range set.Charts {
			if ch.Checksum == "" {
				result.Errors++
			}
		}
		tracker.Increment(set.Path)
	}
	return nil
}

// apply describes each set (tags, cover) and reconciles the catalog.
func (s *Scanner) apply(ctx context.Context, rootPath string, sets []*SetData, tracker *ProgressTracker, result *ScanResult, opts ScanOptions) error {
	if opts.DryRun {
		s.logger.Info("dry run, skipping catalog updates")
		return nil
	}

	tracker.SetPhase(PhaseApplying)
	tracker.SetTotal(len(sets))

	seen := make(map[string]bool, len(sets))
	for _, set := range sets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.describeSet(ctx, set)
		if err := s.persistSet(ctx, set); err != nil {
			tracker.AddError(ScanError{
				Path:  set.Path,
				Phase: PhaseApplying,
				Error: err,
				Time:  time.Now(),
			})
			result.Errors++
			tracker.Increment(set.Path)
			continue
		}
		seen[set.Path] = true
		result.Added++
		tracker.Increment(set.Path)
	}

	// Remove sets whose directories vanished since the last scan.
	existing, err := s.catalog.ListSets(ctx)
	if err != nil {
		return fmt.Errorf("list sets: %w", err)
	}
	for _, set := range existing {
		if seen[set.Path] {
			continue
		}
		if err := s.catalog.DeleteSet(ctx, set.ID); err != nil {
			s.logger.Error("failed to remove vanished set", "set_id", set.ID, "error", err)
			result.Errors++
			continue
		}
		if err := s.covers.Delete(set.ID); err != nil {
			s.logger.Warn("failed to remove cover", "set_id", set.ID, "error", err)
		}
		s.logger.Info("removed vanished set", "set_id", set.ID, "path", set.Path)
		result.Removed++
	}

	return nil
}

// describeSet fills in title, artist, and cover data. Everything here is
// best effort; a set with no readable audio track still gets cataloged
// under its directory name.
func (s *Scanner) describeSet(ctx context.Context, set *SetData) {
	set.Title = normalize.Title(filepath.Base(set.Path))

	if set.AudioPath != "" {
		if title, artist, err := readAudioTags(ctx, set.AudioPath); err != nil {
			s.logger.Debug("failed to read audio tags", "path", set.AudioPath, "error", err)
		} else {
			if title != "" {
				set.Title = title
			}
			set.Artist = artist
		}
	}

	if set.CoverPath != "" {
		hash, err := images.ComputeBlurHash(set.CoverPath)
		if err != nil {
			s.logger.Debug("failed to compute blurhash", "path", set.CoverPath, "error", err)
		} else {
			set.BlurHash = hash
		}
	}
}

// persistSet upserts the set and its charts into the catalog and stores
// its cover.
func (s *Scanner) persistSet(ctx context.Context, set *SetData) error {
	domainSet := &domain.ChartSet{
		ID:            id.NewSetID(),
		Path:          set.Path,
		Title:         set.Title,
		Artist:        set.Artist,
		CoverPath:     set.CoverPath,
		CoverBlurHash: set.BlurHash,
		ScannedAt:     time.Now().UTC(),
	}
	if err := s.catalog.UpsertSet(ctx, domainSet); err != nil {
		return err
	}

	s.storeCover(ctx, set, domainSet.ID)

	for _, cf := range set.Charts {
		chart := &domain.Chart{
			ID:       id.NewChartID(),
			Filename: cf.Filename,
			Checksum: cf.Checksum,
			Size:     cf.Size,
			ModTime:  cf.ModTime,
			Set:      domainSet,
		}
		if err := s.catalog.UpsertChart(ctx, domainSet.ID, chart); err != nil {
			return err
		}
	}
	return nil
}

// storeCover copies the standalone cover into cover storage, falling back
// to artwork embedded in the audio track.
func (s *Scanner) storeCover(ctx context.Context, set *SetData, setID string) {
	if set.CoverPath != "" {
		data, err := os.ReadFile(set.CoverPath)
		if err != nil {
			s.logger.Warn("failed to read cover file", "path", set.CoverPath, "error", err)
		} else if err := s.covers.Save(setID, data); err != nil {
			s.logger.Warn("failed to store cover", "set_id", setID, "error", err)
		}
		return
	}

	if set.AudioPath == "" || s.imageProcessor == nil {
		return
	}
	if _, err := s.imageProcessor.ExtractAndSave(ctx, set.AudioPath, setID); err != nil {
		s.logger.Debug("no embedded cover extracted", "set_id", setID, "error", err)
	}
}

// removeSetByPath drops a set from the catalog when its directory no
// longer holds chart files.
func (s *Scanner) removeSetByPath(ctx context.Context, dirPath string) error {
	sets, err := s.catalog.ListSets(ctx)
	if err != nil {
		return err
	}
	for _, set := range sets {
		if set.Path != dirPath {
			continue
		}
		if err := s.catalog.DeleteSet(ctx, set.ID); err != nil {
			return err
		}
		if err := s.covers.Delete(set.ID); err != nil {
			s.logger.Warn("failed to remove cover", "set_id", set.ID, "error", err)
		}
		s.logger.Info("removed empty set", "set_id", set.ID, "path", dirPath)
		return nil
	}
	return nil
}

// readAudioTags opens the set's audio track and returns its title and
// artist tags.
func readAudioTags(ctx context.Context, path string) (title, artist string, err error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return "", "", err
	}
	defer file.Close() //nolint:errcheck

	return normalize.Title(file.Tags.Title), normalize.Title(file.Tags.Artist), nil
}
