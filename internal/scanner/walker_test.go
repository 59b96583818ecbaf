package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collectSets(t *testing.T, root string) []*SetData {
	t.Helper()

	walker := NewWalker(slog.New(slog.DiscardHandler))

	var sets []*SetData
	for result := range walker.Walk(context.Background(), root) {
		if result.Error != nil {
			t.Errorf("unexpected walk error: %v", result.Error)
			continue
		}
		sets = append(sets, result.Set)
	}
	return sets
}

func TestWalker_Walk_EmptyDirectory(t *testing.T) {
	sets := collectSets(t, t.TempDir())
	if len(sets) != 0 {
		t.Errorf("expected 0 sets, got %d", len(sets))
	}
}

func TestWalker_Walk_DiscoverSet(t *testing.T) {
	tmpDir := t.TempDir()
	setDir := filepath.Join(tmpDir, "Night Drive")
	writeFile(t, filepath.Join(setDir, "expert.chart"), "[Song]")
	writeFile(t, filepath.Join(setDir, "hard.chart"), "[Song]")
	writeFile(t, filepath.Join(setDir, "song.ogg"), "audio")
	writeFile(t, filepath.Join(setDir, "cover.png"), "img")

	sets := collectSets(t, tmpDir)
	if len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(sets))
	}

	set := sets[0]
	if set.Path != setDir {
		t.Errorf("path = %q, want %q", set.Path, setDir)
	}
	if set.RelPath != "Night Drive" {
		t.Errorf("rel path = %q, want %q", set.RelPath, "Night Drive")
	}
	if len(set.Charts) != 2 {
		t.Fatalf("expected 2 charts, got %d", len(set.Charts))
	}
	if set.AudioPath != filepath.Join(setDir, "song.ogg") {
		t.Errorf("audio path = %q", set.AudioPath)
	}
	if set.CoverPath != filepath.Join(setDir, "cover.png") {
		t.Errorf("cover path = %q", set.CoverPath)
	}
	for _, ch := range set.Charts {
		if ch.Size != int64(len("[Song]")) {
			t.Errorf("chart %s size = %d", ch.Filename, ch.Size)
		}
		if ch.ModTime == 0 {
			t.Errorf("chart %s has zero modtime", ch.Filename)
		}
	}
}

func TestWalker_Walk_IgnoresDirectoriesWithoutCharts(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "not-a-set", "readme.txt"), "nope")
	writeFile(t, filepath.Join(tmpDir, "also-not", "song.ogg"), "audio")

	sets := collectSets(t, tmpDir)
	if len(sets) != 0 {
		t.Errorf("expected 0 sets, got %d", len(sets))
	}
}

func TestWalker_Walk_NestedSets(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "packs", "summer", "a", "expert.chart"), "x")
	writeFile(t, filepath.Join(tmpDir, "packs", "summer", "b", "expert.chart"), "y")
	writeFile(t, filepath.Join(tmpDir, "loose", "expert.chart"), "z")

	sets := collectSets(t, tmpDir)
	if len(sets) != 3 {
		t.Errorf("expected 3 sets, got %d", len(sets))
	}
}

func TestWalker_Walk_SkipsHiddenDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".trash", "expert.chart"), "x")
	writeFile(t, filepath.Join(tmpDir, "visible", "expert.chart"), "y")
	writeFile(t, filepath.Join(tmpDir, "visible", ".hidden.chart"), "z")

	sets := collectSets(t, tmpDir)
	if len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(sets))
	}
	if len(sets[0].Charts) != 1 {
		t.Errorf("expected hidden chart skipped, got %d charts", len(sets[0].Charts))
	}
}

func TestWalker_Walk_PrefersNamedCover(t *testing.T) {
	tmpDir := t.TempDir()
	setDir := filepath.Join(tmpDir, "set")
	writeFile(t, filepath.Join(setDir, "expert.chart"), "x")
	writeFile(t, filepath.Join(setDir, "background.jpg"), "bg")
	writeFile(t, filepath.Join(setDir, "cover.jpg"), "front")

	sets := collectSets(t, tmpDir)
	if len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(sets))
	}
	if got := filepath.Base(sets[0].CoverPath); got != "cover.jpg" {
		t.Errorf("cover = %q, want cover.jpg", got)
	}
}

func TestWalker_Walk_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(tmpDir, dir, "expert.chart"), "x")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewWalker(slog.New(slog.DiscardHandler))
	count := 0
	for range walker.Walk(ctx, tmpDir) {
		count++
	}
	// The channel must close promptly; partial results are acceptable.
	if count > 3 {
		t.Errorf("got %d results after cancel", count)
	}
}

func TestWalker_WalkDir_NonSetReturnsNil(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "readme.txt"), "nope")

	walker := NewWalker(slog.New(slog.DiscardHandler))
	set, err := walker.WalkDir(tmpDir, tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != nil {
		t.Errorf("expected nil set, got %+v", set)
	}
}
