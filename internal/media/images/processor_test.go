package images

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProcessor(t *testing.T) *Processor {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return NewProcessor(storage, slog.New(slog.DiscardHandler))
}

func TestProcessor_ExtractAndSave(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		processor := setupTestProcessor(t)

		hash, err := processor.ExtractAndSave(context.Background(), "/no/such/track.ogg", "set-123")
		assert.Error(t, err)
		assert.Empty(t, hash)
		assert.Contains(t, err.Error(), "open audio file")
	})

	t.Run("returns error for invalid audio file", func(t *testing.T) {
		invalid := filepath.Join(t.TempDir(), "invalid.mp3")
		require.NoError(t, os.WriteFile(invalid, []byte("not audio"), 0o644))

		processor := setupTestProcessor(t)

		hash, err := processor.ExtractAndSave(context.Background(), invalid, "set-123")
		assert.Error(t, err)
		assert.Empty(t, hash)
	})

	t.Run("extracts embedded cover when a tagged track exists", func(t *testing.T) {
		track := findTestAudioFile(t)
		if track == "" {
			t.Skip("no tagged test audio file available")
		}

		processor := setupTestProcessor(t)

		hash, err := processor.ExtractAndSave(context.Background(), track, "set-cover")
		require.NoError(t, err)
		if hash != "" {
			assert.Len(t, hash, 64)
			assert.True(t, processor.storage.Exists("set-cover"))
		}
	})
}

// findTestAudioFile returns a real tagged audio file for integration-style
// cases, or "" when none is available.
func findTestAudioFile(t *testing.T) string {
	t.Helper()

	for _, path := range []string{"testdata/sample.ogg", "testdata/sample.mp3"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if path := os.Getenv("TEST_AUDIO_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
