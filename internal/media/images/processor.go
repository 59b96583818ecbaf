package images

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simonhull/audiometa"
)

// Processor extracts embedded cover art from a set's audio track. It is the
// fallback when a set directory carries no standalone cover image.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a Processor writing into the given storage.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{storage: storage, logger: logger}
}

// ExtractAndSave pulls the first embedded artwork out of the audio file and
// stores it under the set ID. Returns the stored cover's SHA256 hash, or ""
// with no error when the file carries no artwork.
func (p *Processor) ExtractAndSave(ctx context.Context, audioPath, setID string) (string, error) {
	file, err := audiometa.OpenContext(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	artworks, err := file.ExtractArtwork()
	if err != nil {
		return "", fmt.Errorf("extract artwork: %w", err)
	}

	if len(artworks) == 0 {
		p.logger.Debug("no embedded cover found",
			"path", audioPath,
			"format", file.Format.String(),
		)
		return "", nil
	}

	if err := p.storage.Save(setID, artworks[0].Data); err != nil {
		return "", fmt.Errorf("save cover: %w", err)
	}

	hash, err := p.storage.Hash(setID)
	if err != nil {
		return "", fmt.Errorf("hash cover: %w", err)
	}

	p.logger.Debug("extracted embedded cover",
		"set_id", setID,
		"path", audioPath,
		"size", len(artworks[0].Data),
	)
	return hash, nil
}
