package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestComputeBlurHash(t *testing.T) {
	t.Run("produces a hash for a small image", func(t *testing.T) {
		hash, err := ComputeBlurHash(writeTestPNG(t, 32, 32))
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("resizes large images", func(t *testing.T) {
		hash, err := ComputeBlurHash(writeTestPNG(t, 400, 300))
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("is deterministic", func(t *testing.T) {
		path := writeTestPNG(t, 64, 64)
		h1, err := ComputeBlurHash(path)
		require.NoError(t, err)
		h2, err := ComputeBlurHash(path)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("errors on missing file", func(t *testing.T) {
		_, err := ComputeBlurHash("/no/such/cover.png")
		assert.Error(t, err)
	})

	t.Run("errors on non-image file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.png")
		require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

		_, err := ComputeBlurHash(path)
		assert.Error(t, err)
	})
}

func TestResizeForBlurHash(t *testing.T) {
	t.Run("keeps small images", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 40, 30))
		assert.Equal(t, img.Bounds(), resizeForBlurHash(img).Bounds())
	})

	t.Run("caps the long edge and keeps aspect", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 640, 320))
		got := resizeForBlurHash(img).Bounds()
		assert.Equal(t, blurHashSize, got.Dx())
		assert.Equal(t, 32, got.Dy())
	})
}
