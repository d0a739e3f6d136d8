package texture

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestLoadTexturePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.png")
	writePNG(t, path, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	img, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rect.Dx())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 128}, img.NRGBAAt(1, 1))
}

func TestLoadTextureJPEGIsOpaque(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wood.jpg")
	writeJPEG(t, path)

	img, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A)
}

// writeTGA writes an uncompressed 32-bit top-left-origin TGA of one row.
func writeTGA(t *testing.T, path string, row []color.NRGBA) {
	t.Helper()
	hdr := []byte{
		0, 0, 2, // no id, no colour map, true colour
		0, 0, 0, 0, 0, // colour map spec
		0, 0, 0, 0, // origin
		byte(len(row)), 0, 1, 0, // width, height
		32, 0x28, // bpp, top-left origin with 8 alpha bits
	}
	data := append([]byte{}, hdr...)
	for _, c := range row {
		data = append(data, c.B, c.G, c.R, c.A)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadTextureDecodesByExtension(t *testing.T) {
	dir := t.TempDir()
	tgaPath := filepath.Join(dir, "stripe.tga")
	writeTGA(t, tgaPath, []color.NRGBA{{R: 255, A: 255}, {B: 255, A: 255}})
	pngPath := filepath.Join(dir, "tile.PNG")
	writePNG(t, pngPath, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	img, err := LoadTexture(tgaPath)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Rect)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(1, 0))

	img, err = LoadTexture(pngPath)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, img.NRGBAAt(0, 0))

	// A PNG stream behind a .tga name goes to the TGA decoder.
	misnamed := filepath.Join(dir, "fake.tga")
	raw, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(misnamed, raw, 0o644))
	_, err = LoadTexture(misnamed)
	assert.Error(t, err)
}

func TestLoadTextureErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadTexture(filepath.Join(dir, "x.bmp"))
	assert.Error(t, err)

	_, err = LoadTexture(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = LoadTexture(bad)
	assert.Error(t, err)
}

func TestIndexPrefersAlphaFormats(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "props")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeJPEG(t, filepath.Join(dir, "Wood.jpg"))
	writePNG(t, filepath.Join(sub, "wood.png"), color.NRGBA{A: 255})
	writeJPEG(t, filepath.Join(sub, "stone.jpeg"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	idx := BuildIndex(dir)
	assert.Equal(t, 2, idx.Len())

	path, ok := idx.ResolvePath(`Textures\WOOD.jpg`)
	require.True(t, ok)
	assert.Equal(t, ".png", filepath.Ext(path))

	_, ok = idx.ResolvePath("marble")
	assert.False(t, ok)

	assert.Equal(t, 0, BuildIndex("").Len())
	assert.Equal(t, 0, BuildIndex(filepath.Join(dir, "nope")).Len())
}

func TestCacheResolvesOnce(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "tile.png"), color.NRGBA{G: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("x"), 0o644))

	c := NewCache(BuildIndex(dir))
	var wg sync.WaitGroup
	results := make([]*image.NRGBA, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Resolve("tile")
		}(i)
	}
	wg.Wait()
	require.NotNil(t, results[0])
	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}

	assert.Nil(t, c.Resolve("broken"))
	assert.Nil(t, c.Resolve("absent"))
	assert.Equal(t, 2, c.Loaded())

	var nilCache *Cache
	assert.Nil(t, nilCache.Resolve("tile"))
}
