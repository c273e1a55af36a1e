package assemble

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// fixtureImages writes an opaque PNG, a transparent PNG, a paletted GIF and
// a corrupt .jpg, in that order.
func fixtureImages(t *testing.T, dir string) []string {
	t.Helper()

	opaque := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for x := 0; x < 40; x++ {
		for y := 0; y < 60; y++ {
			opaque.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	p1 := filepath.Join(dir, "001.png")
	writePNG(t, p1, opaque)

	p2 := filepath.Join(dir, "002.png")
	writePNG(t, p2, image.NewNRGBA(image.Rect(0, 0, 30, 30)))

	pal := image.NewPaletted(image.Rect(0, 0, 20, 20), color.Palette{color.Transparent, color.Black})
	p3 := filepath.Join(dir, "003.gif")
	f, err := os.Create(p3)
	require.NoError(t, err)
	require.NoError(t, gif.Encode(f, pal, nil))
	require.NoError(t, f.Close())

	p4 := filepath.Join(dir, "004.jpg")
	require.NoError(t, os.WriteFile(p4, []byte("<html>not an image</html>"), 0644))

	return []string{p1, p2, p3, p4}
}

func TestPDFWriter_SkipsCorruptImage(t *testing.T) {
	dir := t.TempDir()
	images := fixtureImages(t, dir)
	out := filepath.Join(dir, "Chapter.pdf")

	w := NewPDFWriter(100, filepath.Join(dir, "work"))
	report, err := w.Assemble(context.Background(), "Chapter", images, out)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Pages)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "004.jpg")

	n, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPDFWriter_ReplacesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	images := fixtureImages(t, dir)[:2]
	out := filepath.Join(dir, "again.pdf")
	w := NewPDFWriter(100, filepath.Join(dir, "work"))

	_, err := w.Assemble(context.Background(), "again", images, out)
	require.NoError(t, err)
	_, err = w.Assemble(context.Background(), "again", images, out)
	require.NoError(t, err)

	n, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPDFWriter_NoPages(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))
	out := filepath.Join(dir, "empty.pdf")

	report, err := NewPDFWriter(100, dir).Assemble(context.Background(), "empty", []string{bad}, out)
	assert.ErrorIs(t, err, ErrNoPages)
	assert.Equal(t, 0, report.Pages)
	assert.Len(t, report.Warnings, 1)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEPUBWriter(t *testing.T) {
	dir := t.TempDir()
	images := fixtureImages(t, dir)
	out := filepath.Join(dir, "Chapter.epub")

	w := NewEPUBWriter(filepath.Join(dir, "work"))
	assert.Equal(t, ".epub", w.Ext())

	report, err := w.Assemble(context.Background(), "Chapter", images, out)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pages)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNormalize_FlattensTransparencyOntoWhite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clear.png")
	writePNG(t, src, image.NewNRGBA(image.Rect(0, 0, 8, 8)))

	pages, report, err := Normalize(context.Background(), []string{src}, filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Empty(t, report.Warnings)

	img, err := imaging.Open(pages[0])
	require.NoError(t, err)
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNormalize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Normalize(ctx, []string{"x.png"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
