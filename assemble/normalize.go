package assemble

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"pagepdf/logger"
)

var log = logger.New("Assembler")

// ErrNoPages means none of the input images could be decoded.
var ErrNoPages = errors.New("no decodable images")

// Report lists what went into a document.
type Report struct {
	Pages    int
	Warnings []string
}

func (r *Report) warn(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	r.Warnings = append(r.Warnings, msg)
	log.Warnf("%s", msg)
}

// Normalize decodes every image in order and writes it to dir as an opaque
// RGB JPEG named page-NNN.jpg. Files that fail to decode are skipped and
// reported as warnings. It returns the written paths in input order.
func Normalize(ctx context.Context, images []string, dir string) ([]string, *Report, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create page directory: %w", err)
	}

	report := &Report{}
	pages := make([]string, 0, len(images))

	for _, path := range images {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		img, err := imaging.Open(path)
		if err != nil {
			report.warn("skipping %s: %v", filepath.Base(path), err)
			continue
		}

		out := filepath.Join(dir, fmt.Sprintf("page-%03d.jpg", len(pages)+1))
		if err := imaging.Save(flatten(img), out, imaging.JPEGQuality(90)); err != nil {
			report.warn("skipping %s: failed to encode: %v", filepath.Base(path), err)
			continue
		}
		pages = append(pages, out)
	}

	report.Pages = len(pages)
	if len(pages) == 0 {
		return nil, report, ErrNoPages
	}
	return pages, report, nil
}

// flatten returns img as an opaque image. Anything that can carry
// transparency is composited onto white first; JPEG has no alpha and would
// otherwise turn transparent pixels black.
func flatten(img image.Image) image.Image {
	if !hasAlpha(img) {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return false
	}
	switch img.ColorModel() {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	_, paletted := img.ColorModel().(color.Palette)
	return paletted
}
