package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// pdfcpu would otherwise create and read a config dir under the user's home
	api.DisableConfigDir()
}

// Assembler turns an ordered list of local images into one document.
type Assembler interface {
	Assemble(ctx context.Context, title string, images []string, outPath string) (*Report, error)
	// Ext is the output file extension including the dot.
	Ext() string
}

// PDFWriter writes one page per image, each image filling its page.
type PDFWriter struct {
	DPI     int
	WorkDir string // normalized pages are written here
}

func NewPDFWriter(dpi int, workDir string) *PDFWriter {
	return &PDFWriter{DPI: dpi, WorkDir: workDir}
}

func (w *PDFWriter) Ext() string { return ".pdf" }

// Assemble normalizes images and writes them to outPath, replacing any
// existing file. It returns ErrNoPages when no image could be decoded.
func (w *PDFWriter) Assemble(ctx context.Context, _ string, images []string, outPath string) (*Report, error) {
	pages, report, err := Normalize(ctx, images, filepath.Join(w.WorkDir, "pages"))
	if err != nil {
		return report, err
	}

	// ImportImagesFile appends to an existing file
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return report, fmt.Errorf("failed to replace %s: %w", outPath, err)
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full
	imp.DPI = w.DPI

	conf := model.NewDefaultConfiguration()

	if err := api.ImportImagesFile(pages, outPath, imp, conf); err != nil {
		return report, fmt.Errorf("failed to write PDF %s: %w", outPath, err)
	}

	log.Infof("PDF created: %s (%d pages)", outPath, report.Pages)
	return report, nil
}
