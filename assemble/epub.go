package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	epub "github.com/go-shiori/go-epub"
)

// EPUBWriter puts all pages into a single section of an EPUB book.
type EPUBWriter struct {
	WorkDir string
}

func NewEPUBWriter(workDir string) *EPUBWriter {
	return &EPUBWriter{WorkDir: workDir}
}

func (w *EPUBWriter) Ext() string { return ".epub" }

func (w *EPUBWriter) Assemble(ctx context.Context, title string, images []string, outPath string) (*Report, error) {
	pages, report, err := Normalize(ctx, images, filepath.Join(w.WorkDir, "pages"))
	if err != nil {
		return report, err
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return report, fmt.Errorf("failed to create EPUB: %w", err)
	}
	e.SetLang("en")

	var body strings.Builder
	for i, page := range pages {
		internalPath, err := e.AddImage(page, "")
		if err != nil {
			return report, fmt.Errorf("failed to add image %s: %w", filepath.Base(page), err)
		}
		fmt.Fprintf(&body, `<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>`+"\n",
			internalPath, i+1)
	}

	if _, err := e.AddSection(body.String(), title, "", ""); err != nil {
		return report, fmt.Errorf("failed to add section: %w", err)
	}

	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return report, fmt.Errorf("failed to replace %s: %w", outPath, err)
	}
	if err := e.Write(outPath); err != nil {
		return report, fmt.Errorf("failed to write EPUB %s: %w", outPath, err)
	}

	log.Infof("EPUB created: %s (%d pages)", outPath, report.Pages)
	return report, nil
}
