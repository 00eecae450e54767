// Package pdf captures page screenshots of the knowledge-base PDFs.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Screenshot is a rendered page written to disk
type Screenshot struct {
	Page int // 0-based page index, as reported by the retriever
	Path string
}

// Renderer rasterizes PDF pages with poppler's pdftoppm
type Renderer struct {
	command string
	outDir  string
	scale   float64
}

// NewRenderer creates a renderer writing PNG files under outDir
func NewRenderer(command, outDir string, scale float64) *Renderer {
	if command == "" {
		command = "pdftoppm"
	}
	if scale <= 0 {
		scale = 2
	}
	return &Renderer{command: command, outDir: outDir, scale: scale}
}

// RenderPage returns the PNG bytes of the 0-based pageIndex of the PDF at path
func (r *Renderer) RenderPage(ctx context.Context, path string, pageIndex int, scale float64) ([]byte, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("invalid page index %d", pageIndex)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	tmp, err := os.MkdirTemp("", "bgc-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	page := strconv.Itoa(pageIndex + 1)
	dpi := strconv.Itoa(int(72 * scale))
	root := filepath.Join(tmp, "page")

	cmd := exec.CommandContext(ctx, r.command, "-png", "-singlefile", "-f", page, "-l", page, "-r", dpi, path, root)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s failed on page %d: %w: %s", r.command, pageIndex, err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(root + ".png")
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered page: %w", err)
	}
	return data, nil
}

// Capture renders each page and writes it to the output directory. Pages that
// fail to render are logged and left out; the answer is never affected.
func (r *Renderer) Capture(ctx context.Context, pdfPath string, pages []int) []Screenshot {
	if len(pages) == 0 {
		return nil
	}
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		log.WithError(err).WithField("dir", r.outDir).Warn("failed to create screenshot directory")
		return nil
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	var shots []Screenshot
	for _, page := range pages {
		pLog := log.WithFields(log.Fields{"pdf": pdfPath, "page": page})

		data, err := r.RenderPage(ctx, pdfPath, page, r.scale)
		if err != nil {
			pLog.WithError(err).Warn("failed to render page")
			continue
		}

		out := filepath.Join(r.outDir, fmt.Sprintf("%s-page-%d.png", base, page))
		if err := os.WriteFile(out, data, 0o644); err != nil {
			pLog.WithError(err).Warn("failed to write screenshot")
			continue
		}
		shots = append(shots, Screenshot{Page: page, Path: out})
	}
	return shots
}
