// Package extract recovers text from a W-2 PDF. Digitally generated forms
// carry a text layer that is read directly; scanned forms fall back to
// rasterization plus OCR through external poppler and tesseract binaries.
// The source document is never modified.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnavailable reports that neither extraction path could produce text:
// the document has no usable text layer and the OCR engine is missing or
// yielded nothing.
var ErrUnavailable = errors.New("text extraction unavailable")

// Extraction methods recorded on a Result.
const (
	MethodTextLayer = "text-layer"
	MethodOCR       = "ocr"
)

// Config holds extraction knobs. Zero values are filled with defaults by
// NewExtractor.
type Config struct {
	Pdftoppm  string // binary name or absolute path
	Tesseract string // binary name or absolute path
	DPI       int    // rasterization resolution for scanned forms
	Lang      string // tesseract language
	MaxPages  int    // OCR page cap, 0 = no limit

	// MinTextChars is the minimum trimmed text-layer length accepted before
	// falling back to OCR.
	MinTextChars int
}

// Result is the recovered document text plus how it was obtained.
type Result struct {
	Text   string
	Method string // MethodTextLayer or MethodOCR
	Pages  int    // pages read (text layer) or rasterized (OCR)
}

// Extractor runs the two-stage text recovery.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	// Seams over the PDF libraries so tests can drive the fallback logic
	// without crafting binary fixtures.
	textLayerFn func(path string) (string, int, error)
	pageCountFn func(path string) (int, error)
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	e.textLayerFn = e.textLayer
	e.pageCountFn = pageCount
	return e
}

// Extract recovers text from the PDF at path. The text layer is tried
// first; when it yields fewer than MinTextChars characters the document is
// treated as a scan and OCR runs instead.
func (e *Extractor) Extract(ctx context.Context, path string) (*Result, error) {
	text, pages, err := e.textLayerFn(path)
	if err != nil {
		e.logger.Debug("text layer unreadable", "path", path, "error", err)
	}
	if n := len(strings.TrimSpace(text)); n >= e.cfg.MinTextChars {
		e.logger.Info("extracted text layer", "path", path, "pages", pages, "chars", n)
		return &Result{Text: text, Method: MethodTextLayer, Pages: pages}, nil
	} else if n > 0 {
		e.logger.Info("text layer below threshold, falling back to ocr",
			"path", path, "chars", n, "min_chars", e.cfg.MinTextChars)
	}

	ocrText, ocrPages, ocrErr := e.ocr(ctx, path)
	if ocrErr != nil {
		if isEngineMissing(ocrErr) {
			// No usable text layer and no OCR engine on this host.
			if strings.TrimSpace(text) != "" {
				e.logger.Warn("ocr engine missing, proceeding with short text layer",
					"path", path, "error", ocrErr)
				return &Result{Text: text, Method: MethodTextLayer, Pages: pages}, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ocrErr)
		}
		return nil, fmt.Errorf("ocr failed: %w", ocrErr)
	}
	if strings.TrimSpace(ocrText) == "" {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: document yielded no text", ErrUnavailable)
		}
		return &Result{Text: text, Method: MethodTextLayer, Pages: pages}, nil
	}

	e.logger.Info("extracted via ocr", "path", path, "pages", ocrPages, "chars", len(ocrText))
	return &Result{Text: ocrText, Method: MethodOCR, Pages: ocrPages}, nil
}

// textLayer reads every page's embedded text. Individual page failures are
// tolerated; malformed content streams in the wild can panic the reader, so
// the per-page read is isolated.
func (e *Extractor) textLayer(path string) (text string, pages int, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	pages = reader.NumPage()
	for pageNum := 1; pageNum <= pages; pageNum++ {
		content, err := readPageText(reader, pageNum)
		if err != nil {
			e.logger.Debug("page text unreadable", "path", path, "page", pageNum, "error", err)
			continue
		}
		if content == "" {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}

func readPageText(reader *pdf.Reader, pageNum int) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading page %d: %v", pageNum, r)
		}
	}()
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// ocr rasterizes pages with pdftoppm and feeds each image to tesseract.
// Pages are joined with a form-feed marker so downstream regexes keep a
// page boundary to anchor on.
func (e *Extractor) ocr(ctx context.Context, path string) (string, int, error) {
	pages, err := e.pageCountFn(path)
	if err != nil {
		return "", 0, fmt.Errorf("counting pages: %w", err)
	}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "w2fill-ocr-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var b strings.Builder
	for pageNum := 1; pageNum <= pages; pageNum++ {
		img, err := e.renderPage(ctx, path, tmpDir, pageNum)
		if err != nil {
			return "", 0, err
		}
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			return "", 0, err
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	return b.String(), pages, nil
}

// pageCount opens the document and asks pdfcpu for its page total.
func pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()
	return api.PageCount(f, nil)
}

// renderPage rasterizes one page to PNG and returns the image path.
//
//	pdftoppm -png -f N -l N -r DPI -singlefile <pdf> <prefix>
func (e *Extractor) renderPage(ctx context.Context, pdfPath, outDir string, pageNum int) (string, error) {
	prefix := filepath.Join(outDir, fmt.Sprintf("page-%d", pageNum))
	pageStr := fmt.Sprintf("%d", pageNum)
	_, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-singlefile",
		pdfPath,
		prefix,
	)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w (stderr: %s)", pageNum, err, truncate(string(stderr), 512))
	}
	return prefix + ".png", nil
}

// tesseract OCRs one image to stdout.
//
//	tesseract <img> stdout -l LANG
func (e *Extractor) tesseract(ctx context.Context, imgPath string) (string, error) {
	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, imgPath, "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w (stderr: %s)", filepath.Base(imgPath), err, truncate(string(stderr), 512))
	}
	return string(out), nil
}

// isEngineMissing reports whether err means an external binary was not
// found on PATH rather than a failed run.
func isEngineMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
