package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/common"
)

// Runner lets tests stub the external OCR commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// OCRConfig configures the OCR tier.
type OCRConfig struct {
	Pdftoppm  string // binary name or absolute path; empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; empty -> "tesseract"
	Lang      string // tesseract language, default "por"
	DPI       int    // rasterization DPI, default 300
	Timeout   time.Duration
}

// OCREngine rasterizes PDF pages and runs Tesseract over them. Requires
// poppler-utils (pdftoppm) and tesseract-ocr with the configured language.
type OCREngine struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

// NewOCREngine builds an engine with defaults filled in.
func NewOCREngine(cfg OCRConfig, logger *slog.Logger) *OCREngine {
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
		cfg.Lang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OCREngine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Available reports whether both OCR binaries can be found.
func (e *OCREngine) Available() bool {
	if _, err := exec.LookPath(e.cfg.Pdftoppm); err != nil {
		return false
	}
	if _, err := exec.LookPath(e.cfg.Tesseract); err != nil {
		return false
	}
	return true
}

// Extract rasterizes every page at the configured DPI and OCRs each image.
// Missing binaries or missing language data surface as configuration
// errors, not parsing errors.
func (e *OCREngine) Extract(ctx context.Context, data []byte) (string, error) {
	if _, err := exec.LookPath(e.cfg.Pdftoppm); err != nil {
		return "", common.NewConfigError(fmt.Errorf("%w: pdftoppm not found (install poppler-utils)", common.ErrOCRUnavailable))
	}
	if _, err := exec.LookPath(e.cfg.Tesseract); err != nil {
		return "", common.NewConfigError(fmt.Errorf("%w: tesseract not found (install tesseract-ocr)", common.ErrOCRUnavailable))
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	imgPrefix := filepath.Join(tmpDir, "page")
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprint(e.cfg.DPI), "-png", pdfPath, imgPrefix); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w (stderr: %s)", err, truncate(string(stderr), 512))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}
	var imageFiles []string
	for _, ent := range entries {
		if strings.HasSuffix(ent.Name(), ".png") {
			imageFiles = append(imageFiles, filepath.Join(tmpDir, ent.Name()))
		}
	}
	sort.Strings(imageFiles)
	if len(imageFiles) == 0 {
		return "", fmt.Errorf("pdftoppm produced no page images")
	}

	var pages []string
	for _, imgFile := range imageFiles {
		outBase := strings.TrimSuffix(imgFile, ".png") + "-ocr"
		// PSM 4: single column of text of variable sizes, which matches
		// invoice row layouts.
		_, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract,
			imgFile, outBase, "-l", e.cfg.Lang, "--psm", "4")
		if err != nil {
			if strings.Contains(string(stderr), "Failed loading language") {
				return "", common.NewConfigError(fmt.Errorf("%w: tesseract language %q not installed", common.ErrOCRUnavailable, e.cfg.Lang))
			}
			e.logger.Warn("tesseract failed for page", "image", filepath.Base(imgFile), "error", err)
			continue
		}

		out, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(out))
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("tesseract produced no text from %d page images", len(imageFiles))
	}
	return strings.Join(pages, "\n\n"), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
