package service

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of a source file. An empty string
// signals extraction failure by convention; extractors do not return errors.
type TextExtractor interface {
	Extract(path string) string
}

// PDFExtractor extracts embedded text from PDF files and falls back to OCR
// (pdftoppm + tesseract) for image-only documents when that tooling is
// installed.
type PDFExtractor struct {
	log *slog.Logger
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{log: slog.Default().With("component", "extractor")}
}

func (e *PDFExtractor) Extract(path string) string {
	text := e.extractEmbedded(path)
	if strings.TrimSpace(text) != "" {
		return text
	}

	e.log.Info("no embedded text found, attempting OCR", "file", path)
	return e.ocrExtract(path)
}

func (e *PDFExtractor) extractEmbedded(path string) string {
	f, reader, err := pdf.Open(path)
	if err != nil {
		e.log.Error("failed to open PDF", "file", path, "error", err)
		return ""
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		e.log.Error("failed to read PDF text", "file", path, "error", err)
		return ""
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		e.log.Error("failed to read PDF text stream", "file", path, "error", err)
		return ""
	}
	return buf.String()
}

// ocrExtract renders pages to images with pdftoppm and runs tesseract over
// each. Missing tooling yields "" so the caller reports the OCR-specific
// failure reason.
func (e *PDFExtractor) ocrExtract(path string) string {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		e.log.Warn("OCR skipped: pdftoppm not found, install poppler-utils")
		return ""
	}
	if _, err := exec.LookPath("tesseract"); err != nil {
		e.log.Warn("OCR skipped: tesseract not found, install tesseract-ocr")
		return ""
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-")
	if err != nil {
		e.log.Error("OCR failed: cannot create temp dir", "error", err)
		return ""
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if out, err := exec.Command("pdftoppm", "-r", "300", "-png", path, prefix).CombinedOutput(); err != nil {
		e.log.Error("OCR failed: pdftoppm error", "file", path, "error", err, "output", string(out))
		return ""
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		e.log.Error("OCR failed: no page images produced", "file", path)
		return ""
	}
	sort.Strings(pages)

	var text strings.Builder
	for _, page := range pages {
		out, err := exec.Command("tesseract", page, "stdout").Output()
		if err != nil {
			e.log.Error("OCR failed: tesseract error", "page", page, "error", err)
			return ""
		}
		text.Write(out)
		text.WriteString("\n")
	}
	return text.String()
}
