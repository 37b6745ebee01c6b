// Package document extracts text from fetched tender documents, falling back
// to OCR when the native text layer is too thin to be real content.
package document

import (
	"image"
	"strings"

	"go.uber.org/zap"
)

// minNativeTextLen is the trimmed-text threshold below which a document is
// presumed to be a scanned image.
const minNativeTextLen = 50

// Document is one opened document, page-addressable for both its text layer
// and rendered page images.
type Document interface {
	NumPages() int
	PageText(n int) (string, error)
	PageImage(n int) (image.Image, error)
	Close() error
}

// Opener opens a document from a local path.
type Opener func(path string) (Document, error)

// Recognizer turns a rendered page into text.
type Recognizer interface {
	ImageToText(img image.Image) (string, error)
}

// Extractor pulls text out of documents. Extraction never fails: any error
// in either path is logged and yields an empty string, so a broken document
// degrades to empty context downstream instead of aborting ingestion.
type Extractor struct {
	open   Opener
	ocr    Recognizer
	logger *zap.Logger
}

// New creates an extractor.
func New(open Opener, ocr Recognizer, logger *zap.Logger) *Extractor {
	return &Extractor{open: open, ocr: ocr, logger: logger}
}

// Extract returns the document's text: the native text layer when it carries
// enough content, otherwise per-page OCR.
func (e *Extractor) Extract(path string) string {
	doc, err := e.open(path)
	if err != nil {
		e.logger.Warn("opening document failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer doc.Close()

	native := e.nativeText(doc, path)
	if len(strings.TrimSpace(native)) >= minNativeTextLen {
		return native
	}

	e.logger.Info("low text content, falling back to ocr", zap.String("path", path))
	return e.ocrText(doc, path)
}

func (e *Extractor) nativeText(doc Document, path string) string {
	var pages []string
	for n := 0; n < doc.NumPages(); n++ {
		text, err := doc.PageText(n)
		if err != nil {
			e.logger.Warn("page text extraction failed",
				zap.String("path", path),
				zap.Int("page", n),
				zap.Error(err),
			)
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n")
}

func (e *Extractor) ocrText(doc Document, path string) string {
	if e.ocr == nil {
		return ""
	}

	var pages []string
	for n := 0; n < doc.NumPages(); n++ {
		img, err := doc.PageImage(n)
		if err != nil {
			e.logger.Warn("page rendering failed",
				zap.String("path", path),
				zap.Int("page", n),
				zap.Error(err),
			)
			continue
		}
		text, err := e.ocr.ImageToText(img)
		if err != nil {
			e.logger.Warn("page ocr failed",
				zap.String("path", path),
				zap.Int("page", n),
				zap.Error(err),
			)
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n")
}
