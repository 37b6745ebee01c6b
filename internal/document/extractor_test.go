package document

import (
	"errors"
	"image"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeDocument struct {
	pages    []string
	textErr  error
	imageErr error
}

func (f *fakeDocument) NumPages() int { return len(f.pages) }

func (f *fakeDocument) PageText(n int) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.pages[n], nil
}

func (f *fakeDocument) PageImage(n int) (image.Image, error) {
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeDocument) Close() error { return nil }

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) ImageToText(_ image.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func openerFor(doc Document, err error) Opener {
	return func(string) (Document, error) {
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

func TestExtractNativeText(t *testing.T) {
	t.Parallel()

	doc := &fakeDocument{pages: []string{
		"Tender for supply of LT power cables, 4C x 16 sqmm copper XLPE.",
		"Delivery within 8 weeks of purchase order.",
	}}
	ocr := &fakeRecognizer{text: "should not be used"}

	got := New(openerFor(doc, nil), ocr, zap.NewNop()).Extract("tender.pdf")

	want := doc.pages[0] + "\n" + doc.pages[1]
	if got != want {
		t.Fatalf("expected native text, got %q", got)
	}
}

func TestExtractFallsBackToOCR(t *testing.T) {
	t.Parallel()

	// A scanned document: the text layer exists but is too thin to be real.
	doc := &fakeDocument{pages: []string{"  \n", "p.2"}}
	ocr := &fakeRecognizer{text: "SUPPLY OF LT CABLES"}

	got := New(openerFor(doc, nil), ocr, zap.NewNop()).Extract("scan.pdf")

	if !strings.Contains(got, "SUPPLY OF LT CABLES") {
		t.Fatalf("expected ocr text, got %q", got)
	}
}

func TestExtractOpenFailure(t *testing.T) {
	t.Parallel()

	extractor := New(openerFor(nil, errors.New("corrupt file")), nil, zap.NewNop())

	if got := extractor.Extract("broken.pdf"); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestExtractOCRFailuresDegradeToEmpty(t *testing.T) {
	t.Parallel()

	doc := &fakeDocument{pages: []string{"x"}}
	ocr := &fakeRecognizer{err: errors.New("tesseract not installed")}

	if got := New(openerFor(doc, nil), ocr, zap.NewNop()).Extract("scan.pdf"); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestExtractNoRecognizer(t *testing.T) {
	t.Parallel()

	doc := &fakeDocument{pages: []string{"x"}}

	if got := New(openerFor(doc, nil), nil, zap.NewNop()).Extract("scan.pdf"); got != "" {
		t.Fatalf("expected empty text without a recognizer, got %q", got)
	}
}
