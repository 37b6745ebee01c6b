package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// fitzDocument adapts go-fitz to the Document interface.
type fitzDocument struct {
	doc *fitz.Document
}

// OpenFitz opens a PDF (or any MuPDF-supported format) from disk.
func OpenFitz(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document %q: %w", path, err)
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(n int) (string, error) {
	return d.doc.Text(n)
}

func (d *fitzDocument) PageImage(n int) (image.Image, error) {
	return d.doc.Image(n)
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
