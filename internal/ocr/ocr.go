// Package ocr wraps Tesseract for the two places optical recognition is
// needed: scanned tender documents and the simple alphanumeric CAPTCHAs some
// tender portals gate their listings behind.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"
)

// Engine runs Tesseract over images. The zero value is ready to use; each
// call owns its own client, so Engine is safe for sequential reuse.
type Engine struct{}

// New creates an OCR engine.
func New() *Engine {
	return &Engine{}
}

// ImageToText recognizes page-sized text from a rendered document page.
func (e *Engine) ImageToText(img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr text: %w", err)
	}

	return text, nil
}

// SolveCaptcha recognizes a single-word alphanumeric CAPTCHA image and
// returns only its alphanumeric characters. An unrecognizable image yields
// an empty string, not an error: captcha solving is best-effort.
func (e *Engine) SolveCaptcha(imgPNG []byte) string {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(imgPNG); err != nil {
		return ""
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_WORD); err != nil {
		return ""
	}

	text, err := client.Text()
	if err != nil {
		return ""
	}

	var out strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
