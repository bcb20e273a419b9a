package platform

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ityeti/herald/internal/region"
)

// Defaults for Tesseract.
const (
	DefaultTesseractBinary  = "tesseract"
	DefaultTesseractTimeout = 30 * time.Second
)

// Tesseract recognizes text by running the tesseract CLI on a temporary
// PNG.
type Tesseract struct {
	binary   string
	language string
	timeout  time.Duration
	run      runner
}

// NewTesseract creates an OCR service. An empty binary means "tesseract"
// and an empty language means the tesseract default.
func NewTesseract(binary, language string) *Tesseract {
	if binary == "" {
		binary = DefaultTesseractBinary
	}
	return &Tesseract{binary: binary, language: language, timeout: DefaultTesseractTimeout, run: run}
}

// Recognize returns the text found in img.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", nil
	}

	path, err := writeTempPNG(img)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Debug("Unable to remove OCR image", "path", path, "err", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.run(ctx, nil, t.binary, t.args(path)...)
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout"}
	if t.language != "" {
		args = append(args, "-l", t.language)
	}
	return args
}

func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "herald_ocr_*.png")
	if err != nil {
		return "", fmt.Errorf("unable to create OCR image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("unable to encode OCR image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

var _ region.Recognizer = (*Tesseract)(nil)
