package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognises text in an encoded image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Tesseract serialises calls through a single gosseract client; the
// underlying TessBaseAPI is not safe for concurrent use.
type Tesseract struct {
	mu        sync.Mutex
	languages []string
}

func NewTesseract(languages []string) *Tesseract {
	return &Tesseract{languages: languages}
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()
	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("ocr set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("ocr set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Noop is used when OCR is disabled.
type Noop struct{}

func (Noop) Recognize(context.Context, []byte) (string, error) { return "", nil }

func New(enabled bool, languages []string) Engine {
	if !enabled {
		return Noop{}
	}
	return NewTesseract(languages)
}
