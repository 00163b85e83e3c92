package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	rpdf "rsc.io/pdf"
)

var (
	ErrInvalidPDF   = errors.New("invalid pdf")
	ErrEncrypted    = errors.New("pdf is encrypted")
	ErrTooLarge     = errors.New("pdf too large")
	ErrPageRange    = errors.New("invalid page range")
	ErrTooManyPages = errors.New("too many pages selected")
)

// Info is what can be learned from a PDF without rasterising it.
type Info struct {
	PageCount int
	// TextLayer holds the embedded text of each page, index 0 is page 1.
	TextLayer []string
}

// Inspect reads the page tree and the embedded text layer.
func Inspect(data []byte) (info Info, err error) {
	// rsc.io/pdf panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	reader, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, rpdf.ErrInvalidPassword) {
			return Info{}, ErrEncrypted
		}
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	info.PageCount = reader.NumPage()
	if info.PageCount == 0 {
		return Info{}, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	info.TextLayer = make([]string, info.PageCount)
	for i := 1; i <= info.PageCount; i++ {
		info.TextLayer[i-1] = pageText(reader.Page(i))
	}
	return info, nil
}

func pageText(p rpdf.Page) (text string) {
	if p.V.IsNull() {
		return ""
	}
	defer func() {
		// a broken page keeps the rest of the document usable
		if r := recover(); r != nil {
			text = ""
		}
	}()
	var b strings.Builder
	lastY := math.NaN()
	for _, t := range p.Content().Text {
		if !math.IsNaN(lastY) && math.Abs(t.Y-lastY) > t.FontSize/2 {
			b.WriteByte('\n')
		}
		lastY = t.Y
		b.WriteString(t.S)
	}
	return strings.TrimSpace(b.String())
}

// CheckSize rejects inputs larger than maxBytes; maxBytes <= 0 disables the check.
func CheckSize(data []byte, maxBytes int64) error {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), maxBytes)
	}
	return nil
}
