package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Page is one rasterised page, Index is 1-based.
type Page struct {
	Index int
	Image image.Image
}

// Render rasterises the given 1-based pages at dpi.
func Render(ctx context.Context, data []byte, pages []int, dpi int) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	ret := make([]Page, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p < 1 || p > total {
			return nil, fmt.Errorf("%w: page %d out of [1, %d]", ErrPageRange, p, total)
		}
		img, err := doc.ImageDPI(p-1, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", p, err)
		}
		ret = append(ret, Page{Index: p, Image: img})
	}
	return ret, nil
}
