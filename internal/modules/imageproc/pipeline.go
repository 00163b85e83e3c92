package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/tools"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	ErrInvalidOptions   = errors.New("invalid preprocess options")
)

// Options controls the enhancement filters applied to every page before it is
// sent to a model. The zero value leaves the image untouched.
type Options struct {
	AutoOrient   bool    `json:"auto_orient" form:"auto_orient"`
	Grayscale    bool    `json:"grayscale" form:"grayscale"`
	Contrast     float64 `json:"contrast" form:"contrast"`     // percent, -100..100
	Brightness   float64 `json:"brightness" form:"brightness"` // percent, -100..100
	Gamma        float64 `json:"gamma" form:"gamma"`           // 0 or 1 means identity
	Sharpen      float64 `json:"sharpen" form:"sharpen"`       // sigma
	Denoise      float64 `json:"denoise" form:"denoise"`       // gaussian blur sigma
	Threshold    int     `json:"threshold" form:"threshold"`   // 0 off, 1..255 binarise
	Invert       bool    `json:"invert" form:"invert"`
	MaxDimension int     `json:"max_dimension" form:"max_dimension"`
}

func FromConfig(c config.Preprocess) Options {
	return Options{
		AutoOrient:   c.AutoOrient,
		Grayscale:    c.Grayscale,
		Contrast:     c.Contrast,
		Brightness:   c.Brightness,
		Gamma:        c.Gamma,
		Sharpen:      c.Sharpen,
		Denoise:      c.Denoise,
		Threshold:    c.Threshold,
		Invert:       c.Invert,
		MaxDimension: c.MaxDimension,
	}
}

func (o Options) Valid() error {
	if o.Contrast < -100 || o.Contrast > 100 {
		return fmt.Errorf("%w: contrast %v out of [-100, 100]", ErrInvalidOptions, o.Contrast)
	}
	if o.Brightness < -100 || o.Brightness > 100 {
		return fmt.Errorf("%w: brightness %v out of [-100, 100]", ErrInvalidOptions, o.Brightness)
	}
	if o.Gamma < 0 {
		return fmt.Errorf("%w: gamma must not be negative", ErrInvalidOptions)
	}
	if o.Sharpen < 0 || o.Denoise < 0 {
		return fmt.Errorf("%w: sharpen and denoise must not be negative", ErrInvalidOptions)
	}
	if o.Threshold < 0 || o.Threshold > 255 {
		return fmt.Errorf("%w: threshold %d out of [0, 255]", ErrInvalidOptions, o.Threshold)
	}
	if o.MaxDimension < 0 {
		return fmt.Errorf("%w: max_dimension must not be negative", ErrInvalidOptions)
	}
	return nil
}

func Decode(data []byte, autoOrient bool) (image.Image, error) {
	if tools.DetectImageType(data) == tools.ImageTypeUnknown {
		return nil, ErrUnsupportedImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// Process runs the filters in a fixed order: resize, denoise, grayscale,
// gamma, brightness, contrast, sharpen, threshold, invert.
func Process(img image.Image, o Options) image.Image {
	out := img
	if o.MaxDimension > 0 {
		b := out.Bounds()
		if b.Dx() > o.MaxDimension || b.Dy() > o.MaxDimension {
			out = imaging.Fit(out, o.MaxDimension, o.MaxDimension, imaging.Lanczos)
		}
	}
	if o.Denoise > 0 {
		out = imaging.Blur(out, o.Denoise)
	}
	if o.Grayscale {
		out = imaging.Grayscale(out)
	}
	if o.Gamma > 0 && o.Gamma != 1 {
		out = imaging.AdjustGamma(out, o.Gamma)
	}
	if o.Brightness != 0 {
		out = imaging.AdjustBrightness(out, o.Brightness)
	}
	if o.Contrast != 0 {
		out = imaging.AdjustContrast(out, o.Contrast)
	}
	if o.Sharpen > 0 {
		out = imaging.Sharpen(out, o.Sharpen)
	}
	if o.Threshold > 0 {
		out = binarize(out, uint8(o.Threshold))
	}
	if o.Invert {
		out = imaging.Invert(out)
	}
	return out
}

func binarize(img image.Image, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		// Rec. 601 luma, same weights as imaging.Grayscale
		y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		v := uint8(0)
		if y >= float64(threshold) {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
