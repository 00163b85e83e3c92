package request

import (
	"fmt"
	"mime/multipart"
	"net/url"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/imageproc"
)

const (
	EnhanceDefault = "default" // preprocess section of the config
	EnhanceCustom  = "custom"  // the option fields of the form
	EnhanceNone    = "none"
)

type UploadDocument struct {
	File    *multipart.FileHeader `form:"file"` // preferred over url
	URL     string                `form:"url"`
	Pages   string                `form:"pages"` // e.g. "1-3,5", empty for all
	Enhance string                `form:"enhance"`
	imageproc.Options
}

// optionFields are the form keys of imageproc.Options.
var optionFields = []string{
	"auto_orient", "grayscale", "contrast", "brightness", "gamma",
	"sharpen", "denoise", "threshold", "invert", "max_dimension",
}

// DetectEnhance switches an omitted enhance to custom when any option field
// was sent, so those fields are validated and applied.
func (u *UploadDocument) DetectEnhance(form url.Values) {
	if u.Enhance != "" {
		return
	}
	for _, k := range optionFields {
		if _, ok := form[k]; ok {
			u.Enhance = EnhanceCustom
			return
		}
	}
}

func (u *UploadDocument) Valid() error {
	if u.File == nil && u.URL == "" {
		return fmt.Errorf("must fill file or url")
	}
	switch u.Enhance {
	case "", EnhanceDefault, EnhanceCustom, EnhanceNone:
	default:
		return fmt.Errorf("invalid enhance: %s, must be default, custom or none", u.Enhance)
	}
	if u.Enhance == EnhanceCustom {
		return u.Options.Valid()
	}
	return nil
}

func (u *UploadDocument) FullWithDefault(c *config.Config) {
	if u.Enhance == "" {
		u.Enhance = EnhanceDefault
	}
	switch u.Enhance {
	case EnhanceDefault:
		u.Options = imageproc.FromConfig(c.Preprocess)
	case EnhanceNone:
		u.Options = imageproc.Options{AutoOrient: true}
	}
}

type DocumentQuery struct {
	Id int `form:"id"`
}

func (q *DocumentQuery) Valid() error {
	if q.Id <= 0 {
		return fmt.Errorf("invalid id: %d", q.Id)
	}
	return nil
}

type PageQuery struct {
	DocumentId int  `form:"document_id"`
	Index      int  `form:"index"`
	Thumbnail  bool `form:"thumbnail"`
}

func (q *PageQuery) Valid() error {
	if q.DocumentId <= 0 {
		return fmt.Errorf("invalid document_id: %d", q.DocumentId)
	}
	if q.Index <= 0 {
		return fmt.Errorf("invalid index: %d, pages start at 1", q.Index)
	}
	return nil
}
