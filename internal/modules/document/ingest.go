package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/consts"
	"github.com/reusedev/doc-hub/internal/modules/dao"
	"github.com/reusedev/doc-hub/internal/modules/imageproc"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/pdf"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/reusedev/doc-hub/tools"
	"golang.org/x/sync/errgroup"
)

var ErrEmpty = errors.New("empty upload")

var createDocument = dao.CreateDocument

type Upload struct {
	Name    string
	Data    []byte
	Options imageproc.Options
	// Pages selects PDF pages, e.g. "1-3,5"; empty means all.
	Pages string
}

// renderedPage is a processed page ready to be stored.
type renderedPage struct {
	Index     int
	JPEG      []byte
	Thumbnail []byte
	Width     int
	Height    int
	TextLayer string
}

type prepared struct {
	Kind      consts.DocumentKind
	MimeType  string
	PageCount int
	Pages     []renderedPage
}

// Ingest processes the upload into page images, stores them and records the document.
func Ingest(ctx context.Context, u Upload) (*model.Document, error) {
	p, err := prepare(ctx, u, config.GConfig.PDF)
	if err != nil {
		return nil, err
	}
	doc, err := store(ctx, storage.Default(), u, p)
	if err != nil {
		return nil, err
	}
	if err = createDocument(doc); err != nil {
		cleanup(storage.Default(), doc)
		return nil, fmt.Errorf("create document: %w", err)
	}
	logs.Logger.Info().
		Int("document_id", doc.Id).
		Str("kind", doc.Kind).
		Int("page_count", doc.PageCount).
		Int("stored_pages", len(doc.Pages)).
		Msg("document ingested")
	return doc, nil
}

func prepare(ctx context.Context, u Upload, c config.PDF) (*prepared, error) {
	if len(u.Data) == 0 {
		return nil, ErrEmpty
	}
	if err := pdf.CheckSize(u.Data, c.MaxBytes); err != nil {
		return nil, err
	}
	if err := u.Options.Valid(); err != nil {
		return nil, err
	}
	if tools.IsPDF(u.Data) {
		return preparePDF(ctx, u, c)
	}
	return prepareImage(ctx, u)
}

func preparePDF(ctx context.Context, u Upload, c config.PDF) (*prepared, error) {
	info, err := pdf.Inspect(u.Data)
	if err != nil {
		return nil, err
	}
	indexes, err := pdf.ParsePageRange(u.Pages, info.PageCount)
	if err != nil {
		return nil, err
	}
	if err = pdf.Limit(indexes, c.MaxPages); err != nil {
		return nil, err
	}
	rendered, err := pdf.Render(ctx, u.Data, indexes, c.DPI)
	if err != nil {
		return nil, err
	}
	pages, err := processPages(ctx, rendered, u.Options)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if idx := pages[i].Index - 1; idx < len(info.TextLayer) {
			pages[i].TextLayer = info.TextLayer[idx]
		}
	}
	return &prepared{
		Kind:      consts.DocumentKindPDF,
		MimeType:  "application/pdf",
		PageCount: info.PageCount,
		Pages:     pages,
	}, nil
}

func prepareImage(ctx context.Context, u Upload) (*prepared, error) {
	if u.Pages != "" {
		if _, err := pdf.ParsePageRange(u.Pages, 1); err != nil {
			return nil, err
		}
	}
	img, err := imageproc.Decode(u.Data, u.Options.AutoOrient)
	if err != nil {
		return nil, err
	}
	pages, err := processPages(ctx, []pdf.Page{{Index: 1, Image: img}}, u.Options)
	if err != nil {
		return nil, err
	}
	return &prepared{
		Kind:      consts.DocumentKindImage,
		MimeType:  tools.DetectImageType(u.Data).MimeType(),
		PageCount: 1,
		Pages:     pages,
	}, nil
}

func processPages(ctx context.Context, pages []pdf.Page, o imageproc.Options) ([]renderedPage, error) {
	ret := make([]renderedPage, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := processPage(p.Image, o)
			if err != nil {
				return fmt.Errorf("page %d: %w", p.Index, err)
			}
			r.Index = p.Index
			ret[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

func processPage(img image.Image, o imageproc.Options) (renderedPage, error) {
	out := imageproc.Process(img, o)
	b, err := imageproc.EncodeJPEG(out, consts.PageJPEGQuality)
	if err != nil {
		return renderedPage{}, err
	}
	thumb, err := tools.Thumbnail(bytes.NewReader(b), consts.ThumbnailRatio, imaging.JPEG)
	if err != nil {
		return renderedPage{}, fmt.Errorf("thumbnail: %w", err)
	}
	thumbBuf := new(bytes.Buffer)
	if _, err = thumbBuf.ReadFrom(thumb); err != nil {
		return renderedPage{}, err
	}
	bounds := out.Bounds()
	return renderedPage{
		JPEG:      b,
		Thumbnail: thumbBuf.Bytes(),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

func store(ctx context.Context, s storage.Storage, u Upload, p *prepared) (*model.Document, error) {
	options, err := jsoniter.MarshalToString(u.Options)
	if err != nil {
		return nil, err
	}
	key, err := s.Upload(u.Name, bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("upload original: %w", err)
	}
	doc := &model.Document{
		Uuid:                uuid.New().String(),
		Name:                u.Name,
		Kind:                p.Kind.String(),
		MimeType:            p.MimeType,
		Size:                int64(len(u.Data)),
		PageCount:           p.PageCount,
		StorageSupplierName: s.Name(),
		Key:                 key,
		Options:             options,
		Pages:               make([]model.Page, len(p.Pages)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, rp := range p.Pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pageKey, err := s.UploadImage(rp.JPEG)
			if err != nil {
				return fmt.Errorf("upload page %d: %w", rp.Index, err)
			}
			thumbKey, err := s.UploadImage(rp.Thumbnail)
			if err != nil {
				return fmt.Errorf("upload thumbnail %d: %w", rp.Index, err)
			}
			doc.Pages[i] = model.Page{
				Index:        rp.Index,
				Key:          pageKey,
				ThumbnailKey: thumbKey,
				Width:        rp.Width,
				Height:       rp.Height,
				TextLayer:    rp.TextLayer,
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		cleanup(s, doc)
		return nil, err
	}
	sort.Slice(doc.Pages, func(i, j int) bool { return doc.Pages[i].Index < doc.Pages[j].Index })
	return doc, nil
}

// cleanup removes every object stored for doc so a failed ingest leaves no orphans.
func cleanup(s storage.Storage, doc *model.Document) {
	keys := []string{doc.Key}
	for _, p := range doc.Pages {
		keys = append(keys, p.Key, p.ThumbnailKey)
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := storage.Remove(s, key); err != nil {
			logs.Logger.Warn().Err(err).Str("key", key).Msg("remove stored object failed")
		}
	}
}
