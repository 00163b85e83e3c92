package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/dao"
	"github.com/reusedev/doc-hub/internal/modules/document"
	"github.com/reusedev/doc-hub/internal/modules/imageproc"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/pdf"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/reusedev/doc-hub/internal/service/http/handler/request"
	"github.com/reusedev/doc-hub/internal/service/http/handler/response"
	"github.com/reusedev/doc-hub/tools"
	"gorm.io/gorm"
)

// ingestErrors are caused by the upload itself and reported back as param errors.
var ingestErrors = []error{
	document.ErrEmpty,
	pdf.ErrInvalidPDF,
	pdf.ErrEncrypted,
	pdf.ErrTooLarge,
	pdf.ErrPageRange,
	pdf.ErrTooManyPages,
	imageproc.ErrUnsupportedImage,
	imageproc.ErrInvalidOptions,
}

func isIngestError(err error) bool {
	for _, e := range ingestErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func UploadDocument(c *gin.Context) {
	form := request.UploadDocument{}
	err := c.ShouldBind(&form)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	form.DetectEnhance(c.Request.Form)
	if err = form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	form.FullWithDefault(config.GConfig)

	upload := document.Upload{Options: form.Options, Pages: form.Pages}
	maxBytes := config.GConfig.PDF.MaxBytes
	if form.File != nil {
		if maxBytes > 0 && form.File.Size > maxBytes {
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(pdf.ErrTooLarge.Error()))
			return
		}
		f, err := form.File.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ParamError)
			return
		}
		defer f.Close()
		upload.Name = form.File.Filename
		upload.Data, err = io.ReadAll(f)
		if err != nil {
			logs.Logger.Err(err).Msg("document-UploadDocument")
			c.JSON(http.StatusInternalServerError, response.InternalError)
			return
		}
	} else {
		upload.Data, upload.Name, err = tools.GetOnlineFile(c.Request.Context(), form.URL, maxBytes)
		if err != nil {
			logs.Logger.Warn().Err(err).Str("url", form.URL).Msg("document-UploadDocument")
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("download url: "+err.Error()))
			return
		}
	}

	doc, err := document.Ingest(c.Request.Context(), upload)
	if err != nil {
		if isIngestError(err) {
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
			return
		}
		logs.Logger.Err(err).Str("name", upload.Name).Msg("document-UploadDocument")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	ret, err := documentResponse(doc)
	if err != nil {
		logs.Logger.Err(err).Msg("document-UploadDocument")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(ret))
}

func GetDocument(c *gin.Context) {
	query := request.DocumentQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := query.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	doc, err := dao.DocumentById(query.Id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound)
			return
		}
		logs.Logger.Err(err).Int("document_id", query.Id).Msg("document-GetDocument")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	ret, err := documentResponse(&doc)
	if err != nil {
		logs.Logger.Err(err).Msg("document-GetDocument")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(ret))
}

func GetPage(c *gin.Context) {
	query := request.PageQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := query.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	page, err := dao.PageByIndex(query.DocumentId, query.Index)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound)
			return
		}
		logs.Logger.Err(err).Int("document_id", query.DocumentId).Msg("document-GetPage")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	key := page.Key
	if query.Thumbnail {
		key = page.ThumbnailKey
	}
	u, err := storage.SignedURL(key, config.GConfig.URLExpiresDuration())
	if err != nil {
		logs.Logger.Err(err).Str("key", key).Msg("document-GetPage")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(response.PageURL{DocumentId: query.DocumentId, Index: query.Index, URL: u}))
}

func documentResponse(doc *model.Document) (*response.Document, error) {
	ret := &response.Document{}
	if err := copier.Copy(ret, doc); err != nil {
		return nil, err
	}
	expire := config.GConfig.URLExpiresDuration()
	var err error
	if ret.URL, err = storage.SignedURL(doc.Key, expire); err != nil {
		return nil, err
	}
	for i, p := range doc.Pages {
		if ret.Pages[i].URL, err = storage.SignedURL(p.Key, expire); err != nil {
			return nil, err
		}
		if ret.Pages[i].ThumbnailURL, err = storage.SignedURL(p.ThumbnailKey, expire); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
