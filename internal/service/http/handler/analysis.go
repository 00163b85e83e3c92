package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/reusedev/doc-hub/internal/modules/analysis"
	"github.com/reusedev/doc-hub/internal/modules/dao"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/pdf"
	"github.com/reusedev/doc-hub/internal/modules/queue"
	"github.com/reusedev/doc-hub/internal/service/http/handler/request"
	"github.com/reusedev/doc-hub/internal/service/http/handler/response"
	"gorm.io/gorm"
)

func CreateAnalysis(c *gin.Context) {
	req := request.CreateAnalysis{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := req.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	a, err := analysis.Submit(c.Request.Context(), req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, response.NotFound)
		case errors.Is(err, analysis.ErrEmptyPrompt), errors.Is(err, analysis.ErrPromptTooLong),
			errors.Is(err, analysis.ErrUnknownModel), errors.Is(err, analysis.ErrPageNotFound),
			errors.Is(err, pdf.ErrTooManyPages):
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		case errors.Is(err, queue.ErrQueueFull):
			c.JSON(http.StatusTooManyRequests, response.TooManyRequestsWithMessage(err.Error()))
		default:
			logs.Logger.Err(err).Int("document_id", req.DocumentId).Msg("analysis-CreateAnalysis")
			c.JSON(http.StatusInternalServerError, response.InternalError)
		}
		return
	}
	ret, err := analysisResponse(a)
	if err != nil {
		logs.Logger.Err(err).Msg("analysis-CreateAnalysis")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(ret))
}

func GetAnalysis(c *gin.Context) {
	query := request.AnalysisQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := query.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	a, err := dao.AnalysisById(query.Id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound)
			return
		}
		logs.Logger.Err(err).Int("analysis_id", query.Id).Msg("analysis-GetAnalysis")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	ret, err := analysisResponse(&a)
	if err != nil {
		logs.Logger.Err(err).Msg("analysis-GetAnalysis")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(ret))
}

func analysisResponse(a *model.Analysis) (*response.Analysis, error) {
	ret := &response.Analysis{}
	if err := copier.Copy(ret, a); err != nil {
		return nil, err
	}
	ret.PageIndexes = a.PageIndexes()
	ret.Finished = a.Finished()
	return ret, nil
}

func SessionHistory(c *gin.Context) {
	query := request.SessionQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := query.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	src := analysis.Sessions.Turns(query.SessionId)
	turns := make([]response.Turn, 0, len(src))
	if len(src) > 0 {
		if err := copier.Copy(&turns, src); err != nil {
			logs.Logger.Err(err).Msg("analysis-SessionHistory")
			c.JSON(http.StatusInternalServerError, response.InternalError)
			return
		}
	}
	c.JSON(http.StatusOK, response.SuccessWithData(turns))
}

func ResetSession(c *gin.Context) {
	query := request.SessionQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := query.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	analysis.Sessions.Reset(query.SessionId)
	c.JSON(http.StatusOK, response.SuccessWithData(nil))
}
