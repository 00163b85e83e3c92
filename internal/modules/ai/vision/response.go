package vision

import (
	"net/http"
	"strings"
	"time"
)

type Response interface {
	GetModel() string
	GetSupplier() string
	GetTokenDesc() string
	GetStatusCode() int
	GetRespBody() string
	GetText() string
	GetReqAt() time.Time
	GetRespAt() time.Time
	ReqConsumeMs() int64
	GetAnalysisID() int
	Succeed() bool
	GetError() error // is nil if Succeed() return true

	SetBasicResponse(statusCode int, respBody string)
	SetReqAt(reqAt time.Time)
	SetRespAt(respAt time.Time)
	SetText(text string)
	SetError(err error)
	SetAnalysisID(id int)
}

type BaseResponse struct {
	Supplier   string    `json:"supplier"`
	TokenDesc  string    `json:"token_desc"`
	Model      string    `json:"model"`
	StatusCode int       `json:"status_code"`
	RespBody   string    `json:"resp_body"`
	Text       string    `json:"text"`
	ReqAt      time.Time `json:"req_at"`
	RespAt     time.Time `json:"resp_at"`
	Error      error     `json:"-"`
	AnalysisID int       `json:"analysis_id"`
}

func NewBaseResponse(supplier, tokenDesc, model string) *BaseResponse {
	return &BaseResponse{Supplier: supplier, TokenDesc: tokenDesc, Model: model}
}

func (r *BaseResponse) GetSupplier() string  { return r.Supplier }
func (r *BaseResponse) GetTokenDesc() string { return r.TokenDesc }
func (r *BaseResponse) GetModel() string     { return r.Model }
func (r *BaseResponse) GetStatusCode() int   { return r.StatusCode }
func (r *BaseResponse) GetRespBody() string  { return r.RespBody }
func (r *BaseResponse) GetText() string      { return r.Text }
func (r *BaseResponse) GetReqAt() time.Time  { return r.ReqAt }
func (r *BaseResponse) GetRespAt() time.Time { return r.RespAt }
func (r *BaseResponse) GetAnalysisID() int   { return r.AnalysisID }
func (r *BaseResponse) GetError() error      { return r.Error }
func (r *BaseResponse) ReqConsumeMs() int64  { return r.RespAt.Sub(r.ReqAt).Milliseconds() }
func (r *BaseResponse) Succeed() bool {
	return r.Error == nil && r.StatusCode == http.StatusOK && strings.TrimSpace(r.Text) != ""
}

func (r *BaseResponse) SetBasicResponse(statusCode int, respBody string) {
	r.StatusCode = statusCode
	r.RespBody = respBody
}
func (r *BaseResponse) SetReqAt(reqAt time.Time)   { r.ReqAt = reqAt }
func (r *BaseResponse) SetRespAt(respAt time.Time) { r.RespAt = respAt }
func (r *BaseResponse) SetText(text string)        { r.Text = text }
func (r *BaseResponse) SetError(err error)         { r.Error = err }
func (r *BaseResponse) SetAnalysisID(id int)       { r.AnalysisID = id }

// FailedRespBody is the body kept for the invocation history, truncated to fit the column.
func FailedRespBody(r Response) string {
	if r.Succeed() {
		return ""
	}
	body := r.GetRespBody()
	if body == "" && r.GetError() != nil {
		body = r.GetError().Error()
	}
	if len(body) > 2000 {
		body = body[:2000]
	}
	return body
}
