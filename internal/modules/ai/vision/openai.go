package vision

import (
	"bytes"
	"context"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/http_client"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/tools"
)

const chatCompletionsPath = "v1/chat/completions"

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ChatContent `json:"content"`
}

type ChatContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// NewChatCompletionRequest lays out system, history, then the question with
// every page image attached to the final user message.
func NewChatCompletionRequest(supplierModel string, r Request) *ChatCompletionRequest {
	ret := &ChatCompletionRequest{
		Model:       supplierModel,
		Stream:      r.Stream,
		Temperature: r.Temperature,
	}
	if r.System != "" {
		ret.Messages = append(ret.Messages, ChatMessage{
			Role:    "system",
			Content: []ChatContent{{Type: "text", Text: r.System}},
		})
	}
	for _, m := range r.History {
		ret.Messages = append(ret.Messages, ChatMessage{
			Role:    m.Role,
			Content: []ChatContent{{Type: "text", Text: m.Text}},
		})
	}
	user := ChatMessage{
		Role:    "user",
		Content: []ChatContent{{Type: "text", Text: r.Prompt}},
	}
	for _, img := range r.Images {
		user.Content = append(user.Content, ChatContent{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: img.DataURL()},
		})
	}
	ret.Messages = append(ret.Messages, user)
	return ret
}

func (c *ChatCompletionRequest) Body() ([]byte, error) {
	return jsoniter.Marshal(c)
}

// SyncRequester performs one chat completion call with one token.
type SyncRequester struct {
	ctx        context.Context
	token      ai.TokenWithModel
	baseURL    string
	Request    *ChatCompletionRequest
	Parser     Parser
	AnalysisID int
}

func NewRequester(ctx context.Context, token ai.TokenWithModel, baseURL string, request *ChatCompletionRequest) *SyncRequester {
	var parser Parser = &ChatParser{}
	if request.Stream {
		parser = &StreamParser{}
	}
	if baseURL == "" {
		baseURL = token.GetSupplier().BaseURL()
	}
	return &SyncRequester{
		ctx:     ctx,
		token:   token,
		baseURL: baseURL,
		Request: request,
		Parser:  parser,
	}
}

func (r *SyncRequester) SetAnalysisID(id int) *SyncRequester {
	r.AnalysisID = id
	return r
}

func (r *SyncRequester) Do() Response {
	ret := NewBaseResponse(r.token.Supplier.String(), r.token.Desc, r.token.Model)
	ret.SetAnalysisID(r.AnalysisID)

	// long documents take minutes on the slower suppliers
	client := http_client.NewWithTimeout(6 * time.Minute)
	body, err := r.Request.Body()
	if err != nil {
		ret.SetError(err)
		return ret
	}
	req, err := client.NewRequest(
		http.MethodPost,
		tools.FullURL(r.baseURL, chatCompletionsPath),
		http_client.WithHeader("Authorization", "Bearer "+r.token.Token.Token),
		http_client.WithHeader("Content-Type", "application/json"),
		http_client.WithBody(bytes.NewReader(body)),
		http_client.WithContext(r.ctx),
	)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	reqAt := time.Now()
	resp, err := client.Do(req)
	respAt := time.Now()
	ret.SetReqAt(reqAt)
	ret.SetRespAt(respAt)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	defer resp.Body.Close()
	logs.Logger.Info().
		Int("analysis_id", r.AnalysisID).
		Str("supplier", r.token.Supplier.String()).
		Str("token_desc", r.token.Desc).
		Str("model", r.token.Model).
		Str("method", req.Method).
		Int("status_code", resp.StatusCode).
		Dur("req_consume_ms", respAt.Sub(reqAt)).
		Msg("vision request")
	if err = r.Parser.Parse(resp, ret); err != nil {
		ret.SetError(err)
	}
	ret.SetRespAt(time.Now())
	return ret
}
