package vision

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"google.golang.org/genai"
)

// GeminiRequester calls the Gemini API directly instead of going through an
// OpenAI-compatible relay.
type GeminiRequester struct {
	ctx        context.Context
	token      ai.TokenWithModel
	baseURL    string
	request    Request
	AnalysisID int
}

func NewGeminiRequester(ctx context.Context, token ai.TokenWithModel, baseURL string, request Request) *GeminiRequester {
	return &GeminiRequester{ctx: ctx, token: token, baseURL: baseURL, request: request}
}

func (g *GeminiRequester) SetAnalysisID(id int) *GeminiRequester {
	g.AnalysisID = id
	return g
}

// GeminiContents converts history and the question into Gemini contents;
// assistant turns use the "model" role.
func GeminiContents(r Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(r.History)+1)
	for _, m := range r.History {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Text}},
		})
	}
	parts := []*genai.Part{{Text: r.Prompt}}
	for _, img := range r.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: img.Bytes, MIMEType: img.MimeType}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: parts})
	return contents
}

func (g *GeminiRequester) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: g.request.Temperature}
	if g.request.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.request.System}}}
	}
	return cfg
}

func (g *GeminiRequester) Do() Response {
	ret := NewBaseResponse(g.token.Supplier.String(), g.token.Desc, g.token.Model)
	ret.SetAnalysisID(g.AnalysisID)

	clientConfig := &genai.ClientConfig{
		APIKey:  g.token.Token.Token,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		clientConfig.HTTPOptions.BaseURL = g.baseURL
	}
	client, err := genai.NewClient(g.ctx, clientConfig)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	reqAt := time.Now()
	resp, err := client.Models.GenerateContent(g.ctx, g.token.Model, GeminiContents(g.request), g.generateConfig())
	respAt := time.Now()
	ret.SetReqAt(reqAt)
	ret.SetRespAt(respAt)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			ret.SetBasicResponse(apiErr.Code, apiErr.Message)
			ret.SetError(DetectError(ret, apiErr.Message))
		} else {
			ret.SetError(err)
		}
		logs.Logger.Warn().Err(err).Int("analysis_id", g.AnalysisID).
			Str("supplier", g.token.Supplier.String()).Str("model", g.token.Model).
			Msg("gemini request failed")
		return ret
	}
	logs.Logger.Info().
		Int("analysis_id", g.AnalysisID).
		Str("supplier", g.token.Supplier.String()).
		Str("token_desc", g.token.Desc).
		Str("model", g.token.Model).
		Dur("req_consume_ms", respAt.Sub(reqAt)).
		Msg("vision request")
	parseGemini(resp, ret)
	return ret
}

func parseGemini(resp *genai.GenerateContentResponse, ret Response) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		ret.SetBasicResponse(http.StatusOK, string(resp.PromptFeedback.BlockReason))
		ret.SetError(ErrPolicy)
		return
	}
	var text strings.Builder
	var finish string
	if len(resp.Candidates) > 0 {
		c := resp.Candidates[0]
		finish = string(c.FinishReason)
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p != nil {
					text.WriteString(p.Text)
				}
			}
		}
	}
	ret.SetBasicResponse(http.StatusOK, text.String())
	ret.SetText(strings.TrimSpace(text.String()))
	if ret.Succeed() {
		return
	}
	if finish == "SAFETY" || finish == "PROHIBITED_CONTENT" || finish == "BLOCKLIST" {
		ret.SetError(ErrPolicy)
		return
	}
	ret.SetError(DetectError(ret, text.String()))
}
