package vision

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/doc-hub/internal/modules/logs"
)

type Parser interface {
	Parse(resp *http.Response, response Response) error
}

var (
	ErrPolicy      = errors.New("request rejected by the supplier content policy")
	ErrEmptyAnswer = errors.New("model returned no text")
	ErrStatusCode  = errors.New("http status code is not 200")
)

// policyPhrases are matched case-insensitively against failed bodies.
var policyPhrases = []string{
	"content_policy_violation",
	"not allowed by our safety system",
	"violates our usage policies",
	"违反",
	"blocked due to safety",
	"prohibited_content",
}

func DetectError(response Response, body string) error {
	if response.Succeed() {
		return nil
	}
	lower := strings.ToLower(body)
	for _, phrase := range policyPhrases {
		if strings.Contains(lower, phrase) {
			return ErrPolicy
		}
	}
	if response.GetStatusCode() != http.StatusOK {
		return ErrStatusCode
	}
	if strings.TrimSpace(response.GetText()) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

func ShouldBanToken(response Response) bool {
	c := response.GetStatusCode()
	return c >= 500 && c < 600
}

// readFailedBody reads a non-200 body with a deadline; some suppliers keep
// the connection open for minutes after an error status.
func readFailedBody(resp *http.Response) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*90)
	defer cancel()
	type result struct {
		data []byte
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(resp.Body)
		resultCh <- result{data: data, err: err}
	}()
	select {
	case res := <-resultCh:
		return res.data, res.err
	case <-ctx.Done():
		return nil, nil
	}
}

// ChatParser reads a non-streaming chat completion.
type ChatParser struct{}

func (c *ChatParser) Parse(resp *http.Response, response Response) error {
	if resp.StatusCode != http.StatusOK {
		body, err := readFailedBody(resp)
		if err != nil {
			return err
		}
		response.SetBasicResponse(resp.StatusCode, string(body))
		response.SetError(DetectError(response, string(body)))
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	response.SetBasicResponse(resp.StatusCode, string(body))
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := jsoniter.Unmarshal(body, &chatResp); err != nil {
		logs.Logger.Warn().Err(err).Int("analysis_id", response.GetAnalysisID()).
			Str("supplier", response.GetSupplier()).Msg("chat response is not json")
	} else if len(chatResp.Choices) > 0 {
		response.SetText(strings.TrimSpace(chatResp.Choices[0].Message.Content))
		if chatResp.Choices[0].FinishReason == "content_filter" && response.GetText() == "" {
			response.SetError(ErrPolicy)
			return nil
		}
	}
	if !response.Succeed() {
		logWarn(resp, response, string(body), "vision resp error")
		response.SetError(DetectError(response, string(body)))
	}
	return nil
}

// StreamParser accumulates delta contents of a server-sent-events stream.
type StreamParser struct{}

func (s *StreamParser) extractContent(chunk []byte) (string, bool) {
	var chatResp struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := jsoniter.Unmarshal(chunk, &chatResp); err != nil {
		logs.Logger.Debug().Err(err).Str("chunk", string(chunk)).Msg("failed to parse sse chunk")
		return "", false
	}
	if len(chatResp.Choices) == 0 {
		return "", false
	}
	return chatResp.Choices[0].Delta.Content, true
}

func (s *StreamParser) Parse(resp *http.Response, response Response) error {
	if resp.StatusCode != http.StatusOK {
		body, err := readFailedBody(resp)
		if err != nil {
			return err
		}
		response.SetBasicResponse(resp.StatusCode, string(body))
		response.SetError(DetectError(response, string(body)))
		return nil
	}
	var content strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// event:, id:, retry: and blank separators
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		if chunk, ok := s.extractContent([]byte(data)); ok {
			content.WriteString(chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		logs.Logger.Error().Err(err).Int("analysis_id", response.GetAnalysisID()).Msg("error reading sse stream")
		return err
	}
	text := content.String()
	response.SetBasicResponse(resp.StatusCode, text)
	response.SetText(strings.TrimSpace(text))
	if !response.Succeed() {
		logWarn(resp, response, text, "stream vision resp error")
		response.SetError(DetectError(response, text))
	}
	return nil
}

func logWarn(resp *http.Response, response Response, body, msg string) {
	ev := logs.Logger.Warn().
		Int("analysis_id", response.GetAnalysisID()).
		Str("supplier", response.GetSupplier()).
		Str("token_desc", response.GetTokenDesc()).
		Str("model", response.GetModel()).
		Int("status_code", resp.StatusCode).
		Str("body", body)
	if resp.Request != nil && resp.Request.URL != nil {
		ev = ev.Str("path", resp.Request.URL.Path).Str("method", resp.Request.Method)
	}
	ev.Msg(msg)
}
