package vision

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request: &http.Request{
			URL:    &url.URL{Path: "/v1/chat/completions"},
			Method: http.MethodPost,
		},
	}
}

func TestChatParser_Parse(t *testing.T) {
	parser := &ChatParser{}

	t.Run("answer", func(t *testing.T) {
		body := `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "  The invoice total is 42.00 EUR.\n"},
				"finish_reason": "stop"
			}]
		}`
		response := NewBaseResponse("geek", "balance_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(200, body), response))
		require.True(t, response.Succeed())
		require.Equal(t, "The invoice total is 42.00 EUR.", response.Text)
		require.NoError(t, response.GetError())
	})

	t.Run("empty answer", func(t *testing.T) {
		body := `{"choices":[{"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`
		response := NewBaseResponse("geek", "balance_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(200, body), response))
		require.False(t, response.Succeed())
		require.ErrorIs(t, response.GetError(), ErrEmptyAnswer)
	})

	t.Run("content filter", func(t *testing.T) {
		body := `{"choices":[{"message":{"role":"assistant","content":""},"finish_reason":"content_filter"}]}`
		response := NewBaseResponse("v3", "token", "gpt-4o")
		require.NoError(t, parser.Parse(newHTTPResponse(200, body), response))
		require.ErrorIs(t, response.GetError(), ErrPolicy)
	})

	t.Run("policy rejection", func(t *testing.T) {
		body := `{"error":{"code":"content_policy_violation","message":"Your request was rejected"}}`
		response := NewBaseResponse("v3", "token", "gpt-4o")
		require.NoError(t, parser.Parse(newHTTPResponse(400, body), response))
		require.Equal(t, 400, response.StatusCode)
		require.ErrorIs(t, response.GetError(), ErrPolicy)
		require.False(t, ShouldBanToken(response))
	})

	t.Run("bad gateway", func(t *testing.T) {
		response := NewBaseResponse("tuzi", "default_channel_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(502, "bad gateway"), response))
		require.ErrorIs(t, response.GetError(), ErrStatusCode)
		require.True(t, ShouldBanToken(response))
		require.Equal(t, "bad gateway", FailedRespBody(response))
	})
}

func TestStreamParser_Parse(t *testing.T) {
	parser := &StreamParser{}

	t.Run("chunks", func(t *testing.T) {
		stream := strings.Join([]string{
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"Page 1 shows "}}]}`,
			`: keep-alive`,
			`data: {"choices":[{"delta":{"content":"a receipt."}}]}`,
			`data: not json`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		}, "\n") + "\n"
		response := NewBaseResponse("geek", "balance_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(200, stream), response))
		require.True(t, response.Succeed())
		require.Equal(t, "Page 1 shows a receipt.", response.Text)
	})

	t.Run("no content", func(t *testing.T) {
		stream := "data: {\"choices\":[]}\n\ndata: [DONE]\n"
		response := NewBaseResponse("geek", "balance_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(200, stream), response))
		require.False(t, response.Succeed())
		require.ErrorIs(t, response.GetError(), ErrEmptyAnswer)
	})

	t.Run("error status", func(t *testing.T) {
		response := NewBaseResponse("geek", "balance_token", "gemini-2.5-flash")
		require.NoError(t, parser.Parse(newHTTPResponse(503, `{"error":"overloaded"}`), response))
		require.ErrorIs(t, response.GetError(), ErrStatusCode)
	})
}

func TestFailedRespBody(t *testing.T) {
	response := NewBaseResponse("geek", "t", "m")
	response.SetBasicResponse(500, strings.Repeat("x", 3000))
	require.Len(t, FailedRespBody(response), 2000)

	response = NewBaseResponse("geek", "t", "m")
	response.SetBasicResponse(200, "ok")
	response.SetText("answer")
	require.Equal(t, "", FailedRespBody(response))
}
