package http

import (
	"bytes"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/analysis"
	"github.com/reusedev/doc-hub/internal/modules/history"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, modify func(c *config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c := config.Default()
	c.LocalStorage.Directory = t.TempDir()
	c.DefaultModel = "gemini-2.5-flash"
	c.ClientRateLimit.RPS = 1000
	c.ClientRateLimit.Burst = 1000
	if modify != nil {
		modify(c)
	}
	config.GConfig = c
	ai.GTokenManager = map[string]*ai.TokenManager{"gemini-2.5-flash": ai.NewTokenManager(nil)}
	require.NoError(t, storage.Init(c))
	analysis.Init(c)

	e := gin.New()
	initRouter(e, c)
	return e
}

func do(e *gin.Engine, method, url, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func code(t *testing.T, w *httptest.ResponseRecorder) int {
	return jsoniter.Get(w.Body.Bytes(), "code").ToInt()
}

func TestIndex(t *testing.T) {
	e := newTestEngine(t, nil)
	w := do(e, stdhttp.MethodGet, "/", "", nil)
	require.Equal(t, stdhttp.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<title>doc-hub</title>")
	require.Contains(t, w.Body.String(), `<option value="gemini-2.5-flash" selected>`)
}

func TestParamErrors(t *testing.T) {
	e := newTestEngine(t, nil)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("pages", "1"))
	require.NoError(t, mw.Close())

	// option fields without enhance are still validated
	var badOption bytes.Buffer
	mw2 := multipart.NewWriter(&badOption)
	fw, err := mw2.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, mw2.WriteField("threshold", "300"))
	require.NoError(t, mw2.Close())

	tests := []struct {
		name        string
		method      string
		url         string
		contentType string
		body        string
	}{
		{"upload without file or url", stdhttp.MethodPost, "/v1/documents", mw.FormDataContentType(), form.String()},
		{"upload option out of range", stdhttp.MethodPost, "/v1/documents", mw2.FormDataContentType(), badOption.String()},
		{"document id", stdhttp.MethodGet, "/v1/documents?id=0", "", ""},
		{"document id not a number", stdhttp.MethodGet, "/v1/documents?id=abc", "", ""},
		{"page index", stdhttp.MethodGet, "/v1/documents/pages?document_id=1&index=0", "", ""},
		{"analysis document", stdhttp.MethodPost, "/v1/analyses", "application/json", `{"prompt":"hi"}`},
		{"analysis prompt", stdhttp.MethodPost, "/v1/analyses", "application/json", `{"document_id":1,"prompt":" "}`},
		{"analysis model", stdhttp.MethodPost, "/v1/analyses", "application/json", `{"document_id":1,"prompt":"hi","model":"nope"}`},
		{"analysis page", stdhttp.MethodPost, "/v1/analyses", "application/json", `{"document_id":1,"prompt":"hi","pages":[0]}`},
		{"analysis json", stdhttp.MethodPost, "/v1/analyses", "application/json", `{`},
		{"analysis id", stdhttp.MethodGet, "/v1/analyses", "", ""},
		{"session", stdhttp.MethodGet, "/v1/sessions/history", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(e, tt.method, tt.url, tt.contentType, []byte(tt.body))
			require.Equal(t, stdhttp.StatusBadRequest, w.Code)
			require.Equal(t, 10001, code(t, w))
		})
	}
}

func TestSessionHistory(t *testing.T) {
	e := newTestEngine(t, nil)
	analysis.Sessions.Append("s1",
		history.Turn{Role: history.RoleUser, Text: "what is it?"},
		history.Turn{Role: history.RoleAssistant, Text: "an invoice"},
	)

	w := do(e, stdhttp.MethodGet, "/v1/sessions/history?session_id=s1", "", nil)
	require.Equal(t, stdhttp.StatusOK, w.Code)
	require.Equal(t, 0, code(t, w))
	require.Equal(t, 2, jsoniter.Get(w.Body.Bytes(), "data").Size())
	require.Equal(t, "an invoice", jsoniter.Get(w.Body.Bytes(), "data", 1, "text").ToString())

	w = do(e, stdhttp.MethodDelete, "/v1/sessions/history?session_id=s1", "", nil)
	require.Equal(t, stdhttp.StatusOK, w.Code)

	w = do(e, stdhttp.MethodGet, "/v1/sessions/history?session_id=s1", "", nil)
	require.Equal(t, 0, jsoniter.Get(w.Body.Bytes(), "data").Size())
}

func TestClientRateLimit(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.ClientRateLimit.RPS = 0.001
		c.ClientRateLimit.Burst = 2
	})
	for i := 0; i < 2; i++ {
		w := do(e, stdhttp.MethodGet, "/v1/sessions/history?session_id=s", "", nil)
		require.Equal(t, stdhttp.StatusOK, w.Code)
	}
	w := do(e, stdhttp.MethodGet, "/v1/sessions/history?session_id=s", "", nil)
	require.Equal(t, stdhttp.StatusTooManyRequests, w.Code)
	require.Equal(t, 10003, code(t, w))

	// the UI is outside the limited group
	w = do(e, stdhttp.MethodGet, "/", "", nil)
	require.Equal(t, stdhttp.StatusOK, w.Code)
}

func TestLocalFiles(t *testing.T) {
	e := newTestEngine(t, nil)
	key, err := storage.Default().Upload("notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	w := do(e, stdhttp.MethodGet, "/files/"+key, "", nil)
	require.Equal(t, stdhttp.StatusOK, w.Code)
	require.Equal(t, "hello", w.Body.String())
}
