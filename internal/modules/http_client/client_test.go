package http_client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-1", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := NewWithTimeout(time.Second)
	req, err := client.NewRequest(http.MethodPost, srv.URL,
		WithHeader("Authorization", "Bearer sk-1"),
		WithBody(map[string]string{"model": "m"}),
		WithContext(context.Background()),
	)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"m"}`, string(body))
}

func TestNewRequest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewWithTimeout(0)
	req, err := client.NewRequest(http.MethodGet, "http://127.0.0.1:1", WithContext(ctx))
	require.NoError(t, err)
	_, err = client.Do(req)
	require.ErrorIs(t, err, context.Canceled)
}
