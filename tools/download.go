package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GetOnlineFile downloads url, refusing bodies larger than maxBytes when maxBytes > 0.
func GetOnlineFile(ctx context.Context, url string, maxBytes int64) (bytes []byte, fName string, err error) {
	client := http.Client{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("failed to download file, status code: %d", resp.StatusCode)
		return
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	bytes, err = io.ReadAll(body)
	if err != nil {
		return
	}
	if maxBytes > 0 && int64(len(bytes)) > maxBytes {
		err = fmt.Errorf("file exceeds %d bytes", maxBytes)
		bytes = nil
		return
	}
	fName = fileNameFromDisposition(resp.Header.Get("Content-Disposition"))
	if fName == "" {
		fName = req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
	}
	return
}

func fileNameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	parts := strings.Split(disposition, ";")
	for _, part := range parts {
		if strings.Contains(part, "filename=") {
			return strings.Trim(strings.TrimSpace(strings.SplitN(part, "=", 2)[1]), "\"")
		}
	}
	return ""
}
