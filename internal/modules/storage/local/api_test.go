package local

import (
	"strings"
	"testing"
	"time"

	"github.com/reusedev/doc-hub/config"
	"github.com/stretchr/testify/require"
)

func TestDisk(t *testing.T) {
	d, err := NewDisk(config.LocalStorage{Directory: t.TempDir(), BaseURL: "http://localhost:8080/files/"})
	require.NoError(t, err)

	key, err := d.Upload("report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(key, ".pdf"))

	b, err := d.Download(key)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(b))

	u, err := d.URL(key, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/files/"+key, u)

	require.NoError(t, d.Delete(key))
	_, err = d.Download(key)
	require.Error(t, err)
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"2026/01/02/a.jpg", false},
		{"", true},
		{"/etc/passwd", true},
		{"../secret", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.Equal(t, tt.wantErr, checkKey(tt.key) != nil)
		})
	}
}
