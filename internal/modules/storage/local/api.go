package local

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/tools"
)

const SupplierName = "local"

// Disk stores objects under a directory; keys are slash separated relative paths.
type Disk struct {
	directory string
	baseURL   string
}

func NewDisk(c config.LocalStorage) (*Disk, error) {
	if err := os.MkdirAll(c.Directory, 0770); err != nil {
		return nil, err
	}
	return &Disk{directory: c.Directory, baseURL: c.BaseURL}, nil
}

func (d *Disk) Name() string {
	return SupplierName
}

func (d *Disk) Directory() string {
	return d.directory
}

func (d *Disk) Upload(fName string, file io.Reader) (string, error) {
	key := datePrefix() + uuid.New().String() + filepath.Ext(fName)
	return key, SaveFile(file, d.path(key))
}

func (d *Disk) UploadImage(b []byte) (string, error) {
	key := datePrefix() + uuid.New().String() + "." + tools.DetectImageType(b).String()
	return key, SaveFile(bytes.NewReader(b), d.path(key))
}

// URL ignores expire; local files are served without signing.
func (d *Disk) URL(key string, _ time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return tools.FullURL(d.baseURL, key), nil
}

func (d *Disk) Download(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return os.ReadFile(d.path(key))
}

func (d *Disk) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return DeleteFile(d.path(key))
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.directory, filepath.FromSlash(key))
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func datePrefix() string {
	return time.Now().Format("2006/01/02") + "/"
}

func SaveFile(f io.Reader, path string) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0770)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, f)
	if err != nil {
		return err
	}
	return nil
}

func DeleteFile(path string) error {
	return os.Remove(path)
}
