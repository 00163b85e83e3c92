package tools

import (
	"bytes"
	"net/http"
)

type ImageType string

const (
	ImageTypePNG     ImageType = "png"
	ImageTypeJPEG    ImageType = "jpeg"
	ImageTypeGIF     ImageType = "gif"
	ImageTypeWEBP    ImageType = "webp"
	ImageTypeBMP     ImageType = "bmp"
	ImageTypeTIFF    ImageType = "tiff"
	ImageTypeUnknown ImageType = "unknown"
)

func (i ImageType) String() string {
	return string(i)
}

func (i ImageType) MimeType() string {
	if i == ImageTypeUnknown {
		return "application/octet-stream"
	}
	return "image/" + string(i)
}

func DetectImageType(data []byte) ImageType {
	switch http.DetectContentType(data) {
	case "image/png":
		return ImageTypePNG
	case "image/jpeg":
		return ImageTypeJPEG
	case "image/gif":
		return ImageTypeGIF
	case "image/webp":
		return ImageTypeWEBP
	case "image/bmp":
		return ImageTypeBMP
	}
	// net/http does not sniff tiff
	if len(data) >= 4 && (bytes.Equal(data[:4], []byte("II*\x00")) || bytes.Equal(data[:4], []byte("MM\x00*"))) {
		return ImageTypeTIFF
	}
	return ImageTypeUnknown
}

func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
