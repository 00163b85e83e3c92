package vision

import (
	"encoding/base64"
)

// Image is one encoded page sent alongside the prompt.
type Image struct {
	Bytes    []byte
	MimeType string
}

func (i Image) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Bytes)
}

// Message is a prior turn of the conversation.
type Message struct {
	Role string // user or assistant
	Text string
}

type Request struct {
	Model       string
	System      string
	Prompt      string
	Images      []Image
	History     []Message
	Temperature *float32
	Stream      bool
}
