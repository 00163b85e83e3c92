package response

import "time"

type Document struct {
	Id        int       `json:"id"`
	Uuid      string    `json:"uuid"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	PageCount int       `json:"page_count"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Pages     []Page    `json:"pages"`
}

type Page struct {
	Index        int    `json:"index"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	TextLayer    string `json:"text_layer,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type PageURL struct {
	DocumentId int    `json:"document_id"`
	Index      int    `json:"index"`
	URL        string `json:"url"`
}
