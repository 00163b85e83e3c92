package model

import (
	"time"
)

type Document struct {
	Id                  int       `json:"id" gorm:"primaryKey"`
	Uuid                string    `json:"uuid" gorm:"column:uuid;type:varchar(36);uniqueIndex"`
	Name                string    `json:"name" gorm:"column:name;type:varchar(255)"`
	Kind                string    `json:"kind" gorm:"column:kind;type:enum('image', 'pdf')"`
	MimeType            string    `json:"mime_type" gorm:"column:mime_type;type:varchar(50)"`
	Size                int64     `json:"size" gorm:"column:size;type:bigint"`
	PageCount           int       `json:"page_count" gorm:"column:page_count;type:int"`
	StorageSupplierName string    `json:"storage_supplier_name" gorm:"column:storage_supplier_name;type:varchar(20)"`
	Key                 string    `json:"key" gorm:"column:key;type:varchar(255)"`
	Options             string    `json:"options" gorm:"column:options;type:varchar(1000)"` // preprocess options as json
	CreatedAt           time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
	Pages               []Page    `json:"pages" gorm:"foreignKey:DocumentId"`
}

func (Document) TableName() string {
	return "document"
}

type Page struct {
	Id           int       `json:"id" gorm:"primaryKey"`
	DocumentId   int       `json:"document_id" gorm:"column:document_id;type:int;index"`
	Index        int       `json:"index" gorm:"column:page_index;type:int"` // 1-based
	Key          string    `json:"key" gorm:"column:key;type:varchar(255)"`
	ThumbnailKey string    `json:"thumbnail_key" gorm:"column:thumbnail_key;type:varchar(255)"`
	Width        int       `json:"width" gorm:"column:width;type:int"`
	Height       int       `json:"height" gorm:"column:height;type:int"`
	TextLayer    string    `json:"text_layer" gorm:"column:text_layer;type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (Page) TableName() string {
	return "page"
}

// PagesByIndex returns the pages whose index is in indexes, in that order.
// Unknown indexes are reported back.
func (d *Document) PagesByIndex(indexes []int) ([]Page, []int) {
	byIndex := make(map[int]Page, len(d.Pages))
	for _, p := range d.Pages {
		byIndex[p.Index] = p
	}
	var ret []Page
	var missing []int
	for _, i := range indexes {
		if p, ok := byIndex[i]; ok {
			ret = append(ret, p)
		} else {
			missing = append(missing, i)
		}
	}
	return ret, missing
}
