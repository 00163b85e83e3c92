package dao

import (
	"github.com/reusedev/doc-hub/internal/components/mysql"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"gorm.io/gorm"
)

// CreateDocument stores the document and its pages in one transaction.
func CreateDocument(doc *model.Document) error {
	return mysql.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(doc).Error
	})
}

func DocumentById(id int) (model.Document, error) {
	var doc model.Document
	err := mysql.DB.Model(&model.Document{}).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("page_index ASC") }).
		Where("id = ?", id).First(&doc).Error
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

func PageByIndex(documentId, index int) (model.Page, error) {
	var page model.Page
	err := mysql.DB.Model(&model.Page{}).
		Where("document_id = ? AND page_index = ?", documentId, index).First(&page).Error
	if err != nil {
		return model.Page{}, err
	}
	return page, nil
}
