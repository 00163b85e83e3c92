package model

import (
	"strconv"
	"strings"
	"time"
)

type Analysis struct {
	Id           int                     `json:"id" gorm:"primaryKey"`
	DocumentId   int                     `json:"document_id" gorm:"column:document_id;type:int;index"`
	SessionId    string                  `json:"session_id" gorm:"column:session_id;type:varchar(64);index"`
	Prompt       string                  `json:"prompt" gorm:"column:prompt;type:varchar(5000)"`
	System       string                  `json:"system" gorm:"column:system;type:varchar(2000)"`
	Pages        string                  `json:"pages" gorm:"column:pages;type:varchar(500)"` // comma separated page indexes
	Model        string                  `json:"model" gorm:"column:model;type:varchar(50)"`
	Status       string                  `json:"status" gorm:"column:status;type:enum('pending', 'queued', 'running', 'succeed', 'aborted', 'failed')"`
	Answer       string                  `json:"answer" gorm:"column:answer;type:text"`
	FailedReason string                  `json:"failed_reason" gorm:"column:failed_reason;type:varchar(1000)"`
	OcrText      string                  `json:"ocr_text" gorm:"column:ocr_text;type:text"`
	CacheHit     bool                    `json:"cache_hit" gorm:"column:cache_hit;type:tinyint(1);default:0"`
	CreatedAt    time.Time               `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time               `json:"updated_at" gorm:"column:updated_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
	Invocations  []SupplierInvokeHistory `json:"invocations" gorm:"foreignKey:AnalysisId"`
}

func (*Analysis) TableName() string {
	return "analysis"
}

func (a *Analysis) PageIndexes() []int {
	if a.Pages == "" {
		return nil
	}
	var ret []int
	for _, s := range strings.Split(a.Pages, ",") {
		i, err := strconv.Atoi(s)
		if err == nil {
			ret = append(ret, i)
		}
	}
	return ret
}

func JoinPageIndexes(pages []int) string {
	s := make([]string, len(pages))
	for i, p := range pages {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, ",")
}

func (a *Analysis) Finished() bool {
	switch AnalysisStatus(a.Status) {
	case AnalysisStatusSucceed, AnalysisStatusFailed, AnalysisStatusAborted:
		return true
	}
	return false
}

type AnalysisStatus string

const (
	AnalysisStatusPending AnalysisStatus = "pending"
	AnalysisStatusQueued  AnalysisStatus = "queued"
	AnalysisStatusRunning AnalysisStatus = "running"
	AnalysisStatusAborted AnalysisStatus = "aborted"
	AnalysisStatusSucceed AnalysisStatus = "succeed"
	AnalysisStatusFailed  AnalysisStatus = "failed"
)

func (s AnalysisStatus) String() string {
	return string(s)
}

type SupplierInvokeHistory struct {
	Id             int       `json:"id" gorm:"primaryKey"`
	AnalysisId     int       `json:"analysis_id" gorm:"column:analysis_id;type:int;index"`
	SupplierName   string    `json:"supplier_name" gorm:"column:supplier_name;type:varchar(20)"`
	TokenDesc      string    `json:"token_desc" gorm:"column:token_desc;type:varchar(30)"`
	ModelName      string    `json:"model_name" gorm:"column:model_name;type:varchar(50)"`
	StatusCode     int       `json:"status_code" gorm:"column:status_code;type:int"`
	FailedRespBody string    `json:"failed_resp_body" gorm:"column:failed_resp_body;type:varchar(2000)"`
	DurationMs     int64     `json:"duration_ms" gorm:"column:duration_ms;type:int"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (SupplierInvokeHistory) TableName() string {
	return "supplier_invoke_history"
}
