package dao

import (
	"github.com/reusedev/doc-hub/internal/components/mysql"
	"github.com/reusedev/doc-hub/internal/modules/model"
)

func CreateAnalysis(a *model.Analysis) error {
	return mysql.DB.Model(&model.Analysis{}).Create(a).Error
}

func AnalysisById(id int) (model.Analysis, error) {
	var a model.Analysis
	err := mysql.DB.Model(&model.Analysis{}).Preload("Invocations").Where("id = ?", id).First(&a).Error
	if err != nil {
		return model.Analysis{}, err
	}
	return a, nil
}

func UpdateAnalysisStatus(id int, status model.AnalysisStatus) error {
	return mysql.DB.Model(&model.Analysis{}).Where("id = ?", id).Update("status", status.String()).Error
}

// FinishAnalysis writes the terminal state, zero values included.
func FinishAnalysis(a *model.Analysis) error {
	return mysql.DB.Model(&model.Analysis{Id: a.Id}).Updates(map[string]any{
		"status":        a.Status,
		"answer":        a.Answer,
		"failed_reason": a.FailedReason,
		"ocr_text":      a.OcrText,
		"cache_hit":     a.CacheHit,
	}).Error
}

func CreateInvokeHistory(h *model.SupplierInvokeHistory) error {
	return mysql.DB.Model(&model.SupplierInvokeHistory{}).Create(h).Error
}

// UnfinishedAnalyses lists analyses interrupted by a restart.
func UnfinishedAnalyses() ([]model.Analysis, error) {
	var ret []model.Analysis
	err := mysql.DB.Model(&model.Analysis{}).
		Where("status IN ?", []string{
			model.AnalysisStatusPending.String(),
			model.AnalysisStatusQueued.String(),
			model.AnalysisStatusRunning.String(),
		}).
		Order("id ASC").Find(&ret).Error
	return ret, err
}
