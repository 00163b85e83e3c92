package request

import (
	"fmt"

	"github.com/reusedev/doc-hub/internal/modules/analysis"
)

type CreateAnalysis struct {
	DocumentId int    `json:"document_id"`
	Prompt     string `json:"prompt"`
	Pages      []int  `json:"pages"`
	Model      string `json:"model"`
	SessionId  string `json:"session_id"`
	System     string `json:"system"`
}

func (r *CreateAnalysis) Valid() error {
	if r.DocumentId <= 0 {
		return fmt.Errorf("invalid document_id: %d", r.DocumentId)
	}
	for _, p := range r.Pages {
		if p <= 0 {
			return fmt.Errorf("invalid page: %d, pages start at 1", p)
		}
	}
	if len(r.SessionId) > 64 {
		return fmt.Errorf("session_id longer than 64")
	}
	if len(r.System) > 2000 {
		return fmt.Errorf("system longer than 2000")
	}
	return nil
}

func (r *CreateAnalysis) ToParams() analysis.Params {
	return analysis.Params{
		DocumentId: r.DocumentId,
		Prompt:     r.Prompt,
		Pages:      r.Pages,
		Model:      r.Model,
		SessionId:  r.SessionId,
		System:     r.System,
	}
}

type AnalysisQuery struct {
	Id int `form:"id"`
}

func (q *AnalysisQuery) Valid() error {
	if q.Id <= 0 {
		return fmt.Errorf("invalid id: %d", q.Id)
	}
	return nil
}

type SessionQuery struct {
	SessionId string `form:"session_id"`
}

func (q *SessionQuery) Valid() error {
	if q.SessionId == "" {
		return fmt.Errorf("session_id is required")
	}
	return nil
}
