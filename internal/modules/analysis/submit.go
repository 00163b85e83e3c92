package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/cache"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/pdf"
	"gorm.io/gorm"
)

type Params struct {
	DocumentId int
	Prompt     string
	Pages      []int
	Model      string
	SessionId  string
	System     string
}

// Valid checks what can be checked without the database and fills the default model.
func (p *Params) Valid(c *config.Config) error {
	if strings.TrimSpace(p.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(p.Prompt) > maxPromptLength {
		return fmt.Errorf("%w: %d > %d", ErrPromptTooLong, len(p.Prompt), maxPromptLength)
	}
	if p.Model == "" {
		p.Model = c.DefaultModel
	}
	if _, ok := ai.Manager(p.Model); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, p.Model)
	}
	p.Pages = uniquePages(p.Pages)
	if len(p.Pages) > c.PDF.MaxPages {
		return fmt.Errorf("%w: %d > %d", pdf.ErrTooManyPages, len(p.Pages), c.PDF.MaxPages)
	}
	return nil
}

// uniquePages drops repeated indexes, keeping first-seen order.
func uniquePages(pages []int) []int {
	if len(pages) == 0 {
		return pages
	}
	seen := make(map[int]struct{}, len(pages))
	ret := make([]int, 0, len(pages))
	for _, page := range pages {
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		ret = append(ret, page)
	}
	return ret
}

// Submit records the analysis and hands it to the workers. A question
// already answered for the same pages, outside any conversation, is answered
// from cache.
func Submit(ctx context.Context, p Params) (*model.Analysis, error) {
	if err := p.Valid(config.GConfig); err != nil {
		return nil, err
	}
	doc, err := loadDocument(p.DocumentId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if len(p.Pages) == 0 {
		for _, page := range doc.Pages {
			p.Pages = append(p.Pages, page.Index)
		}
		if err = pdf.Limit(p.Pages, config.GConfig.PDF.MaxPages); err != nil {
			return nil, err
		}
	}
	if _, missing := doc.PagesByIndex(p.Pages); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrPageNotFound, missing)
	}

	a := &model.Analysis{
		DocumentId: doc.Id,
		SessionId:  p.SessionId,
		Prompt:     p.Prompt,
		System:     p.System,
		Pages:      model.JoinPageIndexes(p.Pages),
		Model:      p.Model,
		Status:     model.AnalysisStatusQueued.String(),
	}

	if len(Sessions.Turns(p.SessionId)) == 0 {
		answer, _ := cache.AnswerCacheManager().GetValue(fingerprint(doc.Id, p.Pages, p.Prompt, p.Model, p.System))
		if answer != "" {
			a.Status = model.AnalysisStatusSucceed.String()
			a.Answer = answer
			a.CacheHit = true
			if err = createAnalysis(a); err != nil {
				return nil, err
			}
			Sessions.Append(p.SessionId, userTurn(p.Prompt), assistantTurn(answer))
			logs.Logger.Info().Int("analysis_id", a.Id).Msg("analysis answered from cache")
			return a, nil
		}
	}

	if err = createAnalysis(a); err != nil {
		return nil, err
	}
	if err = enqueue(&Job{AnalysisId: a.Id}); err != nil {
		a.Status = model.AnalysisStatusFailed.String()
		a.FailedReason = err.Error()
		if uErr := finishAnalysis(a); uErr != nil {
			logs.Logger.Error().Err(uErr).Int("analysis_id", a.Id).Msg("update analysis failed")
		}
		return nil, err
	}
	logs.Logger.Info().Int("analysis_id", a.Id).Int("document_id", a.DocumentId).
		Str("model", a.Model).Str("pages", a.Pages).Int("queue_len", queueLen()).Msg("analysis queued")
	return a, nil
}

// EnqueueUnfinished re-queues analyses a previous run left behind. Rows that
// do not fit in the queue stay queued for the next start.
func EnqueueUnfinished() error {
	analyses, err := unfinishedAnalyses()
	if err != nil {
		return err
	}
	for _, a := range analyses {
		if a.Status != model.AnalysisStatusQueued.String() {
			if err = updateStatus(a.Id, model.AnalysisStatusQueued); err != nil {
				return err
			}
		}
		if err = enqueue(&Job{AnalysisId: a.Id}); err != nil {
			logs.Logger.Warn().Err(err).Int("analysis_id", a.Id).Msg("re-enqueue unfinished analysis failed")
			return nil
		}
	}
	logs.Logger.Info().Int("count", len(analyses)).Msg("unfinished analyses re-enqueued")
	return nil
}
