package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/ai/vision"
	"github.com/reusedev/doc-hub/internal/modules/cache"
	"github.com/reusedev/doc-hub/internal/modules/history"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/observer"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/reusedev/doc-hub/tools"
)

var errNoSupplier = errors.New("no supplier available")

// Job runs one queued analysis.
type Job struct {
	AnalysisId int
}

func (j *Job) Execute(ctx context.Context) error {
	a, err := loadAnalysis(j.AnalysisId)
	if err != nil {
		return fmt.Errorf("load analysis %d: %w", j.AnalysisId, err)
	}
	if a.Finished() {
		return nil
	}
	if err = updateStatus(a.Id, model.AnalysisStatusRunning); err != nil {
		return err
	}
	err = j.run(ctx, &a)
	switch {
	case ctx.Err() != nil:
		a.Status = model.AnalysisStatusAborted.String()
		a.FailedReason = "service shutting down"
	case err != nil:
		a.Status = model.AnalysisStatusFailed.String()
		a.FailedReason = truncate(err.Error(), 1000)
	default:
		a.Status = model.AnalysisStatusSucceed.String()
	}
	if uErr := finishAnalysis(&a); uErr != nil {
		logs.Logger.Error().Err(uErr).Int("analysis_id", a.Id).Msg("finish analysis failed")
	}
	logs.Logger.Info().Int("analysis_id", a.Id).Str("status", a.Status).Msg("analysis finished")
	return err
}

func (j *Job) run(ctx context.Context, a *model.Analysis) error {
	manager, ok := ai.Manager(a.Model)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, a.Model)
	}
	doc, err := loadDocument(a.DocumentId)
	if err != nil {
		return fmt.Errorf("load document %d: %w", a.DocumentId, err)
	}
	pages, missing := doc.PagesByIndex(a.PageIndexes())
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrPageNotFound, missing)
	}

	images := make([]vision.Image, 0, len(pages))
	contexts := make([]pageContext, 0, len(pages))
	for _, p := range pages {
		if err = ctx.Err(); err != nil {
			return err
		}
		b, err := storage.Default().Download(p.Key)
		if err != nil {
			return fmt.Errorf("download page %d: %w", p.Index, err)
		}
		images = append(images, vision.Image{Bytes: b, MimeType: tools.DetectImageType(b).MimeType()})
		pc := pageContext{Index: p.Index, TextLayer: p.TextLayer}
		if pc.TextLayer == "" {
			text, err := OCR.Recognize(ctx, b)
			if err != nil {
				logs.Logger.Warn().Err(err).Int("analysis_id", a.Id).Int("page", p.Index).Msg("ocr failed")
			}
			pc.OCR = text
		}
		contexts = append(contexts, pc)
	}
	a.OcrText = joinOCR(contexts)

	turns := Sessions.Turns(a.SessionId)
	request := vision.Request{
		Model:   a.Model,
		System:  systemPrompt(a.System),
		Prompt:  buildPrompt(a.Prompt, contexts),
		Images:  images,
		History: historyMessages(turns),
	}

	provider := newProvider(ctx, manager, Limiter, []observer.Observer{&invokeRecorder{analysisId: a.Id}})
	last := vision.Last(provider.Analyze(a.Id, request))
	if err = ctx.Err(); err != nil {
		return err
	}
	if last == nil {
		return errNoSupplier
	}
	if !last.Succeed() {
		return last.GetError()
	}

	a.Answer = last.GetText()
	Sessions.Append(a.SessionId, userTurn(a.Prompt), assistantTurn(a.Answer))
	if len(turns) == 0 {
		key := fingerprint(a.DocumentId, a.PageIndexes(), a.Prompt, a.Model, a.System)
		if err = cache.AnswerCacheManager().Set(key, a.Answer); err != nil {
			logs.Logger.Warn().Err(err).Int("analysis_id", a.Id).Msg("cache answer failed")
		}
	}
	return nil
}

// invokeRecorder persists every supplier attempt.
type invokeRecorder struct {
	analysisId int
}

func (r *invokeRecorder) Update(event int, data interface{}) {
	switch event {
	case observer.EventAttempt:
		response, ok := data.(vision.Response)
		if !ok {
			return
		}
		h := invokeHistory(r.analysisId, response)
		if err := createInvokeHistory(&h); err != nil {
			logs.Logger.Error().Err(err).Int("analysis_id", r.analysisId).Msg("record supplier invoke failed")
		}
	case observer.EventSysExit:
		logs.Logger.Warn().Int("analysis_id", r.analysisId).Msg("analysis interrupted by shutdown")
	}
}

func invokeHistory(analysisId int, r vision.Response) model.SupplierInvokeHistory {
	return model.SupplierInvokeHistory{
		AnalysisId:     analysisId,
		SupplierName:   r.GetSupplier(),
		TokenDesc:      r.GetTokenDesc(),
		ModelName:      r.GetModel(),
		StatusCode:     r.GetStatusCode(),
		FailedRespBody: vision.FailedRespBody(r),
		DurationMs:     r.ReqConsumeMs(),
	}
}

func userTurn(text string) history.Turn {
	return history.Turn{Role: history.RoleUser, Text: text, At: time.Now()}
}

func assistantTurn(text string) history.Turn {
	return history.Turn{Role: history.RoleAssistant, Text: text, At: time.Now()}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
