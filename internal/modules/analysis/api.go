package analysis

import (
	"errors"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/ai/vision"
	"github.com/reusedev/doc-hub/internal/modules/dao"
	"github.com/reusedev/doc-hub/internal/modules/history"
	"github.com/reusedev/doc-hub/internal/modules/ocr"
	"github.com/reusedev/doc-hub/internal/modules/queue"
	"github.com/reusedev/doc-hub/internal/modules/ratelimit"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrUnknownModel     = errors.New("unknown model")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrPromptTooLong    = errors.New("prompt is too long")
)

const maxPromptLength = 5000

var (
	Sessions *history.Store
	Limiter  *ratelimit.Window
	OCR      ocr.Engine = ocr.Noop{}
)

// Persistence and dispatch go through these so jobs can run without MySQL.
var (
	loadAnalysis        = dao.AnalysisById
	loadDocument        = dao.DocumentById
	createAnalysis      = dao.CreateAnalysis
	updateStatus        = dao.UpdateAnalysisStatus
	finishAnalysis      = dao.FinishAnalysis
	createInvokeHistory = dao.CreateInvokeHistory
	unfinishedAnalyses  = dao.UnfinishedAnalyses
	newProvider         = vision.NewProvider
	enqueue             = func(t queue.Task) error { return queue.AnalysisQueue.Enqueue(t) }
	queueLen            = func() int { return queue.AnalysisQueue.Len() }
)

func Init(c *config.Config) {
	Sessions = history.NewStore(c.History.MaxTurns, c.History.TTLDuration())
	Limiter = ratelimit.NewWindow(c.RateLimit.Requests, c.RateLimit.WindowDuration())
	OCR = ocr.New(c.OCR.Enabled, c.OCR.Languages)
}
