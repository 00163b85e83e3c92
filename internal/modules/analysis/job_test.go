package analysis

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/consts"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/ai/vision"
	"github.com/reusedev/doc-hub/internal/modules/cache"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"github.com/reusedev/doc-hub/internal/modules/observer"
	"github.com/reusedev/doc-hub/internal/modules/ocr"
	"github.com/reusedev/doc-hub/internal/modules/queue"
	"github.com/reusedev/doc-hub/internal/modules/ratelimit"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testModel = "gemini-2.5-flash"

// memStore stands in for the analysis tables and the task queue.
type memStore struct {
	mu          sync.Mutex
	nextId      int
	analyses    map[int]model.Analysis
	documents   map[int]model.Document
	transitions map[int][]string
	invokes     []model.SupplierInvokeHistory
	enqueued    []int
	queueSize   int
}

func (m *memStore) loadAnalysis(id int) (model.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return model.Analysis{}, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *memStore) loadDocument(id int) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return model.Document{}, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (m *memStore) createAnalysis(a *model.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextId++
	a.Id = m.nextId
	m.analyses[a.Id] = *a
	return nil
}

func (m *memStore) updateStatus(id int, status model.AnalysisStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.analyses[id]
	a.Status = status.String()
	m.analyses[id] = a
	m.transitions[id] = append(m.transitions[id], status.String())
	return nil
}

func (m *memStore) finishAnalysis(a *model.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[a.Id] = *a
	m.transitions[a.Id] = append(m.transitions[a.Id], a.Status)
	return nil
}

func (m *memStore) createInvokeHistory(h *model.SupplierInvokeHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invokes = append(m.invokes, *h)
	return nil
}

func (m *memStore) unfinishedAnalyses() ([]model.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ret []model.Analysis
	for _, a := range m.analyses {
		if !a.Finished() {
			ret = append(ret, a)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Id < ret[j].Id })
	return ret, nil
}

func (m *memStore) enqueue(t queue.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.enqueued) >= m.queueSize {
		return queue.ErrQueueFull
	}
	m.enqueued = append(m.enqueued, t.(*Job).AnalysisId)
	return nil
}

func (m *memStore) queueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enqueued)
}

func (m *memStore) get(id int) model.Analysis {
	a, _ := m.loadAnalysis(id)
	return a
}

// pageStorage serves page images from memory.
type pageStorage map[string][]byte

func (s pageStorage) Name() string { return "pages" }

func (s pageStorage) Upload(string, io.Reader) (string, error) { return "", nil }

func (s pageStorage) UploadImage([]byte) (string, error) { return "", nil }

func (s pageStorage) URL(key string, _ time.Duration) (string, error) { return key, nil }

func (s pageStorage) Delete(string) error { return nil }

func (s pageStorage) Download(key string) ([]byte, error) {
	b, ok := s[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

// swapSeams returns a func putting back the production seams.
func swapSeams() func() {
	la, ld, ca, us, fa := loadAnalysis, loadDocument, createAnalysis, updateStatus, finishAnalysis
	ci, ua, np, eq, ql := createInvokeHistory, unfinishedAnalyses, newProvider, enqueue, queueLen
	return func() {
		loadAnalysis, loadDocument, createAnalysis, updateStatus, finishAnalysis = la, ld, ca, us, fa
		createInvokeHistory, unfinishedAnalyses, newProvider, enqueue, queueLen = ci, ua, np, eq, ql
	}
}

// setup swaps the database, queue and supplier endpoints for in-memory
// versions. supplier may be nil when no call is expected.
func setup(t *testing.T, supplier http.HandlerFunc) *memStore {
	m := &memStore{
		analyses:    map[int]model.Analysis{},
		transitions: map[int][]string{},
		queueSize:   10,
		documents: map[int]model.Document{
			1: {Id: 1, Kind: "pdf", PageCount: 2, Pages: []model.Page{
				{DocumentId: 1, Index: 1, Key: "p1", TextLayer: "Invoice 42"},
				{DocumentId: 1, Index: 2, Key: "p2", TextLayer: "Total 10 EUR"},
			}},
		},
	}
	restore := swapSeams()
	savedStorage, savedConfig := storage.Default(), config.GConfig
	t.Cleanup(func() {
		restore()
		storage.SetDefault(savedStorage)
		config.GConfig = savedConfig
	})
	loadAnalysis = m.loadAnalysis
	loadDocument = m.loadDocument
	createAnalysis = m.createAnalysis
	updateStatus = m.updateStatus
	finishAnalysis = m.finishAnalysis
	createInvokeHistory = m.createInvokeHistory
	unfinishedAnalyses = m.unfinishedAnalyses
	enqueue = m.enqueue
	queueLen = m.queueLen

	png := []byte("\x89PNG\r\n\x1a\n0000")
	storage.SetDefault(pageStorage{"p1": png, "p2": png})

	c := config.Default()
	c.DefaultModel = testModel
	config.GConfig = c
	Init(c)
	OCR = ocr.Noop{}
	ai.GTokenManager = map[string]*ai.TokenManager{testModel: ai.NewTokenManager([][]ai.TokenWithModel{
		{{Token: ai.Token{Token: "sk-v3", Desc: "token", Supplier: consts.V3}, Model: testModel}},
	})}

	if supplier != nil {
		srv := httptest.NewServer(supplier)
		t.Cleanup(srv.Close)
		newProvider = func(ctx context.Context, manager *ai.TokenManager, limiter *ratelimit.Window, observers []observer.Observer) *vision.Provider {
			p := vision.NewProvider(ctx, manager, limiter, observers)
			p.BaseURLs[consts.V3] = srv.URL
			return p
		}
	}
	return m
}

func chatAnswer(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + text + `"},"finish_reason":"stop"}]}`))
	}
}

func queued(m *memStore, prompt, session string) int {
	a := &model.Analysis{
		DocumentId: 1,
		SessionId:  session,
		Prompt:     prompt,
		Pages:      "1,2",
		Model:      testModel,
		Status:     model.AnalysisStatusQueued.String(),
	}
	_ = m.createAnalysis(a)
	return a.Id
}

func TestJob_Succeeds(t *testing.T) {
	var body string
	m := setup(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		chatAnswer("The total is 10 EUR.")(w, r)
	})
	id := queued(m, "What is the total of invoice 42?", "job-success")

	require.NoError(t, (&Job{AnalysisId: id}).Execute(context.Background()))

	a := m.get(id)
	require.Equal(t, []string{"running", "succeed"}, m.transitions[id])
	require.Equal(t, "The total is 10 EUR.", a.Answer)
	require.Empty(t, a.FailedReason)
	require.Contains(t, body, "Invoice 42")
	require.Contains(t, body, "Total 10 EUR")

	require.Len(t, m.invokes, 1)
	require.Equal(t, id, m.invokes[0].AnalysisId)
	require.Equal(t, http.StatusOK, m.invokes[0].StatusCode)

	turns := Sessions.Turns("job-success")
	require.Len(t, turns, 2)
	require.Equal(t, "The total is 10 EUR.", turns[1].Text)

	cached, err := cache.AnswerCacheManager().GetValue(fingerprint(1, []int{1, 2}, a.Prompt, testModel, ""))
	require.NoError(t, err)
	require.Equal(t, a.Answer, cached)
}

func TestJob_SupplierFailure(t *testing.T) {
	m := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid image"))
	})
	id := queued(m, "Which supplier fails?", "job-failure")

	require.ErrorIs(t, (&Job{AnalysisId: id}).Execute(context.Background()), vision.ErrStatusCode)

	a := m.get(id)
	require.Equal(t, []string{"running", "failed"}, m.transitions[id])
	require.NotEmpty(t, a.FailedReason)
	require.Empty(t, a.Answer)
	require.Len(t, m.invokes, 1)
	require.Equal(t, "invalid image", m.invokes[0].FailedRespBody)
	require.Empty(t, Sessions.Turns("job-failure"))
}

func TestJob_AbortedOnShutdown(t *testing.T) {
	m := setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("supplier called after shutdown")
	})
	id := queued(m, "Is anyone there?", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, (&Job{AnalysisId: id}).Execute(ctx))

	a := m.get(id)
	require.Equal(t, []string{"running", "aborted"}, m.transitions[id])
	require.Equal(t, "service shutting down", a.FailedReason)
	require.Empty(t, m.invokes)
}

func TestJob_FinishedIsSkipped(t *testing.T) {
	m := setup(t, nil)
	id := queued(m, "Done already?", "")
	require.NoError(t, m.updateStatus(id, model.AnalysisStatusSucceed))
	m.transitions[id] = nil

	require.NoError(t, (&Job{AnalysisId: id}).Execute(context.Background()))
	require.Empty(t, m.transitions[id])
}

func TestSubmit(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		m := setup(t, nil)
		a, err := Submit(context.Background(), Params{DocumentId: 1, Prompt: "Who issued it?", Pages: []int{2, 2, 1}})
		require.NoError(t, err)
		require.Equal(t, model.AnalysisStatusQueued.String(), a.Status)
		require.Equal(t, "2,1", a.Pages)
		require.Equal(t, testModel, a.Model)
		require.Equal(t, []int{a.Id}, m.enqueued)
	})

	t.Run("all pages by default", func(t *testing.T) {
		m := setup(t, nil)
		a, err := Submit(context.Background(), Params{DocumentId: 1, Prompt: "Summarise every page."})
		require.NoError(t, err)
		require.Equal(t, "1,2", a.Pages)
		require.Len(t, m.enqueued, 1)
	})

	t.Run("cache hit", func(t *testing.T) {
		m := setup(t, nil)
		prompt := "What is the invoice number?"
		require.NoError(t, cache.AnswerCacheManager().Set(fingerprint(1, []int{1}, prompt, testModel, ""), "42"))

		a, err := Submit(context.Background(), Params{DocumentId: 1, Prompt: prompt, Pages: []int{1}, SessionId: "submit-cache"})
		require.NoError(t, err)
		require.True(t, a.CacheHit)
		require.Equal(t, "42", a.Answer)
		require.Equal(t, model.AnalysisStatusSucceed.String(), a.Status)
		require.Empty(t, m.enqueued)
		require.Len(t, Sessions.Turns("submit-cache"), 2)
	})

	t.Run("queue full", func(t *testing.T) {
		m := setup(t, nil)
		m.queueSize = 0
		_, err := Submit(context.Background(), Params{DocumentId: 1, Prompt: "Anything left?", Pages: []int{1}})
		require.ErrorIs(t, err, queue.ErrQueueFull)

		a := m.get(1)
		require.Equal(t, model.AnalysisStatusFailed.String(), a.Status)
		require.Contains(t, a.FailedReason, "full")
	})

	t.Run("missing document", func(t *testing.T) {
		setup(t, nil)
		_, err := Submit(context.Background(), Params{DocumentId: 7, Prompt: "hi"})
		require.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("missing page", func(t *testing.T) {
		setup(t, nil)
		_, err := Submit(context.Background(), Params{DocumentId: 1, Prompt: "hi", Pages: []int{3}})
		require.ErrorIs(t, err, ErrPageNotFound)
	})
}

func TestEnqueueUnfinished(t *testing.T) {
	m := setup(t, nil)
	running := queued(m, "a", "")
	require.NoError(t, m.updateStatus(running, model.AnalysisStatusRunning))
	waiting := queued(m, "b", "")
	done := queued(m, "c", "")
	require.NoError(t, m.updateStatus(done, model.AnalysisStatusSucceed))
	overflow := queued(m, "d", "")
	m.queueSize = 2

	require.NoError(t, EnqueueUnfinished())
	require.Equal(t, []int{running, waiting}, m.enqueued)
	require.Equal(t, model.AnalysisStatusQueued.String(), m.get(running).Status)
	require.Equal(t, model.AnalysisStatusQueued.String(), m.get(overflow).Status)
}
