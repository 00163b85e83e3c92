package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/reusedev/doc-hub/internal/modules/logs"
)

var (
	ErrQueueFull = errors.New("task queue is full")
	ErrClosed    = errors.New("task queue is closed")
)

type Task interface {
	Execute(ctx context.Context) error
}

// TaskQueue is a bounded FIFO consumed by a fixed set of workers.
type TaskQueue struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup

	lock      sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewTaskQueue(size, workers int) *TaskQueue {
	return &TaskQueue{
		tasks:   make(chan Task, size),
		workers: workers,
	}
}

func (q *TaskQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	go func() {
		<-ctx.Done()
		q.close()
	}()
}

func (q *TaskQueue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			// a cancelled ctx and a ready task may race in select
			if ctx.Err() != nil {
				return
			}
			if err := task.Execute(ctx); err != nil {
				logs.Logger.Warn().Err(err).Int("worker", id).Msg("task failed")
			}
		}
	}
}

// Enqueue never blocks.
func (q *TaskQueue) Enqueue(t Task) error {
	q.lock.RLock()
	defer q.lock.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Wait blocks until every worker has returned.
func (q *TaskQueue) Wait() {
	q.wg.Wait()
}

func (q *TaskQueue) close() {
	q.closeOnce.Do(func() {
		q.lock.Lock()
		q.closed = true
		close(q.tasks)
		q.lock.Unlock()
		logs.Logger.Info().Int("pending", len(q.tasks)).Msg("task queue closed")
	})
}
