package queue

import (
	"context"
)

var AnalysisQueue *TaskQueue

func InitAnalysisQueue(ctx context.Context, size, workers int) {
	AnalysisQueue = NewTaskQueue(size, workers)
	AnalysisQueue.Start(ctx)
}
