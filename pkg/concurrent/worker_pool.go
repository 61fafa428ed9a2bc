package concurrent

import (
	"context"
	"sync"
)

// JobFunc runs one job. ctx is canceled once the pool is canceled.
type JobFunc[T any, G any] func(ctx context.Context, job T) G

// WorkerPool fixed number of workers consuming a bounded job queue.
// results are delivered in completion order, not submission order.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(ctx context.Context, jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		res := jobFunc(ctx, job)
		wp.results <- res
	}
}

func (wp *WorkerPool[T, G]) Start(ctx context.Context, jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, jobFunc)
	}
}

// Wait blocks until every worker exits, then closes the result channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}

// Close no more jobs. safe to call more than once.
func (wp *WorkerPool[T, G]) Close() {
	wp.closeOnce.Do(func() {
		close(wp.jobQueue)
	})
}

func (wp *WorkerPool[T, G]) NumWorkers() int {
	return wp.numWorkers
}

// Run submits every job, waits for completion and returns the results in submission order.
func Run[T any, G any](ctx context.Context, numWorkers int, jobs []T, jobFunc JobFunc[T, G]) []G {
	type indexed struct {
		i   int
		res G
	}
	wp := NewWorkerPool[int, indexed](numWorkers, len(jobs))
	wp.Start(ctx, func(ctx context.Context, i int) indexed {
		return indexed{i: i, res: jobFunc(ctx, jobs[i])}
	})
	for i := range jobs {
		wp.AddJob(i)
	}
	wp.Close()
	wp.Wait()

	results := make([]G, len(jobs))
	for r := range wp.CollectResults() {
		results[r.i] = r.res
	}
	return results
}
