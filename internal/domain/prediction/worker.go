package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the task queue cannot take another job.
var ErrQueueFull = errors.New("prediction queue full")

type job struct {
	taskID uuid.UUID
	run    func() (interface{}, error)
}

// Pool is a fixed set of workers draining a buffered job queue. Each job
// moves its task PENDING -> PROCESSING -> COMPLETED/FAILED and persists the
// outcome.
type Pool struct {
	repo Repository
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
	log  zerolog.Logger
}

func NewPool(repo Repository, workers, queueSize int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 16
	}
	p := &Pool{
		repo: repo,
		jobs: make(chan job, queueSize),
		log:  log,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(taskID uuid.UUID, run func() (interface{}, error)) error {
	select {
	case p.jobs <- job{taskID: taskID, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pool) process(j job) {
	ctx := context.Background()

	task, err := p.repo.GetByTaskID(ctx, j.taskID)
	if err != nil {
		p.log.Error().Err(err).Str("task_id", j.taskID.String()).
			Msg("could not load queued prediction task")
		return
	}
	task.Status = StatusProcessing
	if err := p.repo.Update(ctx, task); err != nil {
		p.log.Error().Err(err).Str("task_id", j.taskID.String()).
			Msg("could not mark prediction task as processing")
		return
	}

	start := time.Now()
	result, runErr := j.run()
	elapsed := time.Since(start).Seconds()

	if runErr != nil {
		task.Status = StatusFailed
		task.ErrorMessage = runErr.Error()
	} else if data, err := json.Marshal(result); err != nil {
		task.Status = StatusFailed
		task.ErrorMessage = err.Error()
	} else {
		now := time.Now().UTC()
		task.Status = StatusCompleted
		task.Predictions = data
		task.ProcessingTime = &elapsed
		task.CompletedAt = &now
	}

	if err := p.repo.Update(ctx, task); err != nil {
		p.log.Error().Err(err).Str("task_id", j.taskID.String()).
			Msg("could not persist prediction task result")
	}
}
