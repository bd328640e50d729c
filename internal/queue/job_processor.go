package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// JobProcessor runs a pool of workers draining the Redis queue.
type JobProcessor struct {
	queue   *RedisQueue
	workers int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewJobProcessor creates a processor with the given worker count
func NewJobProcessor(queue *RedisQueue, workers int) *JobProcessor {
	return &JobProcessor{
		queue:   queue,
		workers: workers,
	}
}

// Start launches the worker goroutines.
func (p *JobProcessor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	log.Info().Int("workers", p.workers).Msg("job processor started")
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *JobProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	log.Info().Msg("job processor stopped")
}

func (p *JobProcessor) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", id).Msg("error dequeuing job")
			continue
		}
		if job == nil {
			continue
		}

		p.queue.Process(ctx, job)
	}
}
