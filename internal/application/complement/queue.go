package complement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/observability/metrics"
)

var (
	ErrQueueFull    = errors.New("cola de complementos llena")
	ErrQueueStopped = errors.New("cola de complementos detenida")
)

// JobRunner lo implementa *Job.
type JobRunner interface {
	Run(ctx context.Context, invoiceID string) error
}

// WorkerQueue cola en memoria con N workers. Cada job corre con su propio
// context.WithTimeout, desacoplado de la petición HTTP que lo encoló.
type WorkerQueue struct {
	runner  JobRunner
	workers int
	timeout time.Duration
	jobs    chan string
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	started bool
	wg      sync.WaitGroup
}

var _ Queue = (*WorkerQueue)(nil)

// NewWorkerQueue workers y size deben ser >= 1 (config.Validate lo garantiza).
func NewWorkerQueue(runner JobRunner, workers, size int, timeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *WorkerQueue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &WorkerQueue{
		runner:  runner,
		workers: workers,
		timeout: timeout,
		jobs:    make(chan string, size),
		metrics: m,
		log:     log,
	}
}

// Start lanza los workers. Llamadas repetidas no tienen efecto.
func (q *WorkerQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Enqueue no bloquea: devuelve ErrQueueFull si no hay espacio.
func (q *WorkerQueue) Enqueue(_ context.Context, invoiceID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.jobs <- invoiceID:
		q.metrics.QueueDepth(len(q.jobs))
		q.log.Debug().Str("invoice_id", invoiceID).Msg("complemento encolado")
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop deja de aceptar jobs, procesa los pendientes y espera a los workers.
func (q *WorkerQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *WorkerQueue) worker(id int) {
	defer q.wg.Done()
	for invoiceID := range q.jobs {
		q.metrics.QueueDepth(len(q.jobs))
		q.process(id, invoiceID)
	}
}

func (q *WorkerQueue) process(worker int, invoiceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			q.log.Error().Interface("panic", p).Str("invoice_id", invoiceID).Msg("pánico en job de complemento")
		}
	}()

	if err := q.runner.Run(ctx, invoiceID); err != nil {
		q.log.Warn().Err(err).Int("worker", worker).Str("invoice_id", invoiceID).Msg("job de complemento fallido")
		return
	}
	q.log.Info().Int("worker", worker).Str("invoice_id", invoiceID).Msg("job de complemento completado")
}
