package notify

import (
	"context"
	"sync"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"go.uber.org/zap"
)

// Queue is the in-process dispatcher: a bounded channel drained by a fixed
// set of workers. A full queue drops the notice.
type Queue struct {
	handler Handler
	log     *zap.Logger
	metrics *metrics.Collector

	mu     sync.RWMutex
	closed bool
	ch     chan Notice
	wg     sync.WaitGroup
}

func NewQueue(handler Handler, workers, size int, log *zap.Logger, m *metrics.Collector) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 100
	}
	q := &Queue{
		handler: handler,
		log:     log,
		metrics: m,
		ch:      make(chan Notice, size),
	}
	for range workers {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) Dispatch(_ context.Context, n Notice) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(n, "queue closed")
		return
	}
	select {
	case q.ch <- n:
	default:
		q.drop(n, "queue full")
	}
}

func (q *Queue) drop(n Notice, reason string) {
	if q.metrics != nil {
		q.metrics.NotificationsDropped.Inc()
	}
	q.log.Warn("dropping appointment notice",
		zap.String("reason", reason),
		zap.String("kind", string(n.Kind)),
		zap.String("appointment_id", n.AppointmentID.String()),
	)
}

// Shutdown stops accepting notices and waits for queued ones to drain or
// ctx to end.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		q.log.Warn("notification queue shutdown timed out; some notices may be lost")
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for n := range q.ch {
		q.handler.Deliver(context.Background(), n)
	}
}
