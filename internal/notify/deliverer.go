package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"go.uber.org/zap"
)

// Deliverer composes a notice and sends each party's message on its own.
// One party failing never stops the other.
type Deliverer struct {
	composer *Composer
	mailer   Mailer
	log      *zap.Logger
	metrics  *metrics.Collector
	timeout  time.Duration
}

func NewDeliverer(composer *Composer, mailer Mailer, log *zap.Logger, m *metrics.Collector, timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Deliverer{composer: composer, mailer: mailer, log: log, metrics: m, timeout: timeout}
}

// Deliver returns the number of messages sent.
func (d *Deliverer) Deliver(ctx context.Context, n Notice) int {
	msgs, err := d.composer.Compose(n)
	if err != nil {
		d.log.Error("composing notice failed",
			zap.String("kind", string(n.Kind)),
			zap.String("appointment_id", n.AppointmentID.String()),
			zap.Error(err),
		)
		return 0
	}

	var (
		wg   sync.WaitGroup
		sent atomic.Int32
	)
	for _, msg := range msgs {
		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := d.mailer.Send(sendCtx, msg); err != nil {
				d.count(n.Kind, "failed")
				d.log.Error("sending appointment email failed",
					zap.String("kind", string(n.Kind)),
					zap.String("appointment_id", n.AppointmentID.String()),
					zap.String("to", msg.To),
					zap.Error(err),
				)
				return
			}
			sent.Add(1)
			d.count(n.Kind, "sent")
		}(msg)
	}
	wg.Wait()

	return int(sent.Load())
}

func (d *Deliverer) count(kind Kind, outcome string) {
	if d.metrics != nil {
		d.metrics.NotificationsTotal.WithLabelValues(string(kind), outcome).Inc()
	}
}
