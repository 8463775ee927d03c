package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/api/metrics"
	"github.com/storeline/commerce-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// MailDispatcher delivers queued reset mails on a fixed set of workers,
// sharded by recipient so messages to the same address stay ordered.
// Delivery is fire-and-forget: a failed send is logged and counted, never
// retried here.
type MailDispatcher struct {
	workers []chan ports.ResetMailInput
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan ports.ResetMailInput, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ResetMailInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a reset mail to the worker responsible for its recipient.
// Non-blocking up to channelBuffer capacity.
func (d *MailDispatcher) Enqueue(mail ports.ResetMailInput) {
	idx := d.shardIndex(mail.User.Email)
	d.workers[idx] <- mail
	metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ResetMailInput) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.mailer.SendPasswordReset(ctx, mail.User, mail.Token, mail.Expires); err != nil {
				metrics.ResetEmailsTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("to", mail.User.Email).
					Int("worker_id", id).
					Msg("reset email delivery failed")
				continue
			}
			metrics.ResetEmailsTotal.WithLabelValues("sent").Inc()
			d.log.Info().Str("to", mail.User.Email).Msg("reset email sent")
		}
	}
}
