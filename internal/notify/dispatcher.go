package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("notify: queue full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("notify: dispatcher closed")

// BookingHandler processes one booking notification job.  *Notifier
// implements it.
type BookingHandler interface {
	BookingConfirmed(ctx context.Context, b model.Booking) error
}

type job struct {
	ctx     context.Context
	booking model.Booking
}

// AsyncDispatcher is an in-process task queue: Enqueue never blocks, and a
// fixed pool of workers hands each job to the handler once.  Handler errors
// are logged; there are no retries.
type AsyncDispatcher struct {
	handler BookingHandler
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

// NewAsyncDispatcher starts workers goroutines reading from a buffer of the
// given size.
func NewAsyncDispatcher(h BookingHandler, workers, buffer int, logger *slog.Logger) *AsyncDispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &AsyncDispatcher{
		handler: h,
		logger:  logger,
		timeout: 30 * time.Second,
		jobs:    make(chan job, buffer),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Enqueue schedules b.  The job keeps ctx's values (trace span) but not its
// cancellation, since the request usually ends first.
func (d *AsyncDispatcher) Enqueue(ctx context.Context, b model.Booking) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- job{ctx: context.WithoutCancel(ctx), booking: b}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits until the queued ones are handled.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
		if err := d.handler.BookingConfirmed(ctx, j.booking); err != nil {
			d.logger.WarnContext(ctx, "booking notification failed", "booking_id", j.booking.ID, "err", err)
		}
		cancel()
	}
}
