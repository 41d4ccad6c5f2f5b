package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

type handlerFunc func(ctx context.Context, b model.Booking) error

func (f handlerFunc) BookingConfirmed(ctx context.Context, b model.Booking) error { return f(ctx, b) }

func TestConsumerHandle(t *testing.T) {
	valid, err := json.Marshal(BookingNotificationEvent{
		Booking:    model.Booking{ID: "b1", Name: "Max", Email: "max@example.com"},
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("smtp down")

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantErr     error
		wantHandled bool
	}{
		{"valid", valid, nil, nil, true},
		{"handler failure", valid, boom, boom, true},
		{"not json", []byte("{"), nil, errUndecodable, false},
		{"missing id", []byte(`{"booking":{}}`), nil, errUndecodable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			c := NewConsumer("amqp://unused", "", handlerFunc(func(ctx context.Context, b model.Booking) error {
				handled = true
				if _, ok := ctx.Deadline(); !ok {
					t.Error("handler context has no deadline")
				}
				return tt.handlerErr
			}), nil)

			err := c.handle(context.Background(), nil, tt.body)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("handle: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if handled != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", handled, tt.wantHandled)
			}
		})
	}
}

func TestHeaderCarrierPropagatesTrace(t *testing.T) {
	prop := propagation.TraceContext{}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	headers := amqp.Table{}
	prop.Inject(trace.ContextWithSpanContext(context.Background(), sc), headerCarrier(headers))
	if _, ok := headers["traceparent"]; !ok {
		t.Fatalf("traceparent not injected: %v", headers)
	}

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), headerCarrier(headers)))
	if got.TraceID() != sc.TraceID() || got.SpanID() != sc.SpanID() {
		t.Fatalf("extracted %v, want %v", got, sc)
	}
}

func TestNewPublisherDefaults(t *testing.T) {
	p := NewPublisher("amqp://unused", "", 0, nil)
	if p.queue != DefaultQueue {
		t.Fatalf("queue = %q, want %q", p.queue, DefaultQueue)
	}
	if cap(p.out) != defaultBuffer {
		t.Fatalf("buffer = %d, want %d", cap(p.out), defaultBuffer)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close without connection: %v", err)
	}
	if err := p.Enqueue(context.Background(), model.Booking{ID: "b1"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue after Close err = %v, want ErrClosed", err)
	}
}

// silentBroker accepts TCP connections and never answers the AMQP handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestPublisherSilentBroker(t *testing.T) {
	p := NewPublisher("amqp://guest:guest@"+silentBroker(t)+"/", "", 1, nil)
	p.dialTimeout = 300 * time.Millisecond
	p.drain = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	t.Run("enqueue returns immediately", func(t *testing.T) {
		start := time.Now()
		full := 0
		for i := 0; i < 10; i++ {
			err := p.Enqueue(ctx, model.Booking{ID: fmt.Sprintf("b%d", i)})
			switch {
			case err == nil:
			case errors.Is(err, ErrBufferFull):
				full++
			default:
				t.Fatalf("Enqueue %d: %v", i, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Fatalf("10 enqueues took %s", elapsed)
		}
		// one message in flight, one buffered
		if full < 8 {
			t.Fatalf("%d enqueues rejected, want at least 8", full)
		}
	})

	t.Run("ping honours the context deadline", func(t *testing.T) {
		pctx, pcancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer pcancel()
		start := time.Now()
		if err := p.Ping(pctx); err == nil {
			t.Fatal("Ping succeeded against a silent broker")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("Ping took %s", elapsed)
		}
	})

	t.Run("close drains quickly", func(t *testing.T) {
		start := time.Now()
		if err := p.Close(); err != nil {
			t.Fatal(err)
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Fatalf("Close took %s", elapsed)
		}
	})
}
