package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

func booking() model.Booking {
	return model.Booking{
		ID:           "b1",
		Name:         "Max Mustermann",
		Email:        "max@example.com",
		Service:      "PlayStation 5 VR Experience",
		Date:         "2025-03-01",
		Time:         "14:00",
		Participants: 2,
		SelectedGame: "Astro Bot",
		Status:       model.BookingConfirmed,
	}
}

func TestMessages(t *testing.T) {
	b := booking()

	owner := OwnerMessage("owner@qnova.de", b)
	if owner.To != "owner@qnova.de" || owner.Subject != "🎮 New VR Booking: Max Mustermann" {
		t.Fatalf("owner message = %+v", owner)
	}
	for _, want := range []string{"PlayStation 5 VR Experience (1 hour)", "2025-03-01 at 14:00", "Participants: 2", "Astro Bot", "Phone:        -"} {
		if !strings.Contains(owner.Body, want) {
			t.Errorf("owner body missing %q:\n%s", want, owner.Body)
		}
	}

	cust := CustomerMessage(b)
	if cust.To != "max@example.com" || !strings.Contains(cust.Subject, "QNOVA VR") {
		t.Fatalf("customer message = %+v", cust)
	}
	for _, want := range []string{"Hallo Max Mustermann", "(1 Stunde)", "Uhrzeit:        14:00", "Spiel:          Astro Bot"} {
		if !strings.Contains(cust.Body, want) {
			t.Errorf("customer body missing %q:\n%s", want, cust.Body)
		}
	}

	b.Service = "KAT VR Gaming Session"
	if !strings.Contains(CustomerMessage(b).Body, "(30 Minuten)") {
		t.Error("half hour label missing from customer body")
	}
}

func TestNotifierSendsBoth(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	n := NewNotifier(sink, "owner@qnova.de", nil)

	gomock.InOrder(
		sink.EXPECT().Send(gomock.Any(), gomock.Cond(func(m Message) bool { return m.To == "owner@qnova.de" })).Return(nil),
		sink.EXPECT().Send(gomock.Any(), gomock.Cond(func(m Message) bool { return m.To == "max@example.com" })).Return(nil),
	)
	if err := n.BookingConfirmed(context.Background(), booking()); err != nil {
		t.Fatalf("BookingConfirmed: %v", err)
	}
}

func TestNotifierIndependentFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	n := NewNotifier(sink, "owner@qnova.de", nil)

	boom := errors.New("smtp down")
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(boom)
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	err := n.BookingConfirmed(context.Background(), booking())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped smtp error", err)
	}
}

func TestNotifierWithoutOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	n := NewNotifier(sink, "  ", nil)

	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	if err := n.BookingConfirmed(context.Background(), booking()); err != nil {
		t.Fatal(err)
	}
}

type recordingHandler struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
}

func (h *recordingHandler) BookingConfirmed(ctx context.Context, b model.Booking) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, b.ID)
	return nil
}

func TestAsyncDispatcherDrainsOnClose(t *testing.T) {
	h := &recordingHandler{}
	d := NewAsyncDispatcher(h, 2, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		b := booking()
		b.ID = id
		if err := d.Enqueue(ctx, b); err != nil {
			t.Fatalf("Enqueue(%s): %v", id, err)
		}
	}
	cancel()
	d.Close()

	if len(h.seen) != 3 {
		t.Fatalf("handled %d jobs, want 3", len(h.seen))
	}
	if err := d.Enqueue(context.Background(), booking()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue after Close err = %v, want ErrClosed", err)
	}
}

func TestAsyncDispatcherQueueFull(t *testing.T) {
	h := &recordingHandler{block: make(chan struct{})}
	d := NewAsyncDispatcher(h, 1, 1, nil)

	var full bool
	deadline := time.Now().Add(2 * time.Second)
	for !full && time.Now().Before(deadline) {
		if err := d.Enqueue(context.Background(), booking()); errors.Is(err, ErrQueueFull) {
			full = true
		}
	}
	close(h.block)
	d.Close()
	if !full {
		t.Fatal("Enqueue never reported ErrQueueFull while the worker was blocked")
	}
}

func TestBuildMessage(t *testing.T) {
	raw := string(buildMessage("QNOVA VR <no-reply@qnova-vr.de>", Message{To: "max@example.com", Subject: "Buchung bestätigt", Body: "Hallo"}))
	for _, want := range []string{"From: ", "To: max@example.com\r\n", "Subject: =?utf-8?q?", "Content-Type: text/plain; charset=utf-8", "\r\n\r\nHallo"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}
