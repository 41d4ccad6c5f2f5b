package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// Subjects of the two booking emails.
const (
	ownerSubjectPrefix = "🎮 New VR Booking: "
	customerSubject    = "🎮 Ihre VR-Session Buchung bestätigt - QNOVA VR"
)

// Notifier sends the studio owner and the customer one email each per
// booking.  The two sends are independent: a failure of one does not stop
// the other.
type Notifier struct {
	sink       Sink
	ownerEmail string
	logger     *slog.Logger
}

// NewNotifier returns a Notifier delivering through sink.  ownerEmail may be
// empty, in which case only the customer is notified.
func NewNotifier(sink Sink, ownerEmail string, logger *slog.Logger) *Notifier {
	if sink == nil {
		panic("notify: nil sink")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{sink: sink, ownerEmail: strings.TrimSpace(ownerEmail), logger: logger}
}

// BookingConfirmed delivers both messages for b and returns the joined send
// errors.  Every failure is also logged.
func (n *Notifier) BookingConfirmed(ctx context.Context, b model.Booking) error {
	msgs := make([]Message, 0, 2)
	if n.ownerEmail != "" {
		msgs = append(msgs, OwnerMessage(n.ownerEmail, b))
	}
	msgs = append(msgs, CustomerMessage(b))

	var errs []error
	for _, m := range msgs {
		if err := n.sink.Send(ctx, m); err != nil {
			n.logger.ErrorContext(ctx, "booking email failed", "booking_id", b.ID, "to", m.To, "err", err)
			errs = append(errs, fmt.Errorf("send to %s: %w", m.To, err))
			continue
		}
		n.logger.InfoContext(ctx, "booking email sent", "booking_id", b.ID, "to", m.To, "subject", m.Subject)
	}
	return errors.Join(errs...)
}

// OwnerMessage renders the English notification for the studio.
func OwnerMessage(to string, b model.Booking) Message {
	label := calendar.FamilyFor(b.Service).Label.English
	var sb strings.Builder
	sb.WriteString("New VR booking received\n\n")
	fmt.Fprintf(&sb, "Customer:     %s\n", b.Name)
	fmt.Fprintf(&sb, "Email:        %s\n", b.Email)
	fmt.Fprintf(&sb, "Phone:        %s\n", orDash(b.Phone))
	fmt.Fprintf(&sb, "Service:      %s (%s)\n", b.Service, label)
	fmt.Fprintf(&sb, "Date:         %s at %s\n", b.Date, b.Time)
	fmt.Fprintf(&sb, "Participants: %d\n", b.Participants)
	fmt.Fprintf(&sb, "Game:         %s\n", orDash(b.SelectedGame))
	fmt.Fprintf(&sb, "Status:       %s\n", b.Status)
	fmt.Fprintf(&sb, "Booking ID:   %s\n", b.ID)
	if b.Message != "" {
		fmt.Fprintf(&sb, "\nMessage from the customer:\n%s\n", b.Message)
	}
	return Message{To: to, Subject: ownerSubjectPrefix + b.Name, Body: sb.String()}
}

// CustomerMessage renders the German confirmation for the customer.
func CustomerMessage(b model.Booking) Message {
	label := calendar.FamilyFor(b.Service).Label.German
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hallo %s,\n\n", b.Name)
	sb.WriteString("vielen Dank für Ihre Buchung bei QNOVA VR.\n\n")
	fmt.Fprintf(&sb, "Service:        %s (%s)\n", b.Service, label)
	fmt.Fprintf(&sb, "Datum:          %s\n", b.Date)
	fmt.Fprintf(&sb, "Uhrzeit:        %s\n", b.Time)
	fmt.Fprintf(&sb, "Teilnehmer:     %d\n", b.Participants)
	if b.SelectedGame != "" {
		fmt.Fprintf(&sb, "Spiel:          %s\n", b.SelectedGame)
	}
	fmt.Fprintf(&sb, "Buchungsnummer: %s\n", b.ID)
	sb.WriteString("\nWir freuen uns auf Ihren Besuch!\nIhr QNOVA VR Team\n")
	return Message{To: b.Email, Subject: customerSubject, Body: sb.String()}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
