package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r *ContactRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
	switch {
	case r.Name == "":
		return calendar.Validation("name is required")
	case r.Email == "":
		return calendar.Validation("email is required")
	case r.Message == "":
		return calendar.Validation("message is required")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return calendar.Validation("invalid email %q", r.Email)
	}
	return nil
}

// ContactService stores contact form messages.
type ContactService struct {
	contacts repository.ContactStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewContactService(contacts repository.ContactStore, logger *slog.Logger) *ContactService {
	if contacts == nil {
		panic("service: nil contact store")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ContactService{contacts: contacts, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and stores a message.
func (s *ContactService) Create(ctx context.Context, req ContactRequest) (model.ContactMessage, error) {
	if err := req.normalize(); err != nil {
		return model.ContactMessage{}, err
	}
	m := model.ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: s.now(),
	}
	if err := s.contacts.Create(ctx, &m); err != nil {
		return model.ContactMessage{}, calendar.Upstream("create contact message", err)
	}
	s.logger.InfoContext(ctx, "contact message stored", "contact_id", m.ID)
	return m, nil
}

// List returns the most recent messages, newest first.
func (s *ContactService) List(ctx context.Context) ([]model.ContactMessage, error) {
	list, err := s.contacts.ListRecent(ctx, listLimit)
	if err != nil {
		return nil, calendar.Upstream("list contact messages", err)
	}
	return list, nil
}
