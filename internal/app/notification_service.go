package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// EmailSender delivers email after a committed state change. Implementations
// are best-effort: a failed send must never unwind the transaction that
// preceded it.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// NotificationSender records an in-app notification, with the same
// best-effort contract as EmailSender.
type NotificationSender interface {
	Send(ctx context.Context, accountID uuid.UUID, topic, message string, at time.Time) error
}

type NotificationRepository interface {
	ListNotifications(ctx context.Context, accountID uuid.UUID) ([]domain.Notification, error)
	InsertNotification(ctx context.Context, n domain.Notification) error
	MarkRead(ctx context.Context, notificationID, accountID uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

// NotificationService stores per-account notifications. Rows are append-only
// except for the read flag.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) GetNotifications(ctx context.Context, accountID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, accountID)
}

// Send implements NotificationSender over the store.
func (s *NotificationService) Send(ctx context.Context, accountID uuid.UUID, topic, message string, at time.Time) error {
	return s.repo.InsertNotification(ctx, domain.Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		CreatedAt: at,
		Topic:     topic,
		Message:   message,
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, accountID uuid.UUID) error {
	return s.repo.MarkRead(ctx, notificationID, accountID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, accountID)
}

// LogEmailSender writes outgoing mail to the log instead of delivering it.
// Used where no mail infrastructure is configured.
type LogEmailSender struct {
	Logger *log.Logger
}

func (s *LogEmailSender) Send(_ context.Context, to, subject, textBody, _ string) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("email to=%s subject=%q body=%q", to, subject, textBody)
	return nil
}
