package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type AccountRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	OrganizerExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	InsertAttendee(ctx context.Context, accountID uuid.UUID) error
	InsertOrganizer(ctx context.Context, accountID uuid.UUID) error
}

// AccountService manages the thin attendee/organizer role rows. The
// existence of the row is the sole "is valid attendee/organizer" predicate;
// everything else about identity lives with the external provider.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

// CreateAttendee links the account to the attendee role. Calling it twice
// is a no-op.
func (s *AccountService) CreateAttendee(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetAccount(txCtx, accountID); err != nil {
			return err
		}
		return s.repo.InsertAttendee(txCtx, accountID)
	})
}

// CreateOrganizer links the account to the organizer role, idempotently.
func (s *AccountService) CreateOrganizer(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetAccount(txCtx, accountID); err != nil {
			return err
		}
		return s.repo.InsertOrganizer(txCtx, accountID)
	})
}

func (s *AccountService) IsValidAttendee(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return s.repo.AttendeeExists(ctx, accountID)
}

func (s *AccountService) IsValidOrganizer(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return s.repo.OrganizerExists(ctx, accountID)
}
