package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

func TestAccountRoles(t *testing.T) {
	ctx := context.Background()

	repo := newFakeAccountRepo()
	accountID := uuid.New()
	repo.accounts[accountID] = domain.Account{ID: accountID, Email: "ana@example.com"}
	svc := NewAccountService(repo)

	valid, err := svc.IsValidAttendee(ctx, accountID)
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, svc.CreateAttendee(ctx, accountID))
	require.NoError(t, svc.CreateAttendee(ctx, accountID)) // idempotent

	valid, err = svc.IsValidAttendee(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svc.IsValidOrganizer(ctx, accountID)
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, svc.CreateOrganizer(ctx, accountID))
	valid, err = svc.IsValidOrganizer(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, valid)

	assert.ErrorIs(t, svc.CreateAttendee(ctx, uuid.New()), domain.ErrAccountNotFound)
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()

	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo)
	accountID := uuid.New()

	require.NoError(t, svc.Send(ctx, accountID, "Tickets purchased", "You bought 2 ticket(s).", fixedNow()))
	require.NoError(t, svc.Send(ctx, accountID, "Ticket cancelled", "Refund issued.", fixedNow()))
	require.NoError(t, svc.Send(ctx, uuid.New(), "Other", "Not yours.", fixedNow()))

	notifications, err := svc.GetNotifications(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.False(t, notifications[0].IsRead)

	require.NoError(t, svc.MarkRead(ctx, notifications[0].ID, accountID))
	assert.ErrorIs(t, svc.MarkRead(ctx, notifications[1].ID, uuid.New()), domain.ErrNotificationNotFound)

	require.NoError(t, svc.MarkAllRead(ctx, accountID))
	notifications, err = svc.GetNotifications(ctx, accountID)
	require.NoError(t, err)
	for _, n := range notifications {
		assert.True(t, n.IsRead)
	}
}
