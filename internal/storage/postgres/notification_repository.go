package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, accountID uuid.UUID) ([]domain.Notification, error) {
	const query = `
SELECT id, account_id, created_at, topic, message, is_read
FROM notifications
WHERE account_id = $1
ORDER BY created_at DESC, id`

	rows, err := r.query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.CreatedAt, &n.Topic, &n.Message, &n.IsRead); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) InsertNotification(ctx context.Context, n domain.Notification) error {
	const stmt = `
INSERT INTO notifications (id, account_id, created_at, topic, message, is_read)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, n.ID, n.AccountID, n.CreatedAt, n.Topic, n.Message, n.IsRead)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkRead flips the read flag on one notification owned by the account.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, accountID uuid.UUID) error {
	const stmt = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND account_id = $2`

	tag, err := r.exec(ctx, stmt, notificationID, accountID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	const stmt = `UPDATE notifications SET is_read = TRUE WHERE account_id = $1 AND NOT is_read`

	if _, err := r.exec(ctx, stmt, accountID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *NotificationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
