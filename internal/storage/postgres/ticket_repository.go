package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *TicketRepository) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return withSavepoint(ctx, fn)
}

// GetTicketOptions resolves options without locking. Missing ids are simply
// absent from the result.
func (r *TicketRepository) GetTicketOptions(ctx context.Context, ids []uuid.UUID) ([]domain.TicketOption, error) {
	return r.queryOptions(ctx, optionColumns+` FROM ticket_options WHERE id = ANY($1::uuid[]) ORDER BY id`, ids)
}

// GetTicketOptionsForUpdate resolves options and takes row locks on them,
// in id order so concurrent purchases of overlapping baskets cannot
// deadlock. The locks serialize the capacity check with the ticket insert.
func (r *TicketRepository) GetTicketOptionsForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.TicketOption, error) {
	return r.queryOptions(ctx, optionColumns+` FROM ticket_options WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, ids)
}

const optionColumns = `SELECT id, event_id, name, description, additional_price, amount_available`

func (r *TicketRepository) queryOptions(ctx context.Context, query string, ids []uuid.UUID) ([]domain.TicketOption, error) {
	rows, err := r.query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("query ticket options: %w", err)
	}
	defer rows.Close()

	var options []domain.TicketOption
	for rows.Next() {
		var o domain.TicketOption
		if err := rows.Scan(&o.ID, &o.EventID, &o.Name, &o.Description, &o.AdditionalPrice, &o.AmountAvailable); err != nil {
			return nil, fmt.Errorf("scan ticket option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// CountTicketsByOption counts live tickets per option id.
func (r *TicketRepository) CountTicketsByOption(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	const query = `
SELECT ticket_option_id, COUNT(*)
FROM tickets
WHERE ticket_option_id = ANY($1::uuid[])
GROUP BY ticket_option_id`

	rows, err := r.query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("count tickets by option: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan ticket count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *TicketRepository) AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendees WHERE account_id = $1)`
	var exists bool
	if err := r.queryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("attendee exists: %w", err)
	}
	return exists, nil
}

func (r *TicketRepository) InsertTicket(ctx context.Context, t domain.Ticket) error {
	const stmt = `
INSERT INTO tickets (id, ticket_option_id, attendee_id, price, purchased_at,
	holder_full_name, holder_email, holder_phone_number, is_reviewed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		t.ID,
		t.Option.ID,
		t.AttendeeID,
		t.Price,
		t.PurchasedAt,
		t.HolderFullName,
		t.HolderEmail,
		t.HolderPhoneNumber,
		t.IsReviewed,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTicketOptionNotFound
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// AddEventSold adjusts the sold counter by delta, clamped at zero.
func (r *TicketRepository) AddEventSold(ctx context.Context, eventID uuid.UUID, delta int) error {
	const stmt = `UPDATE events SET sold = GREATEST(sold + $2, 0) WHERE id = $1`

	tag, err := r.exec(ctx, stmt, eventID, delta)
	if err != nil {
		return fmt.Errorf("update sold counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

const ticketColumns = `
SELECT t.id, t.attendee_id, t.price, t.purchased_at,
	t.holder_full_name, t.holder_email, t.holder_phone_number, t.is_reviewed,
	o.id, o.event_id, o.name, o.description, o.additional_price, o.amount_available,
	e.organizer_id
FROM tickets t
JOIN ticket_options o ON o.id = t.ticket_option_id
JOIN events e ON e.id = o.event_id`

// GetTicket is the read-path lookup; a missing ticket yields (nil, nil).
func (r *TicketRepository) GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	t, err := r.scanTicket(r.queryRow(ctx, ticketColumns+` WHERE t.id = $1`, ticketID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &t, nil
}

// GetTicketForUpdate locks the ticket row for a pending mutation.
func (r *TicketRepository) GetTicketForUpdate(ctx context.Context, ticketID uuid.UUID) (domain.Ticket, error) {
	t, err := r.scanTicket(r.queryRow(ctx, ticketColumns+` WHERE t.id = $1 FOR UPDATE OF t`, ticketID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket for update: %w", err)
	}
	return t, nil
}

func (r *TicketRepository) scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.AttendeeID, &t.Price, &t.PurchasedAt,
		&t.HolderFullName, &t.HolderEmail, &t.HolderPhoneNumber, &t.IsReviewed,
		&t.Option.ID, &t.Option.EventID, &t.Option.Name, &t.Option.Description,
		&t.Option.AdditionalPrice, &t.Option.AmountAvailable,
		&t.OrganizerID,
	)
	if err != nil {
		return domain.Ticket{}, err
	}
	t.EventID = t.Option.EventID
	return t, nil
}

func (r *TicketRepository) DeleteTicketRow(ctx context.Context, ticketID uuid.UUID) error {
	const stmt = `DELETE FROM tickets WHERE id = $1`

	tag, err := r.exec(ctx, stmt, ticketID)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) ListTicketsByAttendee(ctx context.Context, accountID uuid.UUID) ([]domain.Ticket, error) {
	return r.queryTickets(ctx, ticketColumns+` WHERE t.attendee_id = $1 ORDER BY t.purchased_at DESC, t.id`, accountID)
}

func (r *TicketRepository) ListTicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	return r.queryTickets(ctx, ticketColumns+` WHERE o.event_id = $1 ORDER BY t.purchased_at DESC, t.id`, eventID)
}

// ListAttendance returns tickets for all events owned by the organizer,
// optionally narrowed to one event, newest first.
func (r *TicketRepository) ListAttendance(ctx context.Context, organizerID uuid.UUID, eventID *uuid.UUID) ([]domain.Ticket, error) {
	if eventID != nil {
		return r.queryTickets(ctx,
			ticketColumns+` WHERE e.organizer_id = $1 AND e.id = $2 ORDER BY t.purchased_at DESC, t.id`,
			organizerID, *eventID)
	}
	return r.queryTickets(ctx,
		ticketColumns+` WHERE e.organizer_id = $1 ORDER BY t.purchased_at DESC, t.id`,
		organizerID)
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := r.scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateHolder rewrites the holder snapshot and clears the review flag; an
// edit always invalidates a prior organizer approval.
func (r *TicketRepository) UpdateHolder(ctx context.Context, ticketID uuid.UUID, fullName, email, phone string) error {
	const stmt = `
UPDATE tickets
SET holder_full_name = $2, holder_email = $3, holder_phone_number = $4, is_reviewed = FALSE
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, ticketID, fullName, email, phone)
	if err != nil {
		return fmt.Errorf("update holder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) SetReviewed(ctx context.Context, ticketID uuid.UUID) error {
	const stmt = `UPDATE tickets SET is_reviewed = TRUE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, ticketID)
	if err != nil {
		return fmt.Errorf("set reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) IsTicketOwner(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1 AND attendee_id = $2)`
	var owner bool
	if err := r.queryRow(ctx, query, ticketID, accountID).Scan(&owner); err != nil {
		return false, fmt.Errorf("is ticket owner: %w", err)
	}
	return owner, nil
}

func (r *TicketRepository) IsTicketOrganizer(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM tickets t
	JOIN ticket_options o ON o.id = t.ticket_option_id
	JOIN events e ON e.id = o.event_id
	WHERE t.id = $1 AND e.organizer_id = $2
)`
	var organizer bool
	if err := r.queryRow(ctx, query, ticketID, accountID).Scan(&organizer); err != nil {
		return false, fmt.Errorf("is ticket organizer: %w", err)
	}
	return organizer, nil
}

// CountEventsOverlapping counts the organizer's events whose date range
// intersects [from, to).
func (r *TicketRepository) CountEventsOverlapping(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM events
WHERE organizer_id = $1 AND start_date < $3 AND end_date >= $2`

	var n int
	if err := r.queryRow(ctx, query, organizerID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events overlapping: %w", err)
	}
	return n, nil
}

// TicketAggregates returns count, price sum and reviewed count for tickets
// purchased in [from, to) across the organizer's events.
func (r *TicketRepository) TicketAggregates(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (int, decimal.Decimal, int, error) {
	const query = `
SELECT COUNT(*), COALESCE(SUM(t.price), 0), COUNT(*) FILTER (WHERE t.is_reviewed)
FROM tickets t
JOIN ticket_options o ON o.id = t.ticket_option_id
JOIN events e ON e.id = o.event_id
WHERE e.organizer_id = $1 AND t.purchased_at >= $2 AND t.purchased_at < $3`

	var count, reviewed int
	var sales decimal.Decimal
	if err := r.queryRow(ctx, query, organizerID, from, to).Scan(&count, &sales, &reviewed); err != nil {
		return 0, decimal.Zero, 0, fmt.Errorf("ticket aggregates: %w", err)
	}
	return count, sales, reviewed, nil
}

// DailySales sums ticket prices per day of month for purchases in [from, to).
func (r *TicketRepository) DailySales(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (map[int]decimal.Decimal, error) {
	const query = `
SELECT EXTRACT(DAY FROM t.purchased_at AT TIME ZONE 'UTC')::int, SUM(t.price)
FROM tickets t
JOIN ticket_options o ON o.id = t.ticket_option_id
JOIN events e ON e.id = o.event_id
WHERE e.organizer_id = $1 AND t.purchased_at >= $2 AND t.purchased_at < $3
GROUP BY 1
ORDER BY 1`

	rows, err := r.query(ctx, query, organizerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	sales := make(map[int]decimal.Decimal)
	for rows.Next() {
		var day int
		var sum decimal.Decimal
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		sales[day] = sum
	}
	return sales, rows.Err()
}

func (r *TicketRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TicketRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *TicketRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
