package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *EventRepository) OrganizerExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM organizers WHERE account_id = $1)`, accountID)
}

func (r *EventRepository) AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM attendees WHERE account_id = $1)`, accountID)
}

func (r *EventRepository) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID)
}

func (r *EventRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.queryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return ok, nil
}

func (r *EventRepository) InsertEvent(ctx context.Context, e domain.Event) error {
	const stmt = `
INSERT INTO events (id, organizer_id, name, description, start_date, end_date,
	location, price, banner_uri)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		e.ID, e.Organizer.ID, e.Name, e.Description, e.StartDate, e.EndDate,
		e.Location, e.Price, e.BannerURI,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// UpdateEvent rewrites the editable fields. The interested and sold counters
// are deliberately untouched: only the saved-event and ticket paths move
// them.
func (r *EventRepository) UpdateEvent(ctx context.Context, e domain.Event) error {
	const stmt = `
UPDATE events
SET name = $2, description = $3, start_date = $4, end_date = $5,
	location = $6, price = $7, banner_uri = $8
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		e.ID, e.Name, e.Description, e.StartDate, e.EndDate,
		e.Location, e.Price, e.BannerURI,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// UpsertTicketOption adds a new option or updates an existing one. Options
// are never deleted once created; live tickets may reference them.
func (r *EventRepository) UpsertTicketOption(ctx context.Context, eventID uuid.UUID, o domain.TicketOption) error {
	const stmt = `
INSERT INTO ticket_options (id, event_id, name, description, additional_price, amount_available)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, description = EXCLUDED.description,
	additional_price = EXCLUDED.additional_price,
	amount_available = EXCLUDED.amount_available
WHERE ticket_options.event_id = EXCLUDED.event_id`

	_, err := r.exec(ctx, stmt, o.ID, eventID, o.Name, o.Description, o.AdditionalPrice, o.AmountAvailable)
	if err != nil {
		return fmt.Errorf("upsert ticket option: %w", err)
	}
	return nil
}

// ReplaceEventCategories swaps the event's category set wholesale.
func (r *EventRepository) ReplaceEventCategories(ctx context.Context, eventID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM event_categories WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear event categories: %w", err)
	}

	const stmt = `
INSERT INTO event_categories (event_id, category_id)
SELECT $1, id FROM categories WHERE id = ANY($2::uuid[])`

	if _, err := r.exec(ctx, stmt, eventID, uuidStrings(categoryIDs)); err != nil {
		return fmt.Errorf("insert event categories: %w", err)
	}
	return nil
}

const eventColumns = `
SELECT e.id, e.organizer_id, COALESCE(NULLIF(a.company, ''), a.email), a.email,
	e.name, e.description, e.start_date, e.end_date, e.location, e.price,
	e.interested, e.sold, e.banner_uri
FROM events e
JOIN accounts a ON a.id = e.organizer_id`

// GetEvent is the read-path lookup; a missing event yields (nil, nil).
func (r *EventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(r.queryRow(ctx, eventColumns+` WHERE e.id = $1`, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// GetEventForUpdate locks the event row; missing events are a hard error.
func (r *EventRepository) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	e, err := scanEvent(r.queryRow(ctx, eventColumns+` WHERE e.id = $1 FOR UPDATE OF e`, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event for update: %w", err)
	}
	return e, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Organizer.ID, &e.Organizer.Name, &e.Organizer.Email,
		&e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Location, &e.Price,
		&e.Interested, &e.Sold, &e.BannerURI,
	)
	return e, err
}

func (r *EventRepository) ListEventOptions(ctx context.Context, eventID uuid.UUID) ([]domain.TicketOption, error) {
	const query = `
SELECT id, event_id, name, description, additional_price, amount_available
FROM ticket_options
WHERE event_id = $1
ORDER BY additional_price, name`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event options: %w", err)
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

func (r *EventRepository) ListEventCategories(ctx context.Context, eventID uuid.UUID) ([]domain.Category, error) {
	const query = `
SELECT c.id, c.name, c.image_uri
FROM event_categories ec
JOIN categories c ON c.id = ec.category_id
WHERE ec.event_id = $1
ORDER BY c.name`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURI); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteEventRow removes the event. Ticket options and saved events cascade;
// a live ticket blocks the cascade through its RESTRICT reference and
// surfaces as ErrEventHasTickets.
func (r *EventRepository) DeleteEventRow(ctx context.Context, eventID uuid.UUID) error {
	tag, err := r.exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventHasTickets
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventColumns+` WHERE e.organizer_id = $1 ORDER BY e.start_date DESC`, organizerID)
}

// FindEvents applies the zero-value-ignored filter set.
func (r *EventRepository) FindEvents(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.CategoryIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM event_categories ec WHERE ec.event_id = e.id AND ec.category_id = ANY(%s::uuid[]))`,
			arg(uuidStrings(f.CategoryIDs))))
	}
	if f.MinDate != nil {
		conds = append(conds, "e.start_date >= "+arg(*f.MinDate))
	}
	if f.MaxDate != nil {
		conds = append(conds, "e.end_date <= "+arg(*f.MaxDate))
	}
	if f.MinPrice != nil {
		conds = append(conds, "e.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "e.price <= "+arg(*f.MaxPrice))
	}
	if len(f.Locations) > 0 {
		lowered := make([]string, len(f.Locations))
		for i, l := range f.Locations {
			lowered[i] = strings.ToLower(l)
		}
		conds = append(conds, "LOWER(e.location) = ANY("+arg(lowered)+")")
	}
	for _, kw := range strings.Fields(strings.ToLower(f.Keywords)) {
		pattern := "%" + kw + "%"
		p := arg(pattern)
		conds = append(conds, fmt.Sprintf("(e.name ILIKE %s OR e.description ILIKE %s)", p, p))
	}

	query := eventColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.start_date"

	return r.queryEvents(ctx, query, args...)
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) InsertSavedEvent(ctx context.Context, se domain.SavedEvent) error {
	const stmt = `INSERT INTO saved_events (id, attendee_id, event_id) VALUES ($1, $2, $3)`

	_, err := r.exec(ctx, stmt, se.ID, se.AttendeeID, se.EventID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEventAlreadySaved
		}
		return fmt.Errorf("insert saved event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetSavedEvent(ctx context.Context, savedEventID uuid.UUID) (domain.SavedEvent, error) {
	const query = `SELECT id, attendee_id, event_id FROM saved_events WHERE id = $1`

	var se domain.SavedEvent
	err := r.queryRow(ctx, query, savedEventID).Scan(&se.ID, &se.AttendeeID, &se.EventID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SavedEvent{}, domain.ErrSavedEventNotFound
		}
		return domain.SavedEvent{}, fmt.Errorf("get saved event: %w", err)
	}
	return se, nil
}

func (r *EventRepository) DeleteSavedEventRow(ctx context.Context, savedEventID uuid.UUID) error {
	tag, err := r.exec(ctx, `DELETE FROM saved_events WHERE id = $1`, savedEventID)
	if err != nil {
		return fmt.Errorf("delete saved event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSavedEventNotFound
	}
	return nil
}

// AddEventInterested adjusts the interested counter by delta, clamped at
// zero.
func (r *EventRepository) AddEventInterested(ctx context.Context, eventID uuid.UUID, delta int) error {
	const stmt = `UPDATE events SET interested = GREATEST(interested + $2, 0) WHERE id = $1`

	tag, err := r.exec(ctx, stmt, eventID, delta)
	if err != nil {
		return fmt.Errorf("update interested counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) ListSavedEvents(ctx context.Context, attendeeID uuid.UUID) ([]domain.Event, error) {
	const query = eventColumns + `
JOIN saved_events se ON se.event_id = e.id
WHERE se.attendee_id = $1
ORDER BY e.start_date`
	return r.queryEvents(ctx, query, attendeeID)
}

// CheckSavedEvents returns the saved-event rows the attendee holds for any
// of the given events, one batched query for listing annotation.
func (r *EventRepository) CheckSavedEvents(ctx context.Context, attendeeID uuid.UUID, eventIDs []uuid.UUID) ([]domain.SavedEvent, error) {
	const query = `
SELECT id, attendee_id, event_id
FROM saved_events
WHERE attendee_id = $1 AND event_id = ANY($2::uuid[])`

	rows, err := r.query(ctx, query, attendeeID, uuidStrings(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("check saved events: %w", err)
	}
	defer rows.Close()

	var saved []domain.SavedEvent
	for rows.Next() {
		var se domain.SavedEvent
		if err := rows.Scan(&se.ID, &se.AttendeeID, &se.EventID); err != nil {
			return nil, fmt.Errorf("scan saved event: %w", err)
		}
		saved = append(saved, se)
	}
	return saved, rows.Err()
}

// GetPrices returns the effective price (event base + option additional) per
// option id. Missing ids are absent from the result.
func (r *EventRepository) GetPrices(ctx context.Context, optionIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	const query = `
SELECT o.id, e.price + o.additional_price
FROM ticket_options o
JOIN events e ON e.id = o.event_id
WHERE o.id = ANY($1::uuid[])`

	rows, err := r.query(ctx, query, uuidStrings(optionIDs))
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

// GetEventByOptions resolves the single event all the given options belong
// to. Zero or multiple distinct events is ErrTicketOptionNotFound.
func (r *EventRepository) GetEventByOptions(ctx context.Context, optionIDs []uuid.UUID) (domain.Event, error) {
	const query = `
SELECT DISTINCT e.id
FROM ticket_options o
JOIN events e ON e.id = o.event_id
WHERE o.id = ANY($1::uuid[])`

	rows, err := r.query(ctx, query, uuidStrings(optionIDs))
	if err != nil {
		return domain.Event{}, fmt.Errorf("event by options: %w", err)
	}
	defer rows.Close()

	var eventIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return domain.Event{}, fmt.Errorf("scan event id: %w", err)
		}
		eventIDs = append(eventIDs, id)
	}
	if err := rows.Err(); err != nil {
		return domain.Event{}, err
	}
	if len(eventIDs) != 1 {
		return domain.Event{}, domain.ErrTicketOptionNotFound
	}

	e, err := r.GetEvent(ctx, eventIDs[0])
	if err != nil {
		return domain.Event{}, err
	}
	if e == nil {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return *e, nil
}

func (r *EventRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, image_uri FROM categories ORDER BY name`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURI); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *EventRepository) CountCategories(ctx context.Context, ids []uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM categories WHERE id = ANY($1::uuid[])`

	var n int
	if err := r.queryRow(ctx, query, uuidStrings(ids)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func (r *EventRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *EventRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *EventRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
