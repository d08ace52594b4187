package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, start_time, end_time, type, status, image_url, benefits, parent_event_id, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
INSERT INTO events (title, description, start_time, end_time, type, status, image_url, benefits, parent_event_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING id
`, event.Title, event.Description, event.StartTime, event.EndTime, string(event.Type), string(event.Status),
		event.ImageURL, event.Benefits, nullableInt64(event.ParentEventID), now)
	if err := row.Scan(&event.ID); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err := replacePlaces(ctx, tx, event.ID, event.Places); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE events
SET title = $2, description = $3, start_time = $4, end_time = $5, type = $6, status = $7,
    image_url = $8, benefits = $9, parent_event_id = $10, updated_at = $11
WHERE id = $1
`, event.ID, event.Title, event.Description, event.StartTime, event.EndTime, string(event.Type), string(event.Status),
		event.ImageURL, event.Benefits, nullableInt64(event.ParentEventID), event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrEventNotFound
	}

	if err := replacePlaces(ctx, tx, event.ID, event.Places); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return r.scanOne(ctx, row)
}

// FindByTitle resolves title lookups deterministically: exact title, lowest
// id wins when several events share it.
func (r *EventRepository) FindByTitle(ctx context.Context, title string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+eventColumns+` FROM events WHERE title = $1 ORDER BY id ASC LIMIT 1`, title)
	return r.scanOne(ctx, row)
}

func (r *EventRepository) SearchPublicByTitle(ctx context.Context, query string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+eventColumns+` FROM events
WHERE status = $1 AND title ILIKE '%' || $2 || '%'
ORDER BY id ASC LIMIT 1`, string(domain.EventStatusPublic), query)
	return r.scanOne(ctx, row)
}

func (r *EventRepository) ListConflicting(ctx context.Context, placeID int64, start, end time.Time) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.type, e.status, e.image_url, e.benefits, e.parent_event_id, e.created_at, e.updated_at
FROM events e
JOIN event_places ep ON ep.event_id = e.id
WHERE ep.place_id = $1 AND e.start_time < $3 AND e.end_time > $2 AND e.status <> $4
ORDER BY e.start_time ASC`, placeID, start, end, string(domain.EventStatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("list conflicting events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *EventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+eventColumns+` FROM events
WHERE start_time >= $1 AND start_time < $2 AND status <> $3
ORDER BY start_time ASC`, from, to, string(domain.EventStatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("list events between: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *EventRepository) scanOne(ctx context.Context, row *sql.Row) (*domain.Event, error) {
	event, err := scanEventRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	places, err := r.loadPlaces(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.Places = places
	return event, nil
}

func (r *EventRepository) loadPlaces(ctx context.Context, eventID int64) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.name, p.address
FROM places p
JOIN event_places ep ON ep.place_id = p.id
WHERE ep.event_id = $1
ORDER BY p.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event places: %w", err)
	}
	defer rows.Close()

	var out []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Address); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func replacePlaces(ctx context.Context, tx *sql.Tx, eventID int64, places []domain.Place) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_places WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear event places: %w", err)
	}
	for _, place := range places {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO event_places (event_id, place_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
`, eventID, place.ID); err != nil {
			return fmt.Errorf("insert event place: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventRow(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	var eventType, status string
	var parentID sql.NullInt64
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&eventType,
		&status,
		&event.ImageURL,
		&event.Benefits,
		&parentID,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.Type = domain.EventType(eventType)
	event.Status = domain.EventStatus(status)
	if parentID.Valid {
		event.ParentEventID = &parentID.Int64
	}
	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *event)
	}
	return out, rows.Err()
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

type PlaceRepository struct {
	db *sql.DB
}

func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

func (r *PlaceRepository) FindByName(ctx context.Context, name string) (*domain.Place, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, address FROM places WHERE LOWER(name) = LOWER($1) ORDER BY id ASC LIMIT 1`, name)

	var place domain.Place
	if err := row.Scan(&place.ID, &place.Name, &place.Address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPlaceNotFound
		}
		return nil, fmt.Errorf("find place by name: %w", err)
	}
	return &place, nil
}
