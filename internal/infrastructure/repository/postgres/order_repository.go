package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

type TicketTypeRepository struct {
	db *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) *TicketTypeRepository {
	return &TicketTypeRepository{db: db}
}

func (r *TicketTypeRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, event_id, name, price, quantity, sold
FROM ticket_types
WHERE event_id = $1
ORDER BY id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	defer rows.Close()

	var out []domain.TicketType
	for rows.Next() {
		var t domain.TicketType
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity, &t.Sold); err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and claims one ticket atomically; it fails
// without side effects when the ticket type sold out in the meantime.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE ticket_types SET sold = sold + 1 WHERE id = $1 AND sold < quantity`, order.TicketTypeID)
	if err != nil {
		return fmt.Errorf("claim ticket: %w", err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim ticket rows affected: %w", err)
	}
	if claimed == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "create order", fmt.Errorf("ticket type %d is sold out", order.TicketTypeID))
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO orders (id, user_id, event_id, ticket_type_id, participant_name, participant_email, participant_phone, organization, notes, total_price, status, payment_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`, order.ID, order.UserID, order.EventID, order.TicketTypeID,
		order.Participant.Name, order.Participant.Email, order.Participant.Phone,
		order.Participant.Organization, order.Participant.Notes,
		order.TotalPrice, string(order.Status), order.PaymentURL, order.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return tx.Commit()
}

func (r *OrderRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, event_id, ticket_type_id, participant_name, participant_email, participant_phone, organization, notes, total_price, status, payment_url, created_at
FROM orders
WHERE event_id = $1
ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list orders by event: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.EventID, &o.TicketTypeID,
			&o.Participant.Name, &o.Participant.Email, &o.Participant.Phone,
			&o.Participant.Organization, &o.Participant.Notes,
			&o.TotalPrice, &status, &o.PaymentURL, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
