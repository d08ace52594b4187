package domain

import (
	"strings"
	"time"
)

type TicketType struct {
	ID       int64  `json:"id"`
	EventID  int64  `json:"event_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}

func (t TicketType) SoldOut() bool {
	return t.Quantity > 0 && t.Sold >= t.Quantity
}

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

type Participant struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// MissingFields lists the required participant fields that are still blank.
func (p Participant) MissingFields() []string {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(p.Phone) == "" {
		missing = append(missing, "phone")
	}
	return missing
}

type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	EventID      int64       `json:"event_id"`
	TicketTypeID int64       `json:"ticket_type_id"`
	Participant  Participant `json:"participant"`
	TotalPrice   int64       `json:"total_price"`
	Status       OrderStatus `json:"status"`
	PaymentURL   string      `json:"payment_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type OrderStep string

const (
	StepSelectTicketType OrderStep = "SELECT_TICKET_TYPE"
	StepProvideInfo      OrderStep = "PROVIDE_INFO"
	StepConfirmOrder     OrderStep = "CONFIRM_ORDER"
)

// PendingOrder is the per-user purchase dialogue state. Exactly one may
// exist per user; a new start overwrites any incomplete one.
type PendingOrder struct {
	UserID      string      `json:"user_id"`
	Event       *Event      `json:"event"`
	TicketType  *TicketType `json:"ticket_type,omitempty"`
	Participant Participant `json:"participant"`
	Step        OrderStep   `json:"step"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
