package ports

import (
	"context"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// EventStore persists and reads event state.
type EventStore interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	// FindByTitle returns the first event with the exact title, lowest id
	// first, or ErrEventNotFound.
	FindByTitle(ctx context.Context, title string) (*domain.Event, error)
	// SearchPublicByTitle fuzzy-matches the title of PUBLIC events only.
	SearchPublicByTitle(ctx context.Context, query string) (*domain.Event, error)
	// ListConflicting returns non-cancelled events at the place whose
	// interval overlaps [start, end).
	ListConflicting(ctx context.Context, placeID int64, start, end time.Time) ([]domain.Event, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error)
}

// PlaceStore resolves venues by name.
type PlaceStore interface {
	FindByName(ctx context.Context, name string) (*domain.Place, error)
}

// TicketTypeStore reads ticket types with sold counts.
type TicketTypeStore interface {
	ListByEvent(ctx context.Context, eventID int64) ([]domain.TicketType, error)
}

// OrderStore persists confirmed orders.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Order, error)
}

// Embedder builds vectors for utterances and example phrases.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the similarity-search collaborator. All writes and
// searches ensure the collection exists first.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, point domain.VectorPoint) error
	UpsertBatch(ctx context.Context, points []domain.VectorPoint) error
	DeleteByID(ctx context.Context, id string) error
	Search(ctx context.Context, vector []float32, limit int, filter *domain.VectorFilter) ([]domain.VectorHit, error)
	EnsurePayloadIndex(ctx context.Context, field string) error
}

// TextGenerator produces a free-text reply for a conversation transcript.
type TextGenerator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// WeatherProvider reports adverse forecast conditions for the reference
// location. An empty note means conditions are fine.
type WeatherProvider interface {
	AdverseNote(ctx context.Context, at time.Time) (string, error)
}

// PaymentLinker builds a payment link for a created order.
type PaymentLinker interface {
	PaymentLink(ctx context.Context, order *domain.Order) (string, error)
}

// SessionStore is process-local keyed chat state. Callers serialize turns
// per session key; the store itself only guarantees map-level safety.
type SessionStore interface {
	History(key string) []domain.ChatMessage
	AppendMessage(key string, msg domain.ChatMessage)
	DeleteSession(key string)

	PendingEvent(key string) (*domain.PendingEvent, bool)
	SetPendingEvent(key string, pending *domain.PendingEvent)
	ClearPendingEvent(key string)

	PendingOrder(userID string) (*domain.PendingOrder, bool)
	SetPendingOrder(userID string, pending *domain.PendingOrder)
	ClearPendingOrder(userID string)
}

// NotificationPublisher hands persisted domain changes to the delivery
// pipeline owned by the outer web layer.
type NotificationPublisher interface {
	PublishEventChanged(ctx context.Context, change domain.EventChange) error
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// IntentResolver classifies utterances. Uncertainty is a normal outcome:
// implementations return UNKNOWN or a sentinel label, never an error.
type IntentResolver interface {
	ClassifyIntent(ctx context.Context, text string) domain.Intent
	ClassifyWeather(ctx context.Context, text string) string
	ClassifyToolEvent(ctx context.Context, text string) string
	ClassifyConfirmIntent(ctx context.Context, text string) domain.ConfirmIntent
}
