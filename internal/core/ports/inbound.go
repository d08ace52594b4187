package ports

import (
	"context"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// ChatAgent is the inbound contract for one conversational turn.
type ChatAgent interface {
	HandleMessage(ctx context.Context, sessionKey, userID, text string) (*domain.ChatReply, error)
	DeleteHistory(ctx context.Context, sessionKey string) error
}

// OrderDialogue is the inbound contract for the ticket-purchase state machine.
type OrderDialogue interface {
	Start(ctx context.Context, userID, eventQuery string) (*domain.ChatReply, error)
	SelectTicketType(ctx context.Context, userID, name string) (*domain.ChatReply, error)
	ProvideInfo(ctx context.Context, userID string, fields map[string]string) (*domain.ChatReply, error)
	Confirm(ctx context.Context, userID string) (*domain.ChatReply, error)
	Cancel(ctx context.Context, userID string) (*domain.ChatReply, error)
}
