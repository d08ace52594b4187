package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
	"github.com/trananhduc/event-assistant/internal/core/ports"
	"github.com/trananhduc/event-assistant/internal/observability/metrics"
)

var affirmativeTokens = []string{"có", "ok", "tiếp tục"}

const negativeToken = "không"

// ChatAgentUseCase owns one conversational turn: history bookkeeping,
// generative call, action extraction and execution, and the
// pending-confirmation state machine. Callers serialize turns per session
// key; see the SessionStore contract.
type ChatAgentUseCase struct {
	generator ports.TextGenerator
	sessions  ports.SessionStore
	intents   ports.IntentResolver
	events    ports.EventStore
	places    ports.PlaceStore
	weather   ports.WeatherProvider
	notifier  ports.NotificationPublisher
	metrics   *metrics.AgentMetrics
	service   string
	now       func() time.Time
}

func NewChatAgentUseCase(
	generator ports.TextGenerator,
	sessions ports.SessionStore,
	intents ports.IntentResolver,
	events ports.EventStore,
	places ports.PlaceStore,
	weather ports.WeatherProvider,
	notifier ports.NotificationPublisher,
	agentMetrics *metrics.AgentMetrics,
	service string,
) *ChatAgentUseCase {
	return &ChatAgentUseCase{
		generator: generator,
		sessions:  sessions,
		intents:   intents,
		events:    events,
		places:    places,
		weather:   weather,
		notifier:  notifier,
		metrics:   agentMetrics,
		service:   service,
		now:       time.Now,
	}
}

func (uc *ChatAgentUseCase) HandleMessage(ctx context.Context, sessionKey, userID, text string) (*domain.ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &domain.ChatReply{Message: replyNotUnderstood}, nil
	}

	if pending, ok := uc.sessions.PendingEvent(sessionKey); ok {
		return uc.resolvePendingEvent(ctx, sessionKey, pending, text), nil
	}

	history := uc.sessions.History(sessionKey)
	if len(history) == 0 {
		system := domain.ChatMessage{Role: domain.RoleSystem, Content: BuildSystemPrompt(uc.now())}
		uc.sessions.AppendMessage(sessionKey, system)
		history = append(history, system)
	}
	userMsg := domain.ChatMessage{Role: domain.RoleUser, Content: text}
	uc.sessions.AppendMessage(sessionKey, userMsg)
	history = append(history, userMsg)

	started := uc.now()
	raw, err := uc.generator.Generate(ctx, history)
	uc.metrics.RecordGenerateDuration(uc.service, time.Since(started))
	if err != nil {
		slog.Warn("generate_failed", "session", sessionKey, "error", err)
		uc.metrics.RecordChatTurn(uc.service, "generator_error")
		return uc.finishTurn(sessionKey, &domain.ChatReply{Message: replyGenerateFailed}), nil
	}

	output := ParseModelOutput(raw)
	if output.Kind == domain.ModelOutputActions {
		lines, refresh := uc.executeActions(ctx, sessionKey, output.Actions)
		parts := make([]string, 0, len(lines)+1)
		if output.Text != "" {
			parts = append(parts, output.Text)
		}
		parts = append(parts, lines...)
		uc.metrics.RecordChatTurn(uc.service, "actions")
		return uc.finishTurn(sessionKey, &domain.ChatReply{
			Message:       strings.Join(parts, "\n\n"),
			ShouldRefresh: refresh,
		}), nil
	}

	if output.Text != "" {
		uc.metrics.RecordChatTurn(uc.service, "text")
		return uc.finishTurn(sessionKey, &domain.ChatReply{Message: output.Text}), nil
	}

	uc.metrics.RecordChatTurn(uc.service, "classifier")
	return uc.finishTurn(sessionKey, uc.classifierFallback(ctx, text)), nil
}

func (uc *ChatAgentUseCase) DeleteHistory(_ context.Context, sessionKey string) error {
	uc.sessions.ClearPendingEvent(sessionKey)
	uc.sessions.DeleteSession(sessionKey)
	return nil
}

// finishTurn appends the assistant reply to history before returning it.
func (uc *ChatAgentUseCase) finishTurn(sessionKey string, reply *domain.ChatReply) *domain.ChatReply {
	uc.sessions.AppendMessage(sessionKey, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Message})
	return reply
}

// resolvePendingEvent interprets the message as yes/no/other for the
// stored event. The generative client is bypassed entirely.
func (uc *ChatAgentUseCase) resolvePendingEvent(ctx context.Context, sessionKey string, pending *domain.PendingEvent, text string) *domain.ChatReply {
	lowered := strings.ToLower(text)

	for _, token := range affirmativeTokens {
		if strings.Contains(lowered, token) {
			if err := uc.events.Create(ctx, pending.Event); err != nil {
				slog.Warn("pending_event_create_failed", "session", sessionKey, "error", err)
				return &domain.ChatReply{Message: "Xin lỗi, tôi chưa thể tạo sự kiện lúc này. Bạn thử xác nhận lại sau nhé."}
			}
			uc.sessions.ClearPendingEvent(sessionKey)
			uc.metrics.PendingEventStored(-1)
			uc.publishEventChange(ctx, domain.EventChangeCreated, pending.Event)
			return &domain.ChatReply{
				Message:       fmt.Sprintf("Đã tạo sự kiện \"%s\".", pending.Event.Title),
				ShouldRefresh: true,
			}
		}
	}

	if strings.Contains(lowered, negativeToken) {
		uc.sessions.ClearPendingEvent(sessionKey)
		uc.metrics.PendingEventStored(-1)
		return &domain.ChatReply{Message: fmt.Sprintf("Đã huỷ tạo sự kiện \"%s\".", pending.Event.Title)}
	}

	return &domain.ChatReply{
		Message: fmt.Sprintf("%s %s", pending.WeatherNote, replyPendingReprompt),
	}
}

func (uc *ChatAgentUseCase) classifierFallback(ctx context.Context, text string) *domain.ChatReply {
	switch uc.intents.ClassifyIntent(ctx, text) {
	case domain.IntentFreeTime:
		return uc.freeTimeReply(ctx)
	case domain.IntentScheduleSummary:
		return uc.scheduleSummaryReply(ctx)
	case domain.IntentTicketInfo:
		return &domain.ChatReply{Message: replyTicketInfoHint}
	default:
		return &domain.ChatReply{Message: replyNotUnderstood}
	}
}

func (uc *ChatAgentUseCase) freeTimeReply(ctx context.Context) *domain.ChatReply {
	dayStart := uc.now().Truncate(24 * time.Hour)
	events, err := uc.events.ListBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		slog.Warn("free_time_lookup_failed", "error", err)
		return &domain.ChatReply{Message: replyGenerateFailed}
	}
	if len(events) == 0 {
		return &domain.ChatReply{Message: "Hôm nay bạn không có sự kiện nào, bạn rảnh cả ngày."}
	}

	busy := make([]string, 0, len(events))
	for _, event := range events {
		busy = append(busy, fmt.Sprintf("%s–%s (%s)", event.StartTime.Format("15:04"), event.EndTime.Format("15:04"), event.Title))
	}
	return &domain.ChatReply{
		Message: fmt.Sprintf("Hôm nay bạn bận các khung giờ: %s. Ngoài các khung giờ trên bạn đều rảnh.", strings.Join(busy, ", ")),
	}
}

func (uc *ChatAgentUseCase) scheduleSummaryReply(ctx context.Context) *domain.ChatReply {
	from := uc.now().Truncate(24 * time.Hour)
	events, err := uc.events.ListBetween(ctx, from, from.AddDate(0, 0, 7))
	if err != nil {
		slog.Warn("schedule_summary_failed", "error", err)
		return &domain.ChatReply{Message: replyGenerateFailed}
	}
	if len(events) == 0 {
		return &domain.ChatReply{Message: "Bạn không có sự kiện nào trong 7 ngày tới."}
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, "Lịch sự kiện 7 ngày tới của bạn:")
	for _, event := range events {
		lines = append(lines, fmt.Sprintf("- %s: %s đến %s", event.Title, event.StartTime.Format("15:04 02/01"), event.EndTime.Format("15:04 02/01")))
	}
	return &domain.ChatReply{Message: strings.Join(lines, "\n")}
}

func (uc *ChatAgentUseCase) publishEventChange(ctx context.Context, op string, event *domain.Event) {
	if uc.notifier == nil {
		return
	}
	change := domain.EventChange{Op: op, EventID: event.ID, Title: event.Title}
	if err := uc.notifier.PublishEventChanged(ctx, change); err != nil {
		slog.Warn("publish_event_change_failed", "op", op, "event_id", event.ID, "error", err)
	}
}
