package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trananhduc/event-assistant/internal/core/domain"
	"github.com/trananhduc/event-assistant/internal/core/ports"
	"github.com/trananhduc/event-assistant/internal/observability/metrics"
)

// OrderDialogueUseCase walks one user at a time through ticket selection,
// participant info collection and order confirmation. A new Start
// overwrites any incomplete pending order for the same user.
type OrderDialogueUseCase struct {
	events   ports.EventStore
	tickets  ports.TicketTypeStore
	orders   ports.OrderStore
	sessions ports.SessionStore
	payments ports.PaymentLinker
	notifier ports.NotificationPublisher
	metrics  *metrics.AgentMetrics
	service  string
	now      func() time.Time
}

func NewOrderDialogueUseCase(
	events ports.EventStore,
	tickets ports.TicketTypeStore,
	orders ports.OrderStore,
	sessions ports.SessionStore,
	payments ports.PaymentLinker,
	notifier ports.NotificationPublisher,
	agentMetrics *metrics.AgentMetrics,
	service string,
) *OrderDialogueUseCase {
	return &OrderDialogueUseCase{
		events:   events,
		tickets:  tickets,
		orders:   orders,
		sessions: sessions,
		payments: payments,
		notifier: notifier,
		metrics:  agentMetrics,
		service:  service,
		now:      time.Now,
	}
}

// Start finds a PUBLIC event by fuzzy title match and opens the dialogue.
// Events in any other status are not for sale.
func (uc *OrderDialogueUseCase) Start(ctx context.Context, userID, eventQuery string) (*domain.ChatReply, error) {
	eventQuery = strings.TrimSpace(eventQuery)
	if eventQuery == "" {
		return &domain.ChatReply{Message: "Bạn muốn đặt vé cho sự kiện nào? Hãy cho tôi biết tên sự kiện."}, nil
	}

	event, err := uc.events.SearchPublicByTitle(ctx, eventQuery)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			uc.metrics.RecordOrderStep(uc.service, "start", "rejected")
			return &domain.ChatReply{Message: fmt.Sprintf("Không tìm thấy sự kiện đang mở bán vé khớp với \"%s\".", eventQuery)}, nil
		}
		return nil, err
	}

	ticketTypes, err := uc.tickets.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if len(ticketTypes) == 0 {
		uc.metrics.RecordOrderStep(uc.service, "start", "rejected")
		return &domain.ChatReply{Message: fmt.Sprintf("Sự kiện \"%s\" hiện chưa mở bán vé.", event.Title)}, nil
	}

	uc.sessions.SetPendingOrder(userID, &domain.PendingOrder{
		UserID:    userID,
		Event:     event,
		Step:      domain.StepSelectTicketType,
		UpdatedAt: uc.now(),
	})
	uc.metrics.RecordOrderStep(uc.service, "start", "ok")

	lines := make([]string, 0, len(ticketTypes)+2)
	lines = append(lines, fmt.Sprintf("Sự kiện \"%s\" có các loại vé sau:", event.Title))
	for _, t := range ticketTypes {
		if t.SoldOut() {
			lines = append(lines, fmt.Sprintf("- %s: %dđ (đã hết)", t.Name, t.Price))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %dđ", t.Name, t.Price))
	}
	lines = append(lines, "Bạn muốn chọn loại vé nào?")
	return &domain.ChatReply{Message: strings.Join(lines, "\n")}, nil
}

// SelectTicketType matches the requested name as a substring against the
// event's ticket types and rejects sold-out ones.
func (uc *OrderDialogueUseCase) SelectTicketType(ctx context.Context, userID, name string) (*domain.ChatReply, error) {
	pending, ok := uc.sessions.PendingOrder(userID)
	if !ok {
		return &domain.ChatReply{Message: "Bạn chưa bắt đầu đặt vé. Hãy cho tôi biết tên sự kiện trước nhé."}, nil
	}

	ticketTypes, err := uc.tickets.ListByEvent(ctx, pending.Event.ID)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(strings.TrimSpace(name))
	for i := range ticketTypes {
		if !strings.Contains(strings.ToLower(ticketTypes[i].Name), lowered) {
			continue
		}
		if ticketTypes[i].SoldOut() {
			uc.metrics.RecordOrderStep(uc.service, "select_ticket", "rejected")
			return &domain.ChatReply{Message: fmt.Sprintf("Loại vé \"%s\" đã hết, bạn chọn loại khác nhé.", ticketTypes[i].Name)}, nil
		}
		pending.TicketType = &ticketTypes[i]
		pending.Step = domain.StepProvideInfo
		pending.UpdatedAt = uc.now()
		uc.sessions.SetPendingOrder(userID, pending)
		uc.metrics.RecordOrderStep(uc.service, "select_ticket", "ok")
		return &domain.ChatReply{
			Message: fmt.Sprintf("Bạn đã chọn vé \"%s\" (%dđ). Vui lòng cho tôi biết họ tên, email và số điện thoại của người tham dự.",
				ticketTypes[i].Name, ticketTypes[i].Price),
		}, nil
	}

	uc.metrics.RecordOrderStep(uc.service, "select_ticket", "rejected")
	return &domain.ChatReply{Message: fmt.Sprintf("Không tìm thấy loại vé \"%s\". Bạn kiểm tra lại tên loại vé nhé.", name)}, nil
}

// ProvideInfo merges the supplied participant fields and re-checks
// completeness after every merge.
func (uc *OrderDialogueUseCase) ProvideInfo(ctx context.Context, userID string, fields map[string]string) (*domain.ChatReply, error) {
	pending, ok := uc.sessions.PendingOrder(userID)
	if !ok || pending.TicketType == nil {
		return &domain.ChatReply{Message: "Bạn chưa chọn loại vé. Hãy bắt đầu đặt vé và chọn loại vé trước nhé."}, nil
	}

	for key, value := range fields {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			pending.Participant.Name = value
		case "email":
			pending.Participant.Email = value
		case "phone":
			pending.Participant.Phone = value
		case "organization":
			pending.Participant.Organization = value
		case "notes":
			pending.Participant.Notes = value
		}
	}
	pending.UpdatedAt = uc.now()

	missing := pending.Participant.MissingFields()
	if len(missing) > 0 {
		pending.Step = domain.StepProvideInfo
		uc.sessions.SetPendingOrder(userID, pending)
		uc.metrics.RecordOrderStep(uc.service, "provide_info", "incomplete")
		return &domain.ChatReply{
			Message: fmt.Sprintf("Tôi vẫn cần thêm: %s.", strings.Join(translateFieldNames(missing), ", ")),
		}, nil
	}

	pending.Step = domain.StepConfirmOrder
	uc.sessions.SetPendingOrder(userID, pending)
	uc.metrics.RecordOrderStep(uc.service, "provide_info", "ok")
	return &domain.ChatReply{
		Message: fmt.Sprintf("Xác nhận đặt vé \"%s\" cho sự kiện \"%s\", người tham dự %s (%s, %s), tổng tiền %dđ. Bạn xác nhận chứ?",
			pending.TicketType.Name, pending.Event.Title,
			pending.Participant.Name, pending.Participant.Email, pending.Participant.Phone,
			pending.TicketType.Price),
	}, nil
}

// Confirm persists the order, builds the payment link and clears the
// dialogue state.
func (uc *OrderDialogueUseCase) Confirm(ctx context.Context, userID string) (*domain.ChatReply, error) {
	pending, ok := uc.sessions.PendingOrder(userID)
	if !ok || pending.Step != domain.StepConfirmOrder || pending.TicketType == nil {
		return &domain.ChatReply{Message: "Chưa có đơn đặt vé nào sẵn sàng để xác nhận."}, nil
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		EventID:      pending.Event.ID,
		TicketTypeID: pending.TicketType.ID,
		Participant:  pending.Participant,
		TotalPrice:   pending.TicketType.Price,
		Status:       domain.OrderStatusPendingPayment,
		CreatedAt:    uc.now().UTC(),
	}

	paymentURL, err := uc.payments.PaymentLink(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("build payment link: %w", err)
	}
	order.PaymentURL = paymentURL

	if err := uc.orders.Create(ctx, order); err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			uc.metrics.RecordOrderStep(uc.service, "confirm", "rejected")
			return &domain.ChatReply{Message: fmt.Sprintf("Rất tiếc, loại vé \"%s\" vừa hết. Bạn chọn loại vé khác nhé.", pending.TicketType.Name)}, nil
		}
		return nil, err
	}

	uc.sessions.ClearPendingOrder(userID)
	uc.metrics.RecordOrderStep(uc.service, "confirm", "ok")
	uc.metrics.RecordOrderCreated(uc.service)

	if uc.notifier != nil {
		if err := uc.notifier.PublishOrderCreated(ctx, order); err != nil {
			slog.Warn("publish_order_created_failed", "order_id", order.ID, "error", err)
		}
	}

	return &domain.ChatReply{
		Message: fmt.Sprintf("Đặt vé thành công! Vui lòng thanh toán %dđ tại: %s", order.TotalPrice, order.PaymentURL),
	}, nil
}

// Cancel discards all collected state with no partial artifacts.
func (uc *OrderDialogueUseCase) Cancel(_ context.Context, userID string) (*domain.ChatReply, error) {
	uc.sessions.ClearPendingOrder(userID)
	uc.metrics.RecordOrderStep(uc.service, "cancel", "ok")
	return &domain.ChatReply{Message: "Đã huỷ đặt vé. Khi nào cần bạn cứ nhắn tôi nhé."}, nil
}

func translateFieldNames(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		switch field {
		case "name":
			out = append(out, "họ tên")
		case "email":
			out = append(out, "email")
		case "phone":
			out = append(out, "số điện thoại")
		default:
			out = append(out, field)
		}
	}
	return out
}
