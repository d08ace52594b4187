package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

type orderFixture struct {
	uc       *OrderDialogueUseCase
	events   *fakeEventStore
	tickets  *fakeTicketTypes
	orders   *fakeOrderStore
	sessions *fakeSessions
	notifier *fakeNotifier
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		events:   newFakeEventStore(),
		tickets:  &fakeTicketTypes{},
		orders:   &fakeOrderStore{},
		sessions: newFakeSessions(),
		notifier: &fakeNotifier{},
	}
	f.uc = NewOrderDialogueUseCase(f.events, f.tickets, f.orders, f.sessions, fakePaymentLinker{}, f.notifier, nil, "test")
	f.uc.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *orderFixture) seedPublicEvent() {
	f.events.events[3] = &domain.Event{ID: 3, Title: "Music Night", Status: domain.EventStatusPublic}
	f.tickets.types = []domain.TicketType{
		{ID: 1, EventID: 3, Name: "VIP", Price: 500000, Quantity: 100, Sold: 100},
		{ID: 2, EventID: 3, Name: "Thường", Price: 150000, Quantity: 200, Sold: 20},
	}
}

func TestStartRejectsUnknownEvent(t *testing.T) {
	f := newOrderFixture()

	reply, err := f.uc.Start(context.Background(), "u1", "Music Night")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !strings.Contains(reply.Message, "Không tìm thấy sự kiện") {
		t.Fatalf("message = %q", reply.Message)
	}
	if _, ok := f.sessions.PendingOrder("u1"); ok {
		t.Fatalf("pending order created for unknown event")
	}
}

func TestStartIgnoresNonPublicEvents(t *testing.T) {
	f := newOrderFixture()
	f.events.events[3] = &domain.Event{ID: 3, Title: "Music Night", Status: domain.EventStatusDraft}

	reply, err := f.uc.Start(context.Background(), "u1", "music")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !strings.Contains(reply.Message, "Không tìm thấy sự kiện") {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestSelectSoldOutTicketRejected(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()

	if _, err := f.uc.Start(context.Background(), "u1", "music"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	reply, err := f.uc.SelectTicketType(context.Background(), "u1", "vip")
	if err != nil {
		t.Fatalf("SelectTicketType() error = %v", err)
	}
	if !strings.Contains(reply.Message, "đã hết") {
		t.Fatalf("message = %q", reply.Message)
	}
	pending, _ := f.sessions.PendingOrder("u1")
	if pending.TicketType != nil || pending.Step != domain.StepSelectTicketType {
		t.Fatalf("state advanced past a sold-out selection: %+v", pending)
	}

	reply, err = f.uc.SelectTicketType(context.Background(), "u1", "thường")
	if err != nil {
		t.Fatalf("SelectTicketType() error = %v", err)
	}
	pending, _ = f.sessions.PendingOrder("u1")
	if pending.Step != domain.StepProvideInfo {
		t.Fatalf("step = %s, want PROVIDE_INFO", pending.Step)
	}
	if pending.TicketType == nil || pending.TicketType.Name != "Thường" {
		t.Fatalf("ticket type = %+v", pending.TicketType)
	}
	if !strings.Contains(reply.Message, "Thường") {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestProvideInfoMergesIncrementally(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()
	_, _ = f.uc.Start(context.Background(), "u1", "music")
	_, _ = f.uc.SelectTicketType(context.Background(), "u1", "thường")

	reply, err := f.uc.ProvideInfo(context.Background(), "u1", map[string]string{"name": "An"})
	if err != nil {
		t.Fatalf("ProvideInfo() error = %v", err)
	}
	if !strings.Contains(reply.Message, "email") || !strings.Contains(reply.Message, "số điện thoại") {
		t.Fatalf("message = %q", reply.Message)
	}

	reply, err = f.uc.ProvideInfo(context.Background(), "u1", map[string]string{
		"email": "an@example.com",
		"phone": "0900000000",
	})
	if err != nil {
		t.Fatalf("ProvideInfo() error = %v", err)
	}
	pending, _ := f.sessions.PendingOrder("u1")
	if pending.Step != domain.StepConfirmOrder {
		t.Fatalf("step = %s, want CONFIRM_ORDER", pending.Step)
	}
	if pending.Participant.Name != "An" {
		t.Fatalf("earlier field lost: %+v", pending.Participant)
	}
	if !strings.Contains(reply.Message, "150000") {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestConfirmCreatesOrderAndClearsState(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()
	_, _ = f.uc.Start(context.Background(), "u1", "music")
	_, _ = f.uc.SelectTicketType(context.Background(), "u1", "thường")
	_, _ = f.uc.ProvideInfo(context.Background(), "u1", map[string]string{
		"name":  "An",
		"email": "an@example.com",
		"phone": "0900000000",
	})

	reply, err := f.uc.Confirm(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if len(f.orders.created) != 1 {
		t.Fatalf("created %d orders, want 1", len(f.orders.created))
	}
	order := f.orders.created[0]
	if order.TotalPrice != 150000 || order.Status != domain.OrderStatusPendingPayment {
		t.Fatalf("order = %+v", order)
	}
	if order.PaymentURL == "" || !strings.Contains(reply.Message, order.PaymentURL) {
		t.Fatalf("payment url missing from reply %q", reply.Message)
	}
	if _, ok := f.sessions.PendingOrder("u1"); ok {
		t.Fatalf("pending order not cleared after confirm")
	}
	if len(f.notifier.orders) != 1 {
		t.Fatalf("order notification not published")
	}
}

func TestConfirmWithoutPendingOrder(t *testing.T) {
	f := newOrderFixture()

	reply, err := f.uc.Confirm(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !strings.Contains(reply.Message, "Chưa có đơn") {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestConfirmSoldOutRaceReported(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()
	f.orders.soldOut = true
	_, _ = f.uc.Start(context.Background(), "u1", "music")
	_, _ = f.uc.SelectTicketType(context.Background(), "u1", "thường")
	_, _ = f.uc.ProvideInfo(context.Background(), "u1", map[string]string{
		"name":  "An",
		"email": "an@example.com",
		"phone": "0900000000",
	})

	reply, err := f.uc.Confirm(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !strings.Contains(reply.Message, "vừa hết") {
		t.Fatalf("message = %q", reply.Message)
	}
	if len(f.notifier.orders) != 0 {
		t.Fatalf("notification published for a failed order")
	}
}

func TestCancelDiscardsState(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()
	_, _ = f.uc.Start(context.Background(), "u1", "music")

	if _, err := f.uc.Cancel(context.Background(), "u1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, ok := f.sessions.PendingOrder("u1"); ok {
		t.Fatalf("pending order survived cancel")
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("partial order persisted")
	}
}

func TestNewStartOverwritesPendingOrder(t *testing.T) {
	f := newOrderFixture()
	f.seedPublicEvent()
	_, _ = f.uc.Start(context.Background(), "u1", "music")
	_, _ = f.uc.SelectTicketType(context.Background(), "u1", "thường")

	if _, err := f.uc.Start(context.Background(), "u1", "music"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	pending, _ := f.sessions.PendingOrder("u1")
	if pending.Step != domain.StepSelectTicketType || pending.TicketType != nil {
		t.Fatalf("old dialogue state leaked into new start: %+v", pending)
	}
}
