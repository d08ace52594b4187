package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

var errNoTicketsLeft = errors.New("no tickets left")

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, _ []domain.ChatMessage) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fakeSessions struct {
	messages map[string][]domain.ChatMessage
	pending  map[string]*domain.PendingEvent
	orders   map[string]*domain.PendingOrder
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		messages: make(map[string][]domain.ChatMessage),
		pending:  make(map[string]*domain.PendingEvent),
		orders:   make(map[string]*domain.PendingOrder),
	}
}

func (s *fakeSessions) History(key string) []domain.ChatMessage {
	return append([]domain.ChatMessage(nil), s.messages[key]...)
}

func (s *fakeSessions) AppendMessage(key string, msg domain.ChatMessage) {
	s.messages[key] = append(s.messages[key], msg)
}

func (s *fakeSessions) DeleteSession(key string) {
	delete(s.messages, key)
	delete(s.pending, key)
}

func (s *fakeSessions) PendingEvent(key string) (*domain.PendingEvent, bool) {
	pending, ok := s.pending[key]
	return pending, ok
}

func (s *fakeSessions) SetPendingEvent(key string, pending *domain.PendingEvent) {
	s.pending[key] = pending
}

func (s *fakeSessions) ClearPendingEvent(key string) {
	delete(s.pending, key)
}

func (s *fakeSessions) PendingOrder(userID string) (*domain.PendingOrder, bool) {
	pending, ok := s.orders[userID]
	return pending, ok
}

func (s *fakeSessions) SetPendingOrder(userID string, pending *domain.PendingOrder) {
	s.orders[userID] = pending
}

func (s *fakeSessions) ClearPendingOrder(userID string) {
	delete(s.orders, userID)
}

type fakeEventStore struct {
	events        map[int64]*domain.Event
	nextID        int64
	created       []*domain.Event
	updated       []*domain.Event
	deleted       []int64
	conflicts     []domain.Event
	conflictCalls int
	between       []domain.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[int64]*domain.Event), nextID: 1}
}

func (s *fakeEventStore) Create(_ context.Context, event *domain.Event) error {
	event.ID = s.nextID
	s.nextID++
	s.events[event.ID] = event
	s.created = append(s.created, event)
	return nil
}

func (s *fakeEventStore) Update(_ context.Context, event *domain.Event) error {
	if _, ok := s.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	s.events[event.ID] = event
	s.updated = append(s.updated, event)
	return nil
}

func (s *fakeEventStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(s.events, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *fakeEventStore) FindByTitle(_ context.Context, title string) (*domain.Event, error) {
	var best *domain.Event
	for _, event := range s.events {
		if event.Title != title {
			continue
		}
		if best == nil || event.ID < best.ID {
			best = event
		}
	}
	if best == nil {
		return nil, domain.ErrEventNotFound
	}
	copied := *best
	return &copied, nil
}

func (s *fakeEventStore) SearchPublicByTitle(_ context.Context, query string) (*domain.Event, error) {
	lowered := strings.ToLower(query)
	var best *domain.Event
	for _, event := range s.events {
		if event.Status != domain.EventStatusPublic {
			continue
		}
		if !strings.Contains(strings.ToLower(event.Title), lowered) {
			continue
		}
		if best == nil || event.ID < best.ID {
			best = event
		}
	}
	if best == nil {
		return nil, domain.ErrEventNotFound
	}
	copied := *best
	return &copied, nil
}

func (s *fakeEventStore) ListConflicting(_ context.Context, _ int64, _, _ time.Time) ([]domain.Event, error) {
	s.conflictCalls++
	return s.conflicts, nil
}

func (s *fakeEventStore) ListBetween(_ context.Context, _, _ time.Time) ([]domain.Event, error) {
	return s.between, nil
}

type fakePlaceStore struct {
	places map[string]*domain.Place
}

func (s *fakePlaceStore) FindByName(_ context.Context, name string) (*domain.Place, error) {
	if s.places == nil {
		return nil, domain.ErrPlaceNotFound
	}
	place, ok := s.places[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrPlaceNotFound
	}
	return place, nil
}

type fakeResolver struct {
	intent       domain.Intent
	weatherLabel string
	toolLabel    string
	confirm      domain.ConfirmIntent
	intentCalls  int
}

func (r *fakeResolver) ClassifyIntent(_ context.Context, _ string) domain.Intent {
	r.intentCalls++
	return r.intent
}

func (r *fakeResolver) ClassifyWeather(_ context.Context, _ string) string {
	if r.weatherLabel == "" {
		return "<0.6"
	}
	return r.weatherLabel
}

func (r *fakeResolver) ClassifyToolEvent(_ context.Context, _ string) string {
	if r.toolLabel == "" {
		return "<0.8"
	}
	return r.toolLabel
}

func (r *fakeResolver) ClassifyConfirmIntent(_ context.Context, _ string) domain.ConfirmIntent {
	return r.confirm
}

type fakeWeather struct {
	note string
	err  error
}

func (w *fakeWeather) AdverseNote(_ context.Context, _ time.Time) (string, error) {
	return w.note, w.err
}

type fakeNotifier struct {
	changes []domain.EventChange
	orders  []*domain.Order
}

func (n *fakeNotifier) PublishEventChanged(_ context.Context, change domain.EventChange) error {
	n.changes = append(n.changes, change)
	return nil
}

func (n *fakeNotifier) PublishOrderCreated(_ context.Context, order *domain.Order) error {
	n.orders = append(n.orders, order)
	return nil
}

type fakeEmbedder struct {
	queryVec []float32
	batch    [][]float32
	err      error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.batch != nil {
		return e.batch, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.queryVec
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.queryVec, nil
}

type fakeVectorIndex struct {
	hits        []domain.VectorHit
	err         error
	searchCalls int
	lastFilter  *domain.VectorFilter
}

func (i *fakeVectorIndex) EnsureCollection(_ context.Context) error { return nil }

func (i *fakeVectorIndex) Upsert(_ context.Context, _ domain.VectorPoint) error { return nil }

func (i *fakeVectorIndex) UpsertBatch(_ context.Context, _ []domain.VectorPoint) error { return nil }

func (i *fakeVectorIndex) DeleteByID(_ context.Context, _ string) error { return nil }

func (i *fakeVectorIndex) Search(_ context.Context, _ []float32, _ int, filter *domain.VectorFilter) ([]domain.VectorHit, error) {
	i.searchCalls++
	i.lastFilter = filter
	if i.err != nil {
		return nil, i.err
	}
	return i.hits, nil
}

func (i *fakeVectorIndex) EnsurePayloadIndex(_ context.Context, _ string) error { return nil }

type fakeTicketTypes struct {
	types []domain.TicketType
}

func (s *fakeTicketTypes) ListByEvent(_ context.Context, _ int64) ([]domain.TicketType, error) {
	return s.types, nil
}

type fakeOrderStore struct {
	created []*domain.Order
	soldOut bool
}

func (s *fakeOrderStore) Create(_ context.Context, order *domain.Order) error {
	if s.soldOut {
		return domain.WrapError(domain.ErrInvalidInput, "create order", errNoTicketsLeft)
	}
	s.created = append(s.created, order)
	return nil
}

func (s *fakeOrderStore) ListByEvent(_ context.Context, _ int64) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(s.created))
	for _, order := range s.created {
		out = append(out, *order)
	}
	return out, nil
}

type fakePaymentLinker struct{}

func (fakePaymentLinker) PaymentLink(_ context.Context, order *domain.Order) (string, error) {
	return "https://pay.example.com/checkout/" + order.ID, nil
}
