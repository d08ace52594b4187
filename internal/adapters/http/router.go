package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/trananhduc/event-assistant/internal/core/ports"
	"github.com/trananhduc/event-assistant/internal/infrastructure/report"
	"github.com/trananhduc/event-assistant/internal/observability/metrics"
)

type RouterOptions struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	agent    ports.ChatAgent
	dialogue ports.OrderDialogue
	events   ports.EventStore
	orders   ports.OrderStore
	metrics  *metrics.AgentMetrics
	options  RouterOptions
	locks    *sessionLocks
}

func NewRouter(
	agent ports.ChatAgent,
	dialogue ports.OrderDialogue,
	events ports.EventStore,
	orders ports.OrderStore,
	agentMetrics *metrics.AgentMetrics,
	options RouterOptions,
) *Router {
	if options.Service == "" {
		options.Service = "api"
	}
	return &Router{
		agent:    agent,
		dialogue: dialogue,
		events:   events,
		orders:   orders,
		metrics:  agentMetrics,
		options:  options,
		locks:    newSessionLocks(),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chat)
	mux.HandleFunc("/v1/chat/", rt.deleteChat)
	mux.HandleFunc("/v1/orders/chat", rt.ordersChat)
	mux.HandleFunc("/v1/events/", rt.eventOrdersReport)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.options.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	lock := rt.locks.forKey(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	reply, err := rt.agent.HandleMessage(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) deleteChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/chat/")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	lock := rt.locks.forKey(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := rt.agent.DeleteHistory(r.Context(), sessionID); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) ordersChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserID     string            `json:"user_id"`
		Op         string            `json:"op"`
		Event      string            `json:"event,omitempty"`
		TicketType string            `json:"ticket_type,omitempty"`
		Fields     map[string]string `json:"fields,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	lock := rt.locks.forKey("order:" + req.UserID)
	lock.Lock()
	defer lock.Unlock()

	var (
		reply any
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(req.Op)) {
	case "start":
		reply, err = rt.dialogue.Start(r.Context(), req.UserID, req.Event)
	case "select_ticket":
		reply, err = rt.dialogue.SelectTicketType(r.Context(), req.UserID, req.TicketType)
	case "provide_info":
		reply, err = rt.dialogue.ProvideInfo(r.Context(), req.UserID, req.Fields)
	case "confirm":
		reply, err = rt.dialogue.Confirm(r.Context(), req.UserID)
	case "cancel":
		reply, err = rt.dialogue.Cancel(r.Context(), req.UserID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported op %q", req.Op)})
		return
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) eventOrdersReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/events/")
	idRaw, ok := strings.CutSuffix(rest, "/orders.xlsx")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	eventID, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || eventID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	event, err := rt.events.GetByID(r.Context(), eventID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	orders, err := rt.orders.ListByEvent(r.Context(), eventID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	workbook, err := report.OrdersWorkbook(event, orders)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders-%d.xlsx", eventID))
	w.WriteHeader(http.StatusOK)
	_ = workbook.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
