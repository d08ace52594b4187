package domain

import "time"

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is immutable once appended; the per-session sequence itself
// is append-only.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

const (
	ToolAddEvent    = "ADD_EVENT"
	ToolUpdateEvent = "UPDATE_EVENT"
	ToolDeleteEvent = "DELETE_EVENT"
)

// Action is a structured instruction extracted from generative output.
// It lives for the duration of one turn.
type Action struct {
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args"`
}

type ModelOutputKind string

const (
	ModelOutputText    ModelOutputKind = "text"
	ModelOutputActions ModelOutputKind = "actions"
)

// ModelOutput is the tagged union decided once at the generative-adapter
// boundary: either plain conversational text, or extracted actions plus
// whatever text surrounded the action block.
type ModelOutput struct {
	Kind    ModelOutputKind `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Actions []Action        `json:"actions,omitempty"`
}

// ChatReply is the structured turn result. ShouldRefresh tells the caller
// its view of domain state is stale.
type ChatReply struct {
	Message       string `json:"message"`
	ShouldRefresh bool   `json:"should_refresh"`
}

// PendingEvent wraps a fully-constructed but unsaved event awaiting an
// explicit yes/no from the user after an adverse-weather warning.
type PendingEvent struct {
	Event       *Event    `json:"event"`
	WeatherNote string    `json:"weather_note"`
	CreatedAt   time.Time `json:"created_at"`
}

type Intent string

const (
	IntentUnknown         Intent = "UNKNOWN"
	IntentFreeTime        Intent = "FREE_TIME"
	IntentScheduleSummary Intent = "SCHEDULE_SUMMARY"
	IntentTicketInfo      Intent = "TICKET_INFO"
)

type ConfirmIntent string

const (
	ConfirmIntentConfirm ConfirmIntent = "CONFIRM"
	ConfirmIntentCancel  ConfirmIntent = "CANCEL"
	ConfirmIntentUnknown ConfirmIntent = "UNKNOWN"
)

// IntentExample is a precomputed (text, embedding) pair held in memory for
// the in-process ticket-info similarity check.
type IntentExample struct {
	Text   string
	Vector []float32
}
