package domain

import "time"

type EventType string

const (
	EventTypeConference EventType = "CONFERENCE"
	EventTypeWorkshop   EventType = "WORKSHOP"
	EventTypeFestival   EventType = "FESTIVAL"
	EventTypeMusic      EventType = "MUSIC"
	EventTypeSports     EventType = "SPORTS"
	EventTypeExhibition EventType = "EXHIBITION"
	EventTypeOthers     EventType = "OTHERS"
)

// EventTypes is the vocabulary injected into the agent's system prompt.
var EventTypes = []EventType{
	EventTypeConference,
	EventTypeWorkshop,
	EventTypeFestival,
	EventTypeMusic,
	EventTypeSports,
	EventTypeExhibition,
	EventTypeOthers,
}

type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPending   EventStatus = "PENDING_APPROVAL"
	EventStatusPublic    EventStatus = "PUBLIC"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

func ParseEventStatus(raw string) (EventStatus, bool) {
	switch EventStatus(raw) {
	case EventStatusDraft, EventStatusPending, EventStatusPublic, EventStatusCompleted, EventStatusCancelled:
		return EventStatus(raw), true
	default:
		return "", false
	}
}

type Place struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type Event struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	Type          EventType   `json:"type"`
	Status        EventStatus `json:"status"`
	ImageURL      string      `json:"image_url,omitempty"`
	Benefits      string      `json:"benefits,omitempty"`
	ParentEventID *int64      `json:"parent_event_id,omitempty"`
	Places        []Place     `json:"places,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Overlaps reports whether two half-open intervals [aStart,aEnd) and
// [bStart,bEnd) share any time.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// EventChange describes a persisted mutation published for downstream
// notification delivery.
type EventChange struct {
	Op      string `json:"op"`
	EventID int64  `json:"event_id"`
	Title   string `json:"title"`
}

const (
	EventChangeCreated = "created"
	EventChangeUpdated = "updated"
	EventChangeDeleted = "deleted"
)
