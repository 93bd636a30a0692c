package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventAddressAdded   EventType = "address_added"
	EventAddressUpdated EventType = "address_updated"
	EventPhoneAdded     EventType = "phone_added"
	EventPhoneUpdated   EventType = "phone_updated"
)

// AllEventTypes lists every type emitted by the user service.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserUpdated,
	EventUserDeleted,
	EventAddressAdded,
	EventAddressUpdated,
	EventPhoneAdded,
	EventPhoneUpdated,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a new event for subject.
func NewEvent(eventType EventType, subject string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserPayload describes a user lifecycle change.
type UserPayload struct {
	UserID        int64  `json:"user_id"`
	Name          string `json:"name,omitempty"`
	PreviousEmail string `json:"previous_email,omitempty"`
}

// ContactPayload describes an address or phone change.
type ContactPayload struct {
	UserID    int64 `json:"user_id"`
	ContactID int64 `json:"contact_id"`
}
