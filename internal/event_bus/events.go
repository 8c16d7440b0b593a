package event_bus

import "time"

const AlertCreatedEvent EventType = "alert.created"

// AlertCreated is published after an alert record has been stored.
type AlertCreated struct {
	Id          int
	UserId      int
	Type        string
	Message     string
	TriggeredAt time.Time
}
