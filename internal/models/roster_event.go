// internal/models/roster_event.go
package models

import "time"

type RosterEventType string

const (
	RosterEventSignedUp     RosterEventType = "signed_up"
	RosterEventUnregistered RosterEventType = "unregistered"
)

// RosterEvent describes one accepted roster change.
type RosterEvent struct {
	ID         string          `json:"id"`
	Type       RosterEventType `json:"type"`
	Activity   string          `json:"activity"`
	Email      string          `json:"email"`
	OccurredAt time.Time       `json:"occurredAt"`
}
