// internal/models/activity.go
package models

// Activity is the externally visible view of one extracurricular activity.
// The activity's name is the key of the map that holds it.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Confirmation is returned by successful roster changes.
type Confirmation struct {
	Message string `json:"message"`
}
