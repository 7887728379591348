package session

import "fmt"

// SessionStatus represents the current state of a session in its lifecycle.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusCancelled SessionStatus = "cancelled"
	StatusCompleted SessionStatus = "completed"
)

// validTransitions defines the state machine for session status transitions.
// Once a session leaves scheduled it is terminal.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusScheduled: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid returns true if the status is a recognized session status.
func (s SessionStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s SessionStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s SessionStatus) String() string {
	return string(s)
}

// ParseSessionStatus converts a string to a SessionStatus, returning an error if invalid.
func ParseSessionStatus(s string) (SessionStatus, error) {
	status := SessionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid session status: %s", s)
	}
	return status, nil
}
