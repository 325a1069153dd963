package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProvisioningSucceeded EventType = "provisioning_succeeded"
	EventProvisioningFailed    EventType = "provisioning_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProvisioningOutcomePayload describes how a run ended. Error holds the
// internal cause and is never shown to API callers.
type ProvisioningOutcomePayload struct {
	UserEmail     string `json:"user_email"`
	EmployeeID    string `json:"employee_id"`
	State         string `json:"state"`
	Error         string `json:"error,omitempty"`
	ScreenshotKey string `json:"screenshot_key,omitempty"`
}
