package domain

import "time"

// RunStatus represents lifecycle states for one provisioning attempt.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ProvisioningRun is the audit record of one workflow invocation.
type ProvisioningRun struct {
	ID            string
	RequestID     string
	UserEmail     string
	EmployeeID    string
	Status        RunStatus
	State         string
	Error         string
	ScreenshotKey string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Finish stamps the terminal status of the run.
func (r *ProvisioningRun) Finish(status RunStatus, state string, cause error, at time.Time) {
	r.Status = status
	r.State = state
	if cause != nil {
		r.Error = cause.Error()
	}
	r.FinishedAt = &at
}
