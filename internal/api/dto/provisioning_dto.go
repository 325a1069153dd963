package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spec-kit/provisioning-service/internal/domain"
)

// FlexString accepts a JSON string or number. Numbers are written in their
// shortest decimal form (12.50 -> "12.5", 1e3 -> "1000"). Numeric zero and
// null decode to the empty string so they count as absent, as do empty strings.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	text, ok := numberText(data)
	if !ok {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if text == "0" {
		*s = ""
		return nil
	}
	*s = FlexString(text)
	return nil
}

// numberText formats a JSON number literal as shortest decimal text.
func numberText(data []byte) (string, bool) {
	var num json.Number
	if err := json.Unmarshal(bytes.TrimSpace(data), &num); err != nil {
		return "", false
	}
	f, err := num.Float64()
	if err != nil {
		return num.String(), true
	}
	if f == 0 {
		return "0", true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// ProvisionRequest payload for POST /mso-create-user-employee.
type ProvisionRequest struct {
	User     UserPayload     `json:"user"`
	Employee EmployeePayload `json:"employee"`
}

// UserPayload is the candidate upstream user. Field order is the order
// missing fields are reported in.
type UserPayload struct {
	Title        FlexString `json:"title" validate:"required"`
	FirstName    FlexString `json:"first_name" validate:"required"`
	LastName     FlexString `json:"last_name" validate:"required"`
	Email        FlexString `json:"email" validate:"required"`
	Password     FlexString `json:"password" validate:"required"`
	MainBodyshop FlexString `json:"main_bodyshop" validate:"required"`
	CustomRole   FlexString `json:"custom_role" validate:"required"`
}

// EmployeePayload is the candidate upstream employee.
type EmployeePayload struct {
	EmployeeID   FlexString `json:"employee_id" validate:"required"`
	FirstName    FlexString `json:"first_name" validate:"required"`
	LastName     FlexString `json:"last_name" validate:"required"`
	Email        FlexString `json:"email" validate:"required"`
	Position     FlexString `json:"position" validate:"required"`
	Password     FlexString `json:"password" validate:"required"`
	MainBodyshop FlexString `json:"main_bodyshop" validate:"required"`

	// numericPassword is the decimal text of a password sent as a JSON number.
	numericPassword string
}

// UnmarshalJSON decodes the payload and remembers whether password was a number.
func (p *EmployeePayload) UnmarshalJSON(data []byte) error {
	type plain EmployeePayload
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var raw struct {
		Password json.RawMessage `json:"password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = EmployeePayload(decoded)
	if pw := bytes.TrimSpace(raw.Password); len(pw) > 0 && pw[0] != '"' && pw[0] != 'n' {
		if text, ok := numberText(pw); ok {
			p.numericPassword = text
		}
	}
	return nil
}

// PasswordText is the password as the caller typed it. A numeric 0 reads
// "0" here even though Password treats it as absent.
func (p EmployeePayload) PasswordText() string {
	if p.numericPassword != "" {
		return p.numericPassword
	}
	return string(p.Password)
}

// ToDomain converts the payload to a domain record.
func (p UserPayload) ToDomain() domain.UserRecord {
	return domain.UserRecord{
		Title:        string(p.Title),
		FirstName:    string(p.FirstName),
		LastName:     string(p.LastName),
		Email:        string(p.Email),
		Password:     string(p.Password),
		MainBodyshop: string(p.MainBodyshop),
		CustomRole:   string(p.CustomRole),
	}
}

// ToDomain converts the payload to a domain record.
func (p EmployeePayload) ToDomain() domain.EmployeeRecord {
	return domain.EmployeeRecord{
		EmployeeID:   string(p.EmployeeID),
		FirstName:    string(p.FirstName),
		LastName:     string(p.LastName),
		Email:        string(p.Email),
		Position:     string(p.Position),
		Password:     string(p.Password),
		MainBodyshop: string(p.MainBodyshop),
	}
}

// ProvisionResponse is returned when both records were created.
type ProvisionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ValidationFailureResponse lists every input problem found.
type ValidationFailureResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// FailureResponse carries a generic, caller-safe failure message.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	RunID   string `json:"run_id,omitempty"`
}

// RunResponse exposes a provisioning audit record.
type RunResponse struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"request_id,omitempty"`
	UserEmail     string     `json:"user_email"`
	EmployeeID    string     `json:"employee_id"`
	Status        string     `json:"status"`
	State         string     `json:"state"`
	Error         string     `json:"error,omitempty"`
	ScreenshotKey string     `json:"screenshot_key,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// NewRunResponse maps a domain run to its wire form.
func NewRunResponse(run *domain.ProvisioningRun) RunResponse {
	return RunResponse{
		ID:            run.ID,
		RequestID:     run.RequestID,
		UserEmail:     run.UserEmail,
		EmployeeID:    run.EmployeeID,
		Status:        string(run.Status),
		State:         run.State,
		Error:         run.Error,
		ScreenshotKey: run.ScreenshotKey,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}
