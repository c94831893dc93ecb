package session

import "errors"

// UserMessage is the text shown when a submission fails validation.
const UserMessage = "Selecteer minimaal één agent en voer een scenario in"

// Validation failure reasons.
const (
	ReasonNoAgents         = "no_agents"
	ReasonEmptyDescription = "empty_description"
)

// ValidationError blocks a submission before any network activity.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return UserMessage + " (" + e.Reason + ")"
}

// ErrSubmissionInFlight rejects a submission while another is outstanding.
var ErrSubmissionInFlight = errors.New("analysis already in progress")
