package domain

import "time"

// AnalysisRequest is the body posted to the analysis backend.
// SessionID correlates a submission with its result; it carries no ordering.
type AnalysisRequest struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
}

// AgentResponse is one agent's part of a resolved analysis.
type AgentResponse struct {
	AgentName      string    `json:"agent_name"`
	AgentExpertise Expertise `json:"agent_expertise"`
	Response       string    `json:"response"`
}

// ResultSource records which path produced an AnalysisResult.
type ResultSource string

const (
	SourceBackend  ResultSource = "backend"
	SourceFallback ResultSource = "fallback"
)

// AnalysisResult is the terminal, always-displayable outcome of a submission.
type AnalysisResult struct {
	SessionID      string          `json:"session_id"`
	Description    string          `json:"description"`
	Source         ResultSource    `json:"source"`
	Notice         string          `json:"notice,omitempty"`
	AgentResponses []AgentResponse `json:"agent_responses"`
	ResolvedAt     time.Time       `json:"resolved_at"`
}

// Degraded reports whether the result was synthesized locally.
func (r AnalysisResult) Degraded() bool {
	return r.Source == SourceFallback
}
