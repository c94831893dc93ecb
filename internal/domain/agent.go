package domain

import "strings"

// Expertise is the classification tag shown next to an agent.
type Expertise string

const (
	ExpertiseDemografie Expertise = "demografie"
	ExpertiseEconomie   Expertise = "economie"
	ExpertiseWonen      Expertise = "wonen"
)

// Agent is a selectable analysis specialist. Agents are immutable once
// a catalog has been built.
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Expertise   Expertise `json:"expertise"`
}

// ClassifyExpertise derives the expertise tag from a role or name string.
// Markers are matched case-insensitively in a fixed order: demografie first,
// then economie; anything else is wonen.
func ClassifyExpertise(role string) Expertise {
	lower := strings.ToLower(role)
	switch {
	case strings.Contains(lower, "demografie"):
		return ExpertiseDemografie
	case strings.Contains(lower, "economie"):
		return ExpertiseEconomie
	default:
		return ExpertiseWonen
	}
}
