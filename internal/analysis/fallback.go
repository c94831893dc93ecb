package analysis

import (
	"fmt"

	"github.com/soyeahso/somc/internal/domain"
)

// Generate synthesizes a demo analysis for each selected agent. Output
// depends only on its arguments, so equal inputs give byte-identical text.
func Generate(selection []domain.Agent, description string) []domain.AgentResponse {
	out := make([]domain.AgentResponse, 0, len(selection))
	for _, a := range selection {
		out = append(out, respond(a, demoText(a, description)))
	}
	return out
}

func demoText(a domain.Agent, description string) string {
	return fmt.Sprintf(
		"Demo analyse van %s: %s\n\n"+
			"Dit is een voorbeeldanalyse die laat zien hoe %s factoren een rol spelen in uw scenario.\n\n"+
			"Belangrijke overwegingen:\n"+
			"- Impact op lokale gemeenschap\n"+
			"- Economische effecten op lange termijn\n"+
			"- Beleidsaanbevelingen voor implementatie",
		a.Name, description, a.Expertise)
}
