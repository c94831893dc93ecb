package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/somc/internal/domain"
)

// Normalize converts a successful backend payload into exactly one response
// per agent in selection, in selection order. It never fails.
//
// Structured entries are matched to agents by id or case-insensitive name;
// the first entry for an agent wins and entries matching no agent are
// dropped. Agents left unmatched get the passthrough text.
//
// description does not affect the output; it keeps the signature parallel
// to Generate so callers can switch between the two.
func Normalize(payload []byte, selection []domain.Agent, _ string) []domain.AgentResponse {
	return NormalizeShape(Classify(payload), payload, selection)
}

// NormalizeShape is Normalize with the classification already done.
func NormalizeShape(shape Shape, payload []byte, selection []domain.Agent) []domain.AgentResponse {
	out := make([]domain.AgentResponse, 0, len(selection))

	switch shape.Kind {
	case KindMisconfigured:
		for _, a := range selection {
			out = append(out, respond(a, Advisory(a)))
		}
		return out

	case KindStructured:
		for _, a := range selection {
			if text, ok := matchEntry(shape.Entries, a); ok {
				out = append(out, respond(a, text))
				continue
			}
			out = append(out, respond(a, Passthrough(a, payload)))
		}
		return out
	}

	for _, a := range selection {
		out = append(out, respond(a, Passthrough(a, payload)))
	}
	return out
}

func matchEntry(entries []Entry, a domain.Agent) (string, bool) {
	for _, e := range entries {
		if e.Agent == a.ID || strings.EqualFold(e.Agent, a.Name) {
			return e.Text, true
		}
	}
	return "", false
}

func respond(a domain.Agent, text string) domain.AgentResponse {
	return domain.AgentResponse{
		AgentName:      a.Name,
		AgentExpertise: a.Expertise,
		Response:       text,
	}
}

// Advisory is the templated text shown when the backend reports that its
// model deployment cannot be found.
func Advisory(a domain.Agent) string {
	return fmt.Sprintf(
		"Analyse van %s (%s) is op dit moment niet beschikbaar.\n\n"+
			"De analyseservice meldt dat de gevraagde AI-resource niet gevonden is. "+
			"Dit wijst op een configuratieprobleem aan de serverkant, niet op een fout in uw scenario.\n\n"+
			"Aanbevolen acties:\n"+
			"- Controleer de deployment-naam en endpoint van de AI-service\n"+
			"- Probeer de analyse later opnieuw",
		a.Name, a.Expertise)
}

// Passthrough embeds the raw payload, pretty-printed when it is JSON.
func Passthrough(a domain.Agent, payload []byte) string {
	return fmt.Sprintf("Echte AI analyse van %s:\n\n%s", a.Name, renderPayload(payload))
}

func renderPayload(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	var buf bytes.Buffer
	if json.Valid(trimmed) && json.Indent(&buf, trimmed, "", "  ") == nil {
		return buf.String()
	}
	return string(trimmed)
}
