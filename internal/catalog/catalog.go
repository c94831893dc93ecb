// Package catalog fetches the selectable agents and normalizes the records
// into domain.Agent values.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/soyeahso/somc/internal/version"
)

// CatalogError reports why the catalog could not be loaded. It is never
// fatal: the loader still hands back an empty catalog.
type CatalogError struct {
	URL    string
	Status int
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.URL, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// Catalog is an immutable, ordered collection of agents.
type Catalog struct {
	agents []domain.Agent
	byID   map[string]int
}

// New builds a catalog from agents. Later duplicates of an id are dropped.
func New(agents []domain.Agent) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(agents))}
	for _, a := range agents {
		if _, dup := c.byID[a.ID]; dup {
			continue
		}
		c.byID[a.ID] = len(c.agents)
		c.agents = append(c.agents, a)
	}
	return c
}

// Empty returns a catalog with no agents.
func Empty() *Catalog { return New(nil) }

// Agents returns a copy of the agents in source order.
func (c *Catalog) Agents() []domain.Agent {
	return slices.Clone(c.agents)
}

// Len returns the number of agents.
func (c *Catalog) Len() int { return len(c.agents) }

// Lookup returns the agent with the given id.
func (c *Catalog) Lookup(id string) (domain.Agent, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Agent{}, false
	}
	return c.agents[i], true
}

// Find resolves an id first, then a case-insensitive name.
func (c *Catalog) Find(ref string) (domain.Agent, bool) {
	if a, ok := c.Lookup(ref); ok {
		return a, true
	}
	for _, a := range c.agents {
		if strings.EqualFold(a.Name, ref) {
			return a, true
		}
	}
	return domain.Agent{}, false
}

// Loader fetches the catalog over HTTP.
type Loader struct {
	url    string
	client *http.Client
	log    *logging.Logger
}

// NewLoader creates a loader for url. A nil client uses http.DefaultClient.
func NewLoader(url string, client *http.Client, log *logging.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{url: url, client: client, log: log.Sub("catalog")}
}

// Load performs one GET against the catalog source. It always returns a
// usable catalog; on failure the catalog is empty and the error is a
// *CatalogError describing what went wrong.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	agents, err := l.fetch(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("catalog unavailable, continuing with no agents")
		return Empty(), err
	}
	c := New(agents)
	if dropped := droppedNames(agents, c); len(dropped) > 0 {
		l.log.Warn().Strs("agents", dropped).Msg("duplicate agent ids dropped")
	}
	l.log.Info().Int("agents", c.Len()).Msg("catalog loaded")
	return c, nil
}

// droppedNames lists the agents New discarded as later duplicates.
func droppedNames(agents []domain.Agent, c *Catalog) []string {
	var names []string
	kept := 0
	for _, a := range agents {
		if kept < len(c.agents) && c.agents[kept] == a {
			kept++
			continue
		}
		names = append(names, a.Name)
	}
	return names
}

func (l *Loader) fetch(ctx context.Context) ([]domain.Agent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, &CatalogError{URL: l.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &CatalogError{URL: l.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CatalogError{URL: l.url, Err: fmt.Errorf("reading body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &CatalogError{URL: l.url, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	agents, err := Parse(body)
	if err != nil {
		return nil, &CatalogError{URL: l.url, Err: err}
	}
	return agents, nil
}

// wrapperKeys are the object fields that may hold the record list.
var wrapperKeys = []string{"data", "agents", "items"}

// Parse decodes either a bare JSON array of records or an object wrapping
// the array under one of the known keys. Elements that are not objects, or
// that carry no name, are skipped.
func Parse(body []byte) ([]domain.Agent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	var elems []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, fmt.Errorf("parsing record list: %w", err)
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("parsing wrapper: %w", err)
		}
		raw, ok := pickWrapped(wrapper)
		if !ok {
			return nil, errors.New("no agent list in payload")
		}
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("parsing wrapped record list: %w", err)
		}
	default:
		return nil, errors.New("payload is neither a list nor an object")
	}

	agents := make([]domain.Agent, 0, len(elems))
	positions := make([]int, 0, len(elems))
	taken := make(map[string]bool, len(elems))
	for i, raw := range elems {
		rec, ok := decodeRecord(raw)
		if !ok {
			continue
		}
		a, ok := mapRecord(rec)
		if !ok {
			continue
		}
		if a.ID != "" {
			taken[a.ID] = true
		}
		agents = append(agents, a)
		positions = append(positions, i)
	}

	// Records without an id get their 1-based position, or the next free
	// number when a source id already uses it.
	for i := range agents {
		if agents[i].ID != "" {
			continue
		}
		n := positions[i] + 1
		for taken[strconv.Itoa(n)] {
			n++
		}
		agents[i].ID = strconv.Itoa(n)
		taken[agents[i].ID] = true
	}
	return agents, nil
}

// decodeRecord decodes one list element, keeping numbers exact.
func decodeRecord(raw json.RawMessage) (map[string]any, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || t[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(t))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, false
	}
	return rec, true
}

func pickWrapped(wrapper map[string]json.RawMessage) (json.RawMessage, bool) {
	for _, k := range wrapperKeys {
		raw, ok := wrapper[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
			return raw, true
		}
	}
	return nil, false
}

// mapRecord converts one source record. Records without a name are skipped.
// The id is left empty when the source has none.
func mapRecord(rec map[string]any) (domain.Agent, bool) {
	name := stringField(rec, "name")
	if name == "" {
		return domain.Agent{}, false
	}

	role := stringField(rec, "role")
	if role == "" {
		role = stringField(rec, "expertise")
	}

	desc := stringField(rec, "description")
	if desc == "" && role != "" {
		desc = role + " specialist"
	}

	classifyOn := role
	if classifyOn == "" {
		classifyOn = name
	}

	return domain.Agent{
		ID:          stringField(rec, "id"),
		Name:        name,
		Description: desc,
		Expertise:   domain.ClassifyExpertise(classifyOn),
	}, true
}

// stringField reads a scalar or a list of scalars as a string.
func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
