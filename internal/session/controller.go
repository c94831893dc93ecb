// Package session owns the analysis workflow: the catalog, the user's
// selection and the submit/resolve state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/somc/internal/analysis"
	"github.com/soyeahso/somc/internal/backend"
	"github.com/soyeahso/somc/internal/catalog"
	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/hooks"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/soyeahso/somc/internal/selection"
)

// State is the position of the controller in the submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one submission. Selection is captured when the session begins
// and never re-read from the live selection.
type Session struct {
	Request   domain.AnalysisRequest
	Selection []domain.Agent
	StartedAt time.Time
}

// ID returns the correlation token sent to the backend.
func (s *Session) ID() string { return s.Request.SessionID }

// Options configures a Controller.
type Options struct {
	Catalog   *catalog.Catalog
	Submitter backend.Submitter
	Hooks     *hooks.Manager
	Log       *logging.Logger

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// Controller is the single owner of selection and session state for one
// user. Methods are safe for concurrent use.
type Controller struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	selection *selection.Set
	submitter backend.Submitter
	hooks     *hooks.Manager
	log       *logging.Logger
	newID     func() string
	now       func() time.Time

	state  State
	active *Session
	last   *domain.AnalysisResult
}

// New creates a controller in the Idle state with an empty selection.
func New(opts Options) *Controller {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Empty()
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	hm := opts.Hooks
	if hm == nil {
		hm = hooks.NewManager(log)
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return "session_" + uuid.NewString() }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		catalog:   cat,
		selection: selection.New(cat),
		submitter: opts.Submitter,
		hooks:     hm,
		log:       log.Sub("session"),
		newID:     newID,
		now:       now,
	}
}

// Catalog returns the catalog the controller was built with.
func (c *Controller) Catalog() *catalog.Catalog { return c.catalog }

// Hooks returns the manager events are emitted on.
func (c *Controller) Hooks() *hooks.Manager { return c.hooks }

// Toggle flips the selection of an agent and reports whether it is now selected.
func (c *Controller) Toggle(ctx context.Context, agentID string) (bool, error) {
	c.mu.Lock()
	on, err := c.selection.Toggle(agentID)
	ids := c.selection.IDs()
	c.mu.Unlock()

	if err != nil {
		return false, err
	}
	c.hooks.Emit(ctx, hooks.EventSelectionChanged, map[string]any{
		"agent_id": agentID,
		"selected": on,
		"ids":      ids,
	})
	return on, nil
}

// Contains reports whether an agent is selected.
func (c *Controller) Contains(agentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Contains(agentID)
}

// Selected returns the selected agents in insertion order.
func (c *Controller) Selected() []domain.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Snapshot()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the in-flight session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Last returns the most recent resolved result.
func (c *Controller) Last() (domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return domain.AnalysisResult{}, false
	}
	return *c.last, true
}

// Begin validates a submission and, on success, moves to Submitting with a
// snapshot of the current selection. No request is issued here; pass the
// returned session to Complete.
func (c *Controller) Begin(ctx context.Context, description string) (*Session, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	c.state = StateValidating
	snapshot := c.selection.Snapshot()

	var verr *ValidationError
	switch {
	case len(snapshot) == 0:
		verr = &ValidationError{Reason: ReasonNoAgents}
	case strings.TrimSpace(description) == "":
		verr = &ValidationError{Reason: ReasonEmptyDescription}
	}
	if verr != nil {
		// The previous result stays available through Last.
		c.state = StateIdle
		c.mu.Unlock()
		c.log.Debug().Str("reason", verr.Reason).Msg("submission rejected")
		return nil, verr
	}

	s := &Session{
		Request: domain.AnalysisRequest{
			SessionID:   c.newID(),
			Description: description,
		},
		Selection: snapshot,
		StartedAt: c.now(),
	}
	c.active = s
	c.state = StateSubmitting
	c.mu.Unlock()

	c.log.Info().
		Str("session", s.ID()).
		Int("agents", len(snapshot)).
		Msg("analysis submitted")
	c.hooks.Emit(ctx, hooks.EventAnalysisSubmitted, map[string]any{
		"session_id": s.ID(),
		"agents":     agentNames(snapshot),
	})
	return s, nil
}

// Complete issues the session's single request and resolves it. Every path
// ends in Resolved: transport failures are absorbed by the fallback
// generator and reported only as a notice on the result.
func (c *Controller) Complete(ctx context.Context, s *Session) domain.AnalysisResult {
	result := domain.AnalysisResult{
		SessionID:   s.ID(),
		Description: s.Request.Description,
	}

	payload, err := c.submit(ctx, s)
	if err != nil {
		result.Source = domain.SourceFallback
		result.Notice = noticeFor(err)
		result.AgentResponses = analysis.Generate(s.Selection, s.Request.Description)

		c.log.Warn().Err(err).Str("session", s.ID()).Msg("backend unavailable, using fallback analysis")
		data := map[string]any{"session_id": s.ID(), "error": err.Error()}
		var te *backend.TransportError
		if errors.As(err, &te) {
			data["status"] = te.Status
			data["temporary"] = te.Temporary()
		}
		c.hooks.Emit(ctx, hooks.EventTransportFailed, data)
	} else {
		shape := analysis.Classify(payload)
		result.Source = domain.SourceBackend
		result.AgentResponses = analysis.NormalizeShape(shape, payload, s.Selection)
		if shape.Kind == analysis.KindMisconfigured {
			result.Notice = "De analyseservice is verkeerd geconfigureerd (" + shape.Marker + ")"
		}
		c.log.Info().
			Str("session", s.ID()).
			Stringer("shape", shape.Kind).
			Msg("analysis resolved")
	}
	result.ResolvedAt = c.now()

	c.mu.Lock()
	if c.active == s {
		c.active = nil
		c.state = StateResolved
		c.last = &result
	}
	c.mu.Unlock()

	c.hooks.Emit(ctx, hooks.EventAnalysisResolved, map[string]any{
		"session_id": result.SessionID,
		"source":     string(result.Source),
		"notice":     result.Notice,
		"responses":  len(result.AgentResponses),
	})
	return result
}

func (c *Controller) submit(ctx context.Context, s *Session) ([]byte, error) {
	if c.submitter == nil {
		return nil, errors.New("no analysis backend configured")
	}
	return c.submitter.Submit(ctx, s.Request)
}

// Submit runs Begin and Complete back to back.
func (c *Controller) Submit(ctx context.Context, description string) (domain.AnalysisResult, error) {
	s, err := c.Begin(ctx, description)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return c.Complete(ctx, s), nil
}

func noticeFor(err error) string {
	var te *backend.TransportError
	switch {
	case errors.As(err, &te) && te.Timeout():
		return "Backend reageerde niet op tijd; voorbeeldanalyse getoond"
	case errors.As(err, &te) && te.Status != 0:
		return fmt.Sprintf("Backend fout %d; voorbeeldanalyse getoond", te.Status)
	default:
		return "Backend niet bereikbaar; voorbeeldanalyse getoond"
	}
}

func agentNames(agents []domain.Agent) []string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	return names
}
