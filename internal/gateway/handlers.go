package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/selection"
	"github.com/soyeahso/somc/internal/session"
)

// HealthResponse is returned by GET /health and the health RPC.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Clients int    `json:"clients,omitempty"`
	Agents  int    `json:"agents,omitempty"`
}

// AgentList is the catalog listing shape.
type AgentList struct {
	Agents     []domain.Agent `json:"agents"`
	TotalCount int            `json:"total_count"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	AgentIDs    []string `json:"agent_ids"`
	Description string   `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleConfig serves the indirection document browsers use to find the
// analysis backend.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	api := ""
	if s.backendURL != "" {
		api = s.backendURL + "/api"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"API_URL":     api,
		"ENABLE_AUTH": "false",
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agentList())
}

func (s *Server) agentList() AgentList {
	agents := s.catalog.Agents()
	return AgentList{Agents: agents, TotalCount: len(agents)}
}

// handleAnalyze runs one complete submission on a throwaway controller.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayload)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	ctrl := s.newController(s.log.Sub("http"))
	for _, id := range req.AgentIDs {
		if _, err := ctrl.Toggle(r.Context(), id); err != nil {
			writeError(w, http.StatusBadRequest, "unknown_agent", err.Error())
			return
		}
	}

	result, err := ctrl.Submit(r.Context(), req.Description)
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation_failed",
			"reason":  verr.Reason,
			"message": session.UserMessage,
		})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// RequestHandler processes an RPC request frame.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.RespondErrorShape(ErrorShape{Code: code, Message: message})
}

// RespondErrorShape sends a fully specified error response.
func (rc *RequestContext) RespondErrorShape(e ErrorShape) {
	if err := rc.Client.RespondError(rc.Frame.ID, e); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error")
	}
}

// Params unmarshals the request params into target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// sessionError maps controller errors onto RPC error shapes.
func sessionError(err error) ErrorShape {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		return ErrorShape{Code: "validation_failed", Message: session.UserMessage, Details: map[string]string{"reason": verr.Reason}}
	case errors.Is(err, session.ErrSubmissionInFlight):
		return ErrorShape{Code: "busy", Message: err.Error(), Retryable: true}
	case errors.Is(err, selection.ErrUnknownAgent):
		return ErrorShape{Code: "unknown_agent", Message: err.Error()}
	default:
		return ErrorShape{Code: "internal", Message: err.Error()}
	}
}
