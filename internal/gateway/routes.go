package gateway

import (
	"context"
	"net/http"

	"github.com/soyeahso/somc/internal/domain"
)

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /config", s.handleConfig)
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("catalog.list", s.rpcCatalogList)
	s.Handle("selection.toggle", s.rpcSelectionToggle)
	s.Handle("selection.list", s.rpcSelectionList)
	s.Handle("analysis.submit", s.rpcAnalysisSubmit)
	s.Handle("analysis.state", s.rpcAnalysisState)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
		Agents:  s.catalog.Len(),
	})
}

func (s *Server) rpcCatalogList(rc *RequestContext) {
	rc.Respond(s.agentList())
}

type toggleParams struct {
	AgentID string `json:"agentId"`
}

func (s *Server) rpcSelectionToggle(rc *RequestContext) {
	var p toggleParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.AgentID == "" {
		rc.RespondError("invalid_params", "agentId is required")
		return
	}

	selected, err := rc.Client.Session.Toggle(rc.Client.Context(), p.AgentID)
	if err != nil {
		rc.RespondErrorShape(sessionError(err))
		return
	}
	rc.Respond(map[string]any{"agentId": p.AgentID, "selected": selected})
}

func (s *Server) rpcSelectionList(rc *RequestContext) {
	rc.Respond(map[string]any{"agents": rc.Client.Session.Selected()})
}

type submitParams struct {
	Description string `json:"description"`
}

// rpcAnalysisSubmit answers as soon as the session is Submitting; the
// resolved result follows as an analysis.resolved event.
func (s *Server) rpcAnalysisSubmit(rc *RequestContext) {
	var p submitParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	ctrl := rc.Client.Session
	sess, err := ctrl.Begin(rc.Client.Context(), p.Description)
	if err != nil {
		rc.RespondErrorShape(sessionError(err))
		return
	}

	rc.Respond(map[string]any{
		"sessionId": sess.ID(),
		"state":     ctrl.State().String(),
		"agents":    sess.Selection,
	})

	client := rc.Client
	client.Go(func(ctx context.Context) {
		result := ctrl.Complete(ctx, sess)
		if err := client.SendEvent(EventAnalysisResolved, result, s.eventSeq.Add(1)); err != nil {
			s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("result not delivered")
		}
	})
}

type stateResponse struct {
	State     string                 `json:"state"`
	SessionID string                 `json:"sessionId,omitempty"`
	Last      *domain.AnalysisResult `json:"last,omitempty"`
}

func (s *Server) rpcAnalysisState(rc *RequestContext) {
	ctrl := rc.Client.Session
	resp := stateResponse{State: ctrl.State().String()}
	if active := ctrl.Active(); active != nil {
		resp.SessionID = active.ID()
	}
	if last, ok := ctrl.Last(); ok {
		resp.Last = &last
	}
	rc.Respond(resp)
}
