package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"github.com/azybler/goal_allocator/pkg/oracle"
	"github.com/azybler/goal_allocator/pkg/roadmap"
	"github.com/azybler/goal_allocator/pkg/scenario"
)

// maxBodyBytes bounds the request body of POST /api/v1/assign.
const maxBodyBytes = 1 << 20

// Assigner solves assignment problems. *scenario.Solver implements it.
type Assigner interface {
	Solve(ctx context.Context, agents []scenario.AgentSpec) (*scenario.Assignment, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	assigner  Assigner
	stats     StatsResponse
	maxAgents int
}

// NewHandlers creates handlers with the given assigner. Requests with more
// than maxAgents agents are rejected; zero means no limit.
func NewHandlers(assigner Assigner, stats StatsResponse, maxAgents int) *Handlers {
	return &Handlers{
		assigner:  assigner,
		stats:     stats,
		maxAgents: maxAgents,
	}
}

// HandleAssign handles POST /api/v1/assign.
func (h *Handlers) HandleAssign(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if h.maxAgents > 0 && len(req.Agents) > h.maxAgents {
		writeError(w, http.StatusBadRequest, "too_many_agents", "agents")
		return
	}

	agents := make([]scenario.AgentSpec, len(req.Agents))
	for i, a := range req.Agents {
		spec, field, err := toAgentSpec(i, a)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_agent", field)
			return
		}
		agents[i] = spec
	}

	result, err := h.assigner.Solve(r.Context(), agents)
	if err != nil {
		switch {
		case errors.Is(err, oracle.ErrUnreachable):
			writeError(w, http.StatusUnprocessableEntity, "unreachable_goal", "")
		case errors.Is(err, roadmap.ErrPointTooFar), errors.Is(err, roadmap.ErrEmptyGraph):
			writeError(w, http.StatusUnprocessableEntity, "point_too_far", "")
		case errors.Is(err, roadmap.ErrUnknownNode):
			writeError(w, http.StatusBadRequest, "unknown_node", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			log.WithError(err).Error("assignment failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	resp := AssignResponse{
		Makespan:    result.Makespan,
		Cost:        result.Cost,
		Assignments: make([]AssignmentJSON, len(result.Agents)),
		Evaluated:   result.Stats.Evaluated,
		Expanded:    result.Stats.Expanded,
	}
	for i, a := range result.Agents {
		resp.Assignments[i] = AssignmentJSON{
			Name:  a.Name,
			Start: int64(a.Start),
			Goal:  int64(a.Goal),
			Cost:  a.Cost,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

// toAgentSpec validates one request agent. On failure it returns the
// offending field path.
func toAgentSpec(i int, a AgentJSON) (scenario.AgentSpec, string, error) {
	prefix := fmt.Sprintf("agents[%d].", i)
	start, err := toEndpoint(a.Start, a.StartPos)
	if err != nil {
		return scenario.AgentSpec{}, prefix + "start", err
	}
	goal, err := toEndpoint(a.Goal, a.GoalPos)
	if err != nil {
		return scenario.AgentSpec{}, prefix + "goal", err
	}
	name := a.Name
	if name == "" {
		name = strconv.Itoa(i)
	}
	return scenario.AgentSpec{Name: name, Start: start, Goal: goal}, "", nil
}

func toEndpoint(id *int64, pos *PointJSON) (scenario.Endpoint, error) {
	switch {
	case pos != nil:
		return scenario.Endpoint{Pos: &orb.Point{pos.X, pos.Y}}, nil
	case id != nil:
		return scenario.Endpoint{ID: roadmap.NodeID(*id)}, nil
	}
	return scenario.Endpoint{}, scenario.ErrMissingEndpoint
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
