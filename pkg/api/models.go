package api

// AssignRequest is the JSON body for POST /api/v1/assign.
type AssignRequest struct {
	Agents []AgentJSON `json:"agents"`
}

// AgentJSON is one agent. Each endpoint is given either as a node id or as
// a planar position that is snapped to the nearest roadmap node.
type AgentJSON struct {
	Name     string     `json:"name"`
	Start    *int64     `json:"start,omitempty"`
	Goal     *int64     `json:"goal,omitempty"`
	StartPos *PointJSON `json:"start_pos,omitempty"`
	GoalPos  *PointJSON `json:"goal_pos,omitempty"`
}

// PointJSON represents a planar position in roadmap units.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AssignResponse is the JSON response for a successful assignment.
type AssignResponse struct {
	Makespan    float64          `json:"makespan"`
	Cost        float64          `json:"cost"`
	Assignments []AssignmentJSON `json:"assignments"`
	Evaluated   int              `json:"evaluated"`
	Expanded    int              `json:"expanded"`
}

// AssignmentJSON is the goal chosen for one agent.
type AssignmentJSON struct {
	Name  string  `json:"name"`
	Start int64   `json:"start"`
	Goal  int64   `json:"goal"`
	Cost  float64 `json:"cost"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes uint32 `json:"num_nodes"`
	NumLinks uint32 `json:"num_links"`
	MaxID    int64  `json:"max_id"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
