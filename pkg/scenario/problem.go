package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/azybler/goal_allocator/pkg/roadmap"
)

var (
	// ErrMissingEndpoint is returned when an agent has neither a node id nor
	// a position for its start or goal.
	ErrMissingEndpoint = errors.New("agent endpoint needs a node id or a position")
	// ErrDuplicateAgent is returned when two agents share a name.
	ErrDuplicateAgent = errors.New("duplicate agent name")
)

// Endpoint is a start or goal. When Pos is set it is snapped to the nearest
// roadmap node and ID is ignored.
type Endpoint struct {
	ID  roadmap.NodeID
	Pos *orb.Point
}

// AgentSpec is one agent of a problem, in file order.
type AgentSpec struct {
	Name  string
	Start Endpoint
	Goal  Endpoint
}

type problemEntry struct {
	V    *nodeRef  `yaml:"v"`
	G    *nodeRef  `yaml:"g"`
	VPos *position `yaml:"v_pos"`
	GPos *position `yaml:"g_pos"`
}

func endpoint(id *nodeRef, pos *position) (Endpoint, bool) {
	switch {
	case pos != nil:
		return Endpoint{Pos: &orb.Point{pos.X, pos.Y}}, true
	case id != nil:
		return Endpoint{ID: roadmap.NodeID(*id)}, true
	}
	return Endpoint{}, false
}

// ParseProblem reads a problem document of the form
//
//	<name>:
//	  v: <start id>
//	  g: <goal id>
//
// keeping agents in document order. v_pos/g_pos ({x, y}) may replace v/g.
func ParseProblem(r io.Reader) ([]AgentSpec, error) {
	pairs, err := mappingPairs(r)
	if err != nil {
		return nil, err
	}

	agents := make([]AgentSpec, 0, len(pairs)/2)
	names := make(map[string]struct{}, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].Value
		if _, dup := names[name]; dup {
			return nil, fmt.Errorf("line %d: %q: %w", pairs[i].Line, name, ErrDuplicateAgent)
		}
		names[name] = struct{}{}

		var e problemEntry
		if err := pairs[i+1].Decode(&e); err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}
		start, ok := endpoint(e.V, e.VPos)
		if !ok {
			return nil, fmt.Errorf("agent %q start: %w", name, ErrMissingEndpoint)
		}
		goal, ok := endpoint(e.G, e.GPos)
		if !ok {
			return nil, fmt.Errorf("agent %q goal: %w", name, ErrMissingEndpoint)
		}
		agents = append(agents, AgentSpec{Name: name, Start: start, Goal: goal})
	}
	return agents, nil
}

// ReadProblem parses the problem file at path.
func ReadProblem(path string) ([]AgentSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	agents, err := ParseProblem(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return agents, nil
}

// WriteAssignment writes one entry per agent in input order:
//
//	<name>:
//	  v: '<start id>'
//	  g: '<goal id>'
func WriteAssignment(w io.Writer, a *Assignment) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, ag := range a.Agents {
		entry := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			strNode("v"), quotedID(ag.Start),
			strNode("g"), quotedID(ag.Goal),
		}}
		root.Content = append(root.Content, strNode(ag.Name), entry)
	}
	return encodeNode(w, root)
}

func quotedID(id roadmap.NodeID) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.SingleQuotedStyle,
		Value: strconv.FormatInt(int64(id), 10),
	}
}

// WriteAssignmentFile writes the assignment to path.
func WriteAssignmentFile(path string, a *Assignment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteAssignment(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
