// Package scenario reads and writes the file formats around an assignment
// run: roadmap graphs, agent problems and assignment results.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	osmparser "github.com/azybler/goal_allocator/pkg/osm"
	"github.com/azybler/goal_allocator/pkg/roadmap"
)

var (
	// ErrUnsupportedFormat is returned by LoadGraph for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported graph format")
	// ErrNotMapping is returned when a document's root is not a YAML mapping.
	ErrNotMapping = errors.New("document root is not a mapping")
)

// nodeRef is a node id that may be written as a bare or quoted scalar.
type nodeRef roadmap.NodeID

func (r *nodeRef) UnmarshalYAML(value *yaml.Node) error {
	id, err := parseNodeID(value)
	if err != nil {
		return err
	}
	*r = nodeRef(id)
	return nil
}

func parseNodeID(n *yaml.Node) (roadmap.NodeID, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: node id must be a scalar", n.Line)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(n.Value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: bad node id %q", n.Line, n.Value)
	}
	return roadmap.NodeID(id), nil
}

type position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type graphEntry struct {
	Pos   position  `yaml:"pos"`
	Neigh []nodeRef `yaml:"neigh"`
}

// mappingPairs decodes a document and returns its root mapping's
// key/value nodes in document order.
func mappingPairs(r io.Reader) ([]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	return root.Content, nil
}

// ParseGraphYAML reads a graph document of the form
//
//	<id>:
//	  pos: {x: <float>, y: <float>}
//	  neigh: [<id>, ...]
func ParseGraphYAML(r io.Reader) ([]roadmap.RawNode, error) {
	pairs, err := mappingPairs(r)
	if err != nil {
		return nil, err
	}

	nodes := make([]roadmap.RawNode, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		id, err := parseNodeID(pairs[i])
		if err != nil {
			return nil, err
		}
		var e graphEntry
		if err := pairs[i+1].Decode(&e); err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		nbs := make([]roadmap.NodeID, len(e.Neigh))
		for k, nb := range e.Neigh {
			nbs[k] = roadmap.NodeID(nb)
		}
		nodes = append(nodes, roadmap.RawNode{ID: id, X: e.Pos.X, Y: e.Pos.Y, Neighbors: nbs})
	}
	return nodes, nil
}

// WriteGraphYAML writes g in the format read by ParseGraphYAML, in slot
// order.
func WriteGraphYAML(w io.Writer, g *roadmap.Graph) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range g.Raw() {
		neigh := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, nb := range n.Neighbors {
			neigh.Content = append(neigh.Content, intNode(int64(nb)))
		}
		pos := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle, Content: []*yaml.Node{
			strNode("x"), floatNode(n.X),
			strNode("y"), floatNode(n.Y),
		}}
		entry := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			strNode("pos"), pos,
			strNode("neigh"), neigh,
		}}
		root.Content = append(root.Content, intNode(int64(n.ID)), entry)
	}
	return encodeNode(w, root)
}

func encodeNode(w io.Writer, n *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatInt(v, 10)}
}

func floatNode(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)}
}

// ImportOSM builds a roadmap from an OSM PBF extract. Only the largest
// connected component is kept so every pair of nodes is mutually reachable.
func ImportOSM(ctx context.Context, path string, opts osmparser.ParseOptions) (*roadmap.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := osmparser.Parse(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	full, err := roadmap.Build(roadmap.FromOSM(result))
	if err != nil {
		return nil, fmt.Errorf("build roadmap: %w", err)
	}

	keep := roadmap.LargestComponent(full)
	log.WithFields(log.Fields{
		"nodes":   full.NumNodes,
		"kept":    len(keep),
		"dropped": int(full.NumNodes) - len(keep),
	}).Info("filtered roadmap to largest component")

	return roadmap.FilterToComponent(full, keep)
}

// LoadGraph loads a roadmap, choosing the reader by file extension:
// .yaml/.yml graph documents, .bin roadmap caches or .pbf OSM extracts.
func LoadGraph(ctx context.Context, path string) (*roadmap.Graph, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		nodes, err := ParseGraphYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		g, err := roadmap.Build(nodes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil
	case ".bin":
		return roadmap.ReadBinary(path)
	case ".pbf":
		return ImportOSM(ctx, path, osmparser.ParseOptions{})
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}
