package results

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	gvEdgeDirected   = regexp.MustCompile(`^\s*"?([^"\s]+)"?\s*->\s*"?([^"\s;]+)"?`)
	gvEdgeUndirected = regexp.MustCompile(`^\s*"?([^"\s]+)"?\s*--\s*"?([^"\s;]+)"?`)
)

// parseNetworkFile parses a .gv (Graphviz, F11) or .vna (NetDraw, F10)
// network snapshot into a minimal Graph. Missing files yield an empty,
// non-error Graph, consistent with the other "optional artifact"
// accessors.
func parseNetworkFile(path string) (Graph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{}, nil
		}
		return Graph{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gv":
		return parseGraphviz(string(content))
	case ".vna":
		return parseVNA(string(content))
	default:
		return Graph{}, nil
	}
}

func parseGraphviz(content string) (Graph, error) {
	directed := strings.Contains(content, "digraph")
	g := Graph{Directed: directed}
	nodeSet := map[string]bool{}

	edgeRE := gvEdgeUndirected
	if directed {
		edgeRE = gvEdgeDirected
	}

	for _, line := range strings.Split(content, "\n") {
		m := edgeRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		from, to := m[1], m[2]
		if !nodeSet[from] {
			nodeSet[from] = true
			g.Nodes = append(g.Nodes, from)
		}
		if !nodeSet[to] {
			nodeSet[to] = true
			g.Nodes = append(g.Nodes, to)
		}
		g.Edges = append(g.Edges, Edge{From: from, To: to})
	}
	return g, nil
}

// parseVNA parses the legacy NetDraw *.vna format: a "*node data" section
// listing node IDs, followed by a "*tie data" section listing
// "from to weight" triples.
func parseVNA(content string) (Graph, error) {
	g := Graph{Directed: true}
	nodeSet := map[string]bool{}

	section := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "*node") {
			section = "node"
			continue
		}
		if strings.HasPrefix(lower, "*tie") {
			section = "tie"
			continue
		}
		switch section {
		case "node":
			id := strings.Fields(line)[0]
			if !nodeSet[id] {
				nodeSet[id] = true
				g.Nodes = append(g.Nodes, id)
			}
		case "tie":
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			g.Edges = append(g.Edges, Edge{From: fields[0], To: fields[1]})
		}
	}
	return g, nil
}
