// Package graphexport renders the dependency graph for downstream
// lineage tooling (spec §6 "Emitted artifacts"), in either a flat
// nodes/edges document or a hierarchical (layer-grouped) one.
package graphexport

import (
	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/depgraph"
	"github.com/shubham184/fabric-compiler/internal/model"
	"gopkg.in/yaml.v3"
)

// Format selects the document shape export_graph renders.
type Format string

const (
	FormatNodesEdges   Format = "nodes_edges"
	FormatHierarchical Format = "hierarchical"
)

type edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type nodesEdgesDoc struct {
	Nodes []string `yaml:"nodes"`
	Edges []edge   `yaml:"edges"`
}

type hierarchicalDoc struct {
	Layers map[model.Layer][]string `yaml:"layers"`
	Edges  []edge                   `yaml:"edges"`
}

// Export renders corpus's dependency graph as a YAML document in the
// requested format.
func Export(corpus model.Corpus, format Format) ([]byte, error) {
	g := depgraph.Build(corpus)
	names := corpus.SortedNames()

	var edges []edge
	for _, name := range names {
		for _, dep := range g.DependsOn(name) {
			edges = append(edges, edge{From: dep, To: name})
		}
	}

	switch format {
	case FormatNodesEdges:
		return yaml.Marshal(nodesEdgesDoc{Nodes: names, Edges: edges})
	case FormatHierarchical:
		layers := map[model.Layer][]string{}
		for _, name := range names {
			m := corpus[name]
			layers[m.Layer] = append(layers[m.Layer], name)
		}
		return yaml.Marshal(hierarchicalDoc{Layers: layers, Edges: edges})
	default:
		return nil, &cerrors.GenerationError{Msg: "unknown graph export format " + string(format)}
	}
}
