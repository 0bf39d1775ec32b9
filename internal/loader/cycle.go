package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scriptc/internal/ir"
)

// CycleWarning reports recursion between top-level definitions.
//
// Self-recursion is supported (it lowers to a fixpoint) and is reported at
// level "info". Mutual recursion is rejected by the lowering engine and is
// reported at level "error" so tooling can flag it before compiling.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["even", "odd", "even"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "error" or "info"
}

// AnalyzeCycles builds the definition reference graph of p and reports each
// strongly connected component that is a cycle. Results follow definition
// order. A program without recursion returns an empty list.
func AnalyzeCycles(p *ir.Program) []CycleWarning {
	if len(p.Defs) == 0 {
		return []CycleWarning{}
	}
	graph, order := buildReferenceGraph(p)
	sccs := tarjanSCC(graph, order)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, order))
		}
	}
	return warnings
}

// referenceGraph maps a definition name to the definitions its body uses.
type referenceGraph map[string][]string

func buildReferenceGraph(p *ir.Program) (referenceGraph, []string) {
	graph := make(referenceGraph, len(p.Defs))
	order := make([]string, 0, len(p.Defs))
	for _, d := range p.Defs {
		if _, seen := graph[d.Name]; seen {
			continue
		}
		graph[d.Name] = []string{}
		order = append(order, d.Name)
	}

	for _, d := range p.Defs {
		var refs []string
		ir.Walk(d.Body, func(e ir.Expr) bool {
			var name string
			switch e := e.(type) {
			case *ir.Inst:
				name = e.Def
			case *ir.Var:
				name = e.Name
			}
			if _, ok := graph[name]; ok && !slices.Contains(refs, name) {
				refs = append(refs, name)
			}
			return true
		})
		graph[d.Name] = append(graph[d.Name], refs...)
	}
	return graph, order
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components, visiting roots in order.
func tarjanSCC(graph referenceGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph referenceGraph, order []string) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("self-recursive definition: %s -> %s", name, name),
			Level:   "info",
		}
	}

	// Start from the member declared first so output is stable.
	start := scc[0]
	for _, name := range order {
		if slices.Contains(scc, name) {
			start = name
			break
		}
	}
	path := reconstructCyclePath(start, scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("mutually recursive definitions are not supported: %s", strings.Join(path, " -> ")),
		Level:   "error",
	}
}

// reconstructCyclePath follows edges inside the SCC from start until it
// returns to start.
func reconstructCyclePath(start string, scc []string, graph referenceGraph) []string {
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if slices.Contains(scc, neighbor) && (!visited[neighbor] || neighbor == start) && neighbor != current {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
