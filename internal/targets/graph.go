package targets

import (
	"fmt"
	"slices"
	"sort"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// Graph is a set of targets with their in-tree parent relationships.
type Graph struct {
	order    []Node              // parents before children, ties by name
	byName   map[string]Node
	children map[string][]string
}

// NewGraph orders nodes so that parents precede their children.
func NewGraph(nodes []Node) (*Graph, error) {
	g := &Graph{
		byName:   make(map[string]Node, len(nodes)),
		children: make(map[string][]string),
	}
	for _, n := range nodes {
		if _, dup := g.byName[n.Name]; dup {
			return nil, fmt.Errorf("duplicate target %s", n.Name)
		}
		g.byName[n.Name] = n
	}
	for _, n := range nodes {
		if _, ok := g.byName[n.Parent]; ok {
			g.children[n.Parent] = append(g.children[n.Parent], n.Name)
		}
	}

	var roots []string
	for name, n := range g.byName {
		if _, inTree := g.byName[n.Parent]; !inTree {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)

	queue := roots
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		g.order = append(g.order, g.byName[name])
		kids := slices.Clone(g.children[name])
		sort.Strings(kids)
		queue = append(queue, kids...)
	}
	if len(g.order) != len(nodes) {
		return nil, ErrCycle
	}
	return g, nil
}

// Targets returns all targets in build order.
func (g *Graph) Targets() []domain.Target {
	return g.filter(func(string) bool { return true })
}

// Names returns the names of all targets.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.order))
	for _, n := range g.order {
		names = append(names, n.Name)
	}
	return names
}

// Lookup returns the target with the given name.
func (g *Graph) Lookup(name string) (domain.Target, bool) {
	n, ok := g.byName[name]
	return n.Target, ok
}

// Exact selects only the named targets.
func (g *Graph) Exact(names ...string) ([]domain.Target, error) {
	set, err := g.set(names)
	if err != nil {
		return nil, err
	}
	return g.filter(func(n string) bool { return set[n] }), nil
}

// Upto selects the named targets and everything they are built from.
func (g *Graph) Upto(names ...string) ([]domain.Target, error) {
	set, err := g.set(names)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool)
	for name := range set {
		for cur, ok := g.byName[name]; ok; cur, ok = g.byName[cur.Parent] {
			keep[cur.Name] = true
		}
	}
	return g.filter(func(n string) bool { return keep[n] }), nil
}

// Dependents selects the named targets, their ancestors and their descendants.
func (g *Graph) Dependents(names ...string) ([]domain.Target, error) {
	up, err := g.Upto(names...)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool)
	for _, t := range up {
		keep[t.Name] = true
	}
	for _, name := range names {
		g.descend(name, keep)
	}
	return g.filter(func(n string) bool { return keep[n] }), nil
}

// Exclude selects everything except the named targets and their descendants.
func (g *Graph) Exclude(names ...string) ([]domain.Target, error) {
	if _, err := g.set(names); err != nil {
		return nil, err
	}
	drop := make(map[string]bool)
	for _, name := range names {
		g.descend(name, drop)
	}
	return g.filter(func(n string) bool { return !drop[n] }), nil
}

func (g *Graph) descend(name string, into map[string]bool) {
	into[name] = true
	for _, child := range g.children[name] {
		g.descend(child, into)
	}
}

func (g *Graph) set(names []string) (map[string]bool, error) {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := g.byName[name]; !ok {
			return nil, fmt.Errorf("%w %s", ErrUnknownTarget, name)
		}
		set[name] = true
	}
	return set, nil
}

func (g *Graph) filter(keep func(string) bool) []domain.Target {
	var out []domain.Target
	for _, n := range g.order {
		if keep(n.Name) {
			out = append(out, n.Target)
		}
	}
	return out
}
