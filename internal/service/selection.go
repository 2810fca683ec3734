package service

import (
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/targets"
)

// Selection narrows the discovered targets. Exact, Upto and Dependents are
// combined as a union; Exclude is then subtracted. An empty Selection
// selects every target.
type Selection struct {
	Exact      []string
	Upto       []string
	Dependents []string
	Exclude    []string
}

// Apply returns the selected targets in build order.
func (s Selection) Apply(g *targets.Graph) ([]domain.Target, error) {
	keep := make(map[string]bool)
	positive := len(s.Exact)+len(s.Upto)+len(s.Dependents) > 0

	if positive {
		for _, sel := range []struct {
			names []string
			fn    func(...string) ([]domain.Target, error)
		}{
			{s.Exact, g.Exact},
			{s.Upto, g.Upto},
			{s.Dependents, g.Dependents},
		} {
			if len(sel.names) == 0 {
				continue
			}
			ts, err := sel.fn(sel.names...)
			if err != nil {
				return nil, err
			}
			for _, t := range ts {
				keep[t.Name] = true
			}
		}
	} else {
		for _, t := range g.Targets() {
			keep[t.Name] = true
		}
	}

	if len(s.Exclude) > 0 {
		remaining, err := g.Exclude(s.Exclude...)
		if err != nil {
			return nil, err
		}
		allowed := make(map[string]bool, len(remaining))
		for _, t := range remaining {
			allowed[t.Name] = true
		}
		for name := range keep {
			if !allowed[name] {
				delete(keep, name)
			}
		}
	}

	var out []domain.Target
	for _, t := range g.Targets() {
		if keep[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}
