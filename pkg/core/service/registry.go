package service

import (
	"fmt"
)

// Registry holds the stage services keyed by name, with the execution
// order derived once from their declared dependencies. Services are
// constructed at process start and injected; nothing here is global.
type Registry struct {
	services   map[string]CalculationService
	dependents map[string][]string // direct reverse edges, declaration order
	order      []string            // unique topological execution order
	ranks      map[string]int      // 1-based position in order
}

// NewRegistry derives the execution order from the services' declared
// dependencies using Kahn's algorithm, breaking ties by declaration order.
// A dependency on an unregistered service or a cycle is a construction
// error: the graph is fixed at startup, never patched at runtime.
func NewRegistry(services ...CalculationService) (*Registry, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("registry needs at least one service")
	}

	byName := make(map[string]CalculationService, len(services))
	declared := make([]string, 0, len(services))
	for _, svc := range services {
		name := svc.Name()
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("duplicate service %q", name)
		}
		byName[name] = svc
		declared = append(declared, name)
	}

	inDegree := make(map[string]int, len(declared))
	dependents := make(map[string][]string, len(declared))
	for _, name := range declared {
		for _, dep := range byName[name].Dependencies() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("service %q depends on unregistered service %q", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// 1. Kahn's algorithm. The ready set is scanned in declaration order
	// every round, which makes the resulting order unique.
	order := make([]string, 0, len(declared))
	done := make(map[string]bool, len(declared))
	for len(order) < len(declared) {
		progressed := false
		for _, name := range declared {
			if done[name] || inDegree[name] > 0 {
				continue
			}
			order = append(order, name)
			done[name] = true
			progressed = true
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
			}
			break
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle among services")
		}
	}

	ranks := make(map[string]int, len(order))
	for i, name := range order {
		ranks[name] = i + 1
	}

	return &Registry{
		services:   byName,
		dependents: dependents,
		order:      order,
		ranks:      ranks,
	}, nil
}

// Get returns the service registered under the given name.
func (r *Registry) Get(name string) (CalculationService, bool) {
	svc, ok := r.services[name]
	return svc, ok
}

// Order returns the full execution order.
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Rank returns the 1-based execution rank of a service.
func (r *Registry) Rank(name string) (int, bool) {
	rank, ok := r.ranks[name]
	return rank, ok
}

// TransitiveDependents returns every service that has the given one
// anywhere in its dependency set, in execution order. The named service
// itself is not included.
func (r *Registry) TransitiveDependents(name string) []string {
	reached := make(map[string]bool)
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependent := range r.dependents[current] {
			if !reached[dependent] {
				reached[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	out := make([]string, 0, len(reached))
	for _, candidate := range r.order {
		if reached[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}
