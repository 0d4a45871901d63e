package modules

import (
	"container/heap"
	"math"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// ResolveLoadOrder returns every module in modules exactly once, each after
// all of its depends_on entries. Among modules that become ready at the same
// time, the one listed earlier in preferred loads first; modules absent from
// preferred follow in name order.
//
// Fails with ErrMissingDependency if a dependency is not in modules and with
// ErrCircularDependency, naming the modules that could not be ordered, if the
// graph has a cycle. No partial order is returned on failure.
func ResolveLoadOrder(modules map[string]*types.ModuleDescriptor, preferred []string) ([]string, error) {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	slices.Sort(names)

	inDegree := make(map[string]int, len(modules))
	dependents := make(map[string][]string, len(modules))
	for _, name := range names {
		seen := make(map[string]bool)
		for _, dep := range modules[name].DependsOn {
			if _, ok := modules[dep]; !ok {
				return nil, types.MissingDependency(name, dep)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	rank := make(map[string]int, len(preferred))
	for i, name := range preferred {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}
	ready := &readyQueue{}
	push := func(name string) {
		idx, ok := rank[name]
		if !ok {
			idx = math.MaxInt
		}
		heap.Push(ready, readyModule{index: idx, name: name})
	}
	for _, name := range names {
		if inDegree[name] == 0 {
			push(name)
		}
	}

	order := make([]string, 0, len(modules))
	for ready.Len() > 0 {
		m := heap.Pop(ready).(readyModule)
		order = append(order, m.name)
		for _, dep := range dependents[m.name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				push(dep)
			}
		}
	}

	if len(order) < len(modules) {
		var unresolved []string
		for _, name := range names {
			if inDegree[name] > 0 {
				unresolved = append(unresolved, name)
			}
		}
		return nil, types.CircularDependency(unresolved)
	}
	return order, nil
}

type readyModule struct {
	index int
	name  string
}

// readyQueue is a min-heap of modules keyed by (index, name).
type readyQueue []readyModule

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].index != q[j].index {
		return q[i].index < q[j].index
	}
	return q[i].name < q[j].name
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(readyModule)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Expand flattens the nested modules declarations below root into one
// deduplicated list in depth-first pre-order. root itself is not included.
// A module reachable along more than one path appears once. A module that
// is its own descendant fails with ErrCircularDependency naming the path.
func Expand(modules map[string]*types.ModuleDescriptor, root string) ([]string, error) {
	if _, ok := modules[root]; !ok {
		return nil, errors.Wrapf(types.ErrNotFound, "module %q", root)
	}
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var order, path []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = visiting
		path = append(path, name)
		for _, child := range modules[name].Modules {
			if _, ok := modules[child]; !ok {
				return types.MissingDependency(name, child)
			}
			switch state[child] {
			case visiting:
				start := slices.Index(path, child)
				return types.CircularDependency(append(slices.Clone(path[start:]), child))
			case done:
				continue
			}
			order = append(order, child)
			if err := visit(child); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}

// Closure returns names together with every module they depend on,
// directly or transitively. Dependencies missing from modules are left for
// ResolveLoadOrder to report.
func Closure(modules map[string]*types.ModuleDescriptor, names []string) map[string]*types.ModuleDescriptor {
	out := make(map[string]*types.ModuleDescriptor)
	queue := slices.Clone(names)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, seen := out[name]; seen {
			continue
		}
		d, ok := modules[name]
		if !ok {
			continue
		}
		out[name] = d
		queue = append(queue, d.DependsOn...)
	}
	return out
}
