package core

import (
	"cmp"
	"slices"
)

// PlanEntry is one module's outcome from dependency resolution: either an
// order position (ready to load) or a failure reason with the dependency
// that could not be satisfied.
type PlanEntry struct {
	ID       ModuleIdentifier
	Metadata ModuleMetadata
	Failed   bool
	Reason   FailureReason
	Cause    ModuleIdentifier // the missing/disabled dependency, when relevant
}

// Plan is the ordered result of dependency resolution: LoadOrder lists the
// modules to load, in order; Failures lists everything excluded, with why.
type Plan struct {
	LoadOrder []PlanEntry
	Failures  []PlanEntry
}

// Resolve orders candidates by declared dependency edges using Kahn's
// algorithm, tie-breaking ready nodes by (priority asc, index asc, id
// lexicographic) as required by spec §4.F. Modules in enabledOverride set
// to false (and anything explicitly disabled in its own metadata) are
// excluded along with their transitive dependents, which are marked
// Failed/MissingDependency. Cycles are detected and every module
// participating in one is marked Failed/DependencyCycle; the acyclic
// remainder still resolves.
func Resolve(candidates []ModuleMetadata, enabledOverride map[ModuleIdentifier]bool) Plan {
	byID := make(map[ModuleIdentifier]ModuleMetadata, len(candidates))
	for _, m := range candidates {
		byID[m.ID] = m
	}

	enabled := make(map[ModuleIdentifier]bool, len(candidates))
	for _, m := range candidates {
		e := m.Enabled
		if ov, ok := enabledOverride[m.ID]; ok {
			e = ov
		}
		enabled[m.ID] = e
	}

	var plan Plan
	failed := make(map[ModuleIdentifier]FailureReason)

	// Propagate missing/disabled dependencies transitively via fixed point
	// iteration: small graphs, simplicity over asymptotic cleverness.
	changed := true
	for changed {
		changed = false
		for _, m := range candidates {
			if _, already := failed[m.ID]; already {
				continue
			}
			if !enabled[m.ID] {
				failed[m.ID] = ReasonMissingDependency
				changed = true
				continue
			}
			for _, dep := range m.Deps {
				depMeta, exists := byID[dep]
				if !exists || !enabled[dep] {
					failed[m.ID] = ReasonMissingDependency
					changed = true
					break
				}
				if _, depFailed := failed[dep]; depFailed {
					failed[m.ID] = ReasonMissingDependency
					changed = true
					break
				}
				_ = depMeta
			}
		}
	}

	remaining := make(map[ModuleIdentifier]ModuleMetadata)
	indegree := make(map[ModuleIdentifier]int)
	dependents := make(map[ModuleIdentifier][]ModuleIdentifier)
	for _, m := range candidates {
		if _, isFailed := failed[m.ID]; isFailed {
			continue
		}
		remaining[m.ID] = m
		indegree[m.ID] = 0
	}
	for id, m := range remaining {
		for _, dep := range m.Deps {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []ModuleIdentifier
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	sortReady := func(ids []ModuleIdentifier) {
		slices.SortFunc(ids, func(a, b ModuleIdentifier) int {
			ma, mb := remaining[a], remaining[b]
			if ma.Priority != mb.Priority {
				return cmp.Compare(ma.Priority, mb.Priority)
			}
			if ma.Index != mb.Index {
				return cmp.Compare(ma.Index, mb.Index)
			}
			return cmp.Compare(a, b)
		})
	}

	var order []ModuleIdentifier
	for len(ready) > 0 {
		sortReady(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		delete(indegree, next)

		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	// Anything left in indegree with a positive count is part of a cycle.
	var cyclic []ModuleIdentifier
	for id, deg := range indegree {
		if deg > 0 {
			cyclic = append(cyclic, id)
		}
	}
	slices.Sort(cyclic)
	for _, id := range cyclic {
		failed[id] = ReasonDependencyCycle
	}

	for _, id := range order {
		plan.LoadOrder = append(plan.LoadOrder, PlanEntry{ID: id, Metadata: remaining[id]})
	}

	failedIDs := make([]ModuleIdentifier, 0, len(failed))
	for id := range failed {
		failedIDs = append(failedIDs, id)
	}
	slices.Sort(failedIDs)
	for _, id := range failedIDs {
		entry := PlanEntry{ID: id, Metadata: byID[id], Failed: true, Reason: failed[id]}
		if entry.Reason == ReasonMissingDependency {
			entry.Cause = firstUnsatisfiedDep(byID[id], byID, enabled, failed)
		}
		plan.Failures = append(plan.Failures, entry)
	}

	return plan
}

func firstUnsatisfiedDep(m ModuleMetadata, byID map[ModuleIdentifier]ModuleMetadata, enabled map[ModuleIdentifier]bool, failed map[ModuleIdentifier]FailureReason) ModuleIdentifier {
	if !enabled[m.ID] {
		return m.ID
	}
	for _, dep := range m.Deps {
		if _, exists := byID[dep]; !exists {
			return dep
		}
		if !enabled[dep] {
			return dep
		}
		if _, isFailed := failed[dep]; isFailed {
			return dep
		}
	}
	return ""
}
