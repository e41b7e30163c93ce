package engine

import "fmt"

// Relevant recursively gathers the sorted, deduplicated union of target's
// own declared parameter names and the Relevant parameters of each of its
// inputs (spec §4.5 "Relevant-parameter gathering"). Ports dep.py's
// gather_relevant_parameters, including its insertion-sort-into-a-sorted-
// list approach, and adds a visited set so a cyclic dependency graph
// surfaces as ErrCycleDetected (spec §7, §9) instead of recursing forever.
func (e *Engine) Relevant(target string) ([]string, error) {
	return e.relevant(target, map[string]bool{})
}

func (e *Engine) relevant(target string, path map[string]bool) ([]string, error) {
	if path[target] {
		return nil, fmt.Errorf("%w: %q is part of a dependency cycle", ErrCycleDetected, target)
	}
	path[target] = true
	defer delete(path, target)

	desc, err := e.registry.Resolve(target)
	if err != nil {
		return nil, err
	}

	result := append([]string(nil), desc.Params...)
	sortUnique(&result)

	for _, input := range desc.Inputs {
		sub, err := e.relevant(input, path)
		if err != nil {
			return nil, err
		}
		for _, p := range sub {
			insertSorted(&result, p)
		}
	}

	return result, nil
}

// sortUnique sorts *s in place and removes duplicates, matching the
// source's guarantee that relevant() is always deterministic, sorted, and
// deduplicated.
func sortUnique(s *[]string) {
	out := make([]string, 0, len(*s))
	for _, v := range *s {
		insertSorted(&out, v)
	}
	*s = out
}

// insertSorted inserts v into the sorted slice *s if not already present,
// keeping *s sorted. Mirrors gather_relevant_parameters' manual
// insertion-sort loop rather than appending then re-sorting the whole
// slice, since each call only ever adds one element at a time.
func insertSorted(s *[]string, v string) {
	for i, existing := range *s {
		if v < existing {
			*s = append(*s, "")
			copy((*s)[i+1:], (*s)[i:])
			(*s)[i] = v
			return
		}
		if v == existing {
			return
		}
	}
	*s = append(*s, v)
}
