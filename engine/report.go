package engine

import (
	"fmt"
	"strings"
)

// DependencyReport recursively describes target's dependency tree,
// reporting circular dependencies inline instead of recursing forever.
// Ports dep.py's recursive_target_report.
//
// dep.py's version unpacks find_target's result as three elements
// ("deps, fcn, flags = find_target(target)") while find_target actually
// returns four ("inputs, params, function, flags") — a latent bug noted
// in spec §9 ("Known template bug"). This port consumes the registry's
// real four-field Descriptor instead of reproducing the mis-unpack.
func (e *Engine) DependencyReport(target string) string {
	return e.dependencyReport(target, map[string]bool{})
}

func (e *Engine) dependencyReport(target string, above map[string]bool) string {
	visited := make(map[string]bool, len(above)+1)
	for k := range above {
		visited[k] = true
	}
	visited[target] = true

	desc, err := e.registry.Resolve(target)
	if err != nil {
		return fmt.Sprintf("%q (could not be resolved: %v)\n", target, err)
	}

	if len(desc.Inputs) == 0 {
		return fmt.Sprintf("%q\n", target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q depends on:\n", target)
	for _, dep := range desc.Inputs {
		if visited[dep] {
			fmt.Fprintf(&b, "  %q, which is a circular dependency!\n", dep)
			continue
		}
		sub := e.dependencyReport(dep, visited)
		for _, line := range strings.Split(strings.TrimRight(sub, "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return b.String()
}
