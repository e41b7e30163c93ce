package registry

import (
	"fmt"
	"strings"
)

// ResolveTrace searches for name exactly as Resolve does, but returns a
// human-readable log of every alias hop, generator pattern tried, and any
// generator factory failure encountered along the way — useful for
// debugging why a target didn't resolve the way it was expected to.
// Ports dep.py's find_target_report (spec §9 "debugging APIs that report
// resolution traces").
func (r *Registry) ResolveTrace(name string) string {
	var b strings.Builder

	visited := map[string]bool{}
	cur := name
	for {
		target, isAlias := r.aliases[cur]
		if !isAlias {
			break
		}
		if visited[cur] {
			fmt.Fprintf(&b, "alias %q -> %q closes a cycle; stopping\n", cur, target)
			return b.String()
		}
		visited[cur] = true
		fmt.Fprintf(&b, "alias %q -> %q\n", cur, target)
		cur = target
	}

	if _, ok := r.known[cur]; ok {
		fmt.Fprintf(&b, "found known target %q\n", cur)
		return b.String()
	}

	fmt.Fprintf(&b, "unknown target %q; searching generators\n", cur)
	for _, g := range r.generators {
		desc, matched, err := g.factory(cur)
		if !matched {
			fmt.Fprintf(&b, "didn't match pattern %q\n", g.pattern)
			continue
		}
		fmt.Fprintf(&b, "matched pattern %q\n", g.pattern)
		if err != nil {
			fmt.Fprintf(&b, "  generator failed: %v\n", err)
			continue
		}
		fmt.Fprintf(&b, "  generated descriptor with inputs: %s\n", strings.Join(desc.Inputs, ", "))
		return b.String()
	}

	fmt.Fprintf(&b, "no matching rules for %q\n", cur)
	return b.String()
}
