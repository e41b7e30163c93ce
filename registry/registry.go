// Package registry implements the Target Registry (spec §4.4): aliases,
// concrete known targets, and pattern-based generators, queried in that
// priority order to resolve a requested target name to a task descriptor.
//
// Unlike the source (dep.py), which keeps TARGET_ALIASES/KNOWN_TARGETS/
// TARGET_GENERATORS as module-level globals, Registry is an explicit value
// with its own lifetime (spec Design Notes §9): "these belong to an
// explicit Engine value with scoped lifetime."
package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownTarget is raised when a name resolves to neither an alias, a
// known target, nor any generator (spec §7).
var ErrUnknownTarget = errors.New("registry: unknown target")

// ErrCycleDetected is raised when alias resolution revisits a name it has
// already seen (spec §7, §9). The source silently returns the original
// name so the caller gets UnknownTarget instead; this reimplementation
// detects the loop directly and reports it, per Design Notes §9's
// instruction to "track a visited set ... and raise CycleDetected
// deterministically" (see DESIGN.md Open Questions for why both outcomes
// remain reachable, matching spec §8 scenario 6's "CycleDetected or
// UnknownTarget").
var ErrCycleDetected = errors.New("registry: cycle detected")

// ErrInvalidFlags is raised when a target is registered with both
// Ephemeral and Volatile (spec §9); registry.Flag mirrors cache.Flag so
// callers can validate at registration time without importing cache.
var ErrInvalidFlags = errors.New("registry: ephemeral and volatile flags are mutually exclusive")

// Flag mirrors cache.Flag. It's redeclared here (rather than imported)
// because the registry has no other dependency on the cache package and
// spec §4.4 treats flags as part of a target's descriptor, independent of
// how the cache manager later interprets them.
type Flag string

const (
	Ephemeral Flag = "ephemeral"
	Volatile  Flag = "volatile"
)

// Function is a task's body. It receives resolved input values (in the
// order declared by Descriptor.Inputs) followed by a map of bound
// parameter values (only those present in the caller's params map, per
// spec §4.5 step 2 — "unbound parameters are simply absent").
//
// Template- and iteration-generated descriptors wrap the user's function
// to additionally thread through a match object or iteration counter as
// described in TemplateTask/IterTask; Function itself is the common,
// lowest-level shape every generated or plain task ultimately presents to
// the engine.
type Function func(inputs []any, params map[string]any) (any, error)

// Descriptor is the task quadruple from spec §3: inputs, declared
// parameter names, the function to invoke, and caching flags.
type Descriptor struct {
	Inputs []string
	Params []string
	Fn     Function
	Flags  []Flag
}

func validateFlags(flags []Flag) error {
	hasE, hasV := false, false
	for _, f := range flags {
		switch f {
		case Ephemeral:
			hasE = true
		case Volatile:
			hasV = true
		}
	}
	if hasE && hasV {
		return ErrInvalidFlags
	}
	return nil
}

// generatorEntry pairs a compiled template pattern with the factory that
// turns a match into a Descriptor (spec §4.4 "Generator").
type generatorEntry struct {
	pattern string
	factory func(name string) (Descriptor, bool, error)
}

// Registry holds the three target registries from spec §4.4, queried in
// priority order on Resolve: aliases, then known targets, then
// generators.
//
// # Thread Safety
//
// Registration is expected to happen before any Resolve call (spec §5);
// Registry does not lock its internal maps.
type Registry struct {
	aliases    map[string]string
	known      map[string]Descriptor
	generators []generatorEntry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		aliases: make(map[string]string),
		known:   make(map[string]Descriptor),
	}
}

// AddAlias registers alias -> target (spec §4.4). Aliases take priority
// over known targets and generators, and may chain; install order matters
// only insofar as a later AddAlias call for the same name overwrites the
// earlier one.
func (r *Registry) AddAlias(alias, target string) {
	r.aliases[alias] = target
}

// AddTarget registers a concrete Descriptor under name (spec §4.4 "Known
// targets").
func (r *Registry) AddTarget(name string, desc Descriptor) error {
	if err := validateFlags(desc.Flags); err != nil {
		return err
	}
	r.known[name] = desc
	return nil
}

// addGenerator appends a generator to the ordered sequence (spec §4.4
// "Generators ... stored in insertion order"). Used by template.go and
// iter.go, which build the factory closures.
func (r *Registry) addGenerator(pattern string, factory func(name string) (Descriptor, bool, error)) {
	r.generators = append(r.generators, generatorEntry{pattern: pattern, factory: factory})
}

// Resolve walks aliases (tracking visited names to detect cycles), then
// looks up known targets, then tries each generator in insertion order
// (spec §4.4). The first generator whose pattern matches and whose
// factory succeeds wins; factory errors are swallowed and the search
// continues, matching dep.py's find_target.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	resolved, err := r.resolveAlias(name)
	if err != nil {
		return Descriptor{}, err
	}

	if desc, ok := r.known[resolved]; ok {
		return desc, nil
	}

	for _, g := range r.generators {
		desc, matched, err := g.factory(resolved)
		if err != nil || !matched {
			continue
		}
		return desc, nil
	}

	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

// resolveAlias walks the alias chain starting at name, returning the
// final non-alias name. A revisited name during the walk is reported as
// ErrCycleDetected.
func (r *Registry) resolveAlias(name string) (string, error) {
	visited := map[string]bool{}
	cur := name
	for {
		target, isAlias := r.aliases[cur]
		if !isAlias {
			return cur, nil
		}
		if visited[cur] {
			return "", fmt.Errorf("%w: alias chain starting at %q revisits %q", ErrCycleDetected, name, cur)
		}
		visited[cur] = true
		cur = target
	}
}
