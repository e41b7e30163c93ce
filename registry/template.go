package registry

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrTemplateUse is raised when a template generator's input/param string
// references a placeholder group that isn't a named group defined on the
// output template (spec §7 TemplateUseError) — including the case where
// it uses an unnamed "{}" positional placeholder, since positional groups
// have no name to substitute with (spec §4.4: "positional groups cannot
// reference {name} targets").
var ErrTemplateUse = errors.New("registry: template input/param references an undefined group")

// ErrTooManySlots is raised when a template generator's output has more
// than maxTemplateSlots placeholder slots combined (spec §4.4: "Requires
// P + |N| ≤ 16"). Design Notes §9 calls the 16 a "configurable safety
// check" rather than a hard architectural limit; MaxTemplateSlots exposes
// that knob.
var ErrTooManySlots = errors.New("registry: too many template placeholder slots")

// MaxTemplateSlots is the default ceiling on combined positional + named
// placeholder slots in a single template generator's output (spec §4.4).
// Package-level so callers can raise it for unusual cases without forking
// the package; the check itself cannot be disabled, only resized.
var MaxTemplateSlots = 16

// placeholderRe matches "{}" (positional) and "{name}" (named) format
// placeholders. It deliberately does not support the doubled "{{"/"}}"
// escape convention the spec's placeholder grammar doesn't call for one.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)?\}`)

// TemplateFunction is the body of a template_task: it receives the regexp
// match's named groups, followed by resolved inputs and bound params,
// mirroring dep.py's template_task calling convention ("The function will
// be called with an re.match object as its first argument").
type TemplateFunction func(groups map[string]string, inputs []any, params map[string]any) (any, error)

// AddTemplateGenerator registers a template-based generator (spec §4.4
// "Template generators"). inputTemplates and paramTemplates are format
// strings using the output template's named placeholders; outputTemplate
// is scanned for "{}" and "{name}" placeholder slots to build the
// matching regular expression.
func (r *Registry) AddTemplateGenerator(inputTemplates, paramTemplates []string, outputTemplate string, flags []Flag, fn TemplateFunction) error {
	if err := validateFlags(flags); err != nil {
		return err
	}

	pattern, namedSlots, err := compileTemplatePattern(outputTemplate)
	if err != nil {
		return err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("registry: compile template pattern for %q: %w", outputTemplate, err)
	}

	// Validate up front, at registration time, that every input and param
	// template only references named slots the output actually defines —
	// rather than discovering this lazily on first match.
	for _, t := range inputTemplates {
		if err := validateTemplateRefs(t, namedSlots); err != nil {
			return err
		}
	}
	for _, t := range paramTemplates {
		if err := validateTemplateRefs(t, namedSlots); err != nil {
			return err
		}
	}

	factory := func(name string) (Descriptor, bool, error) {
		m := re.FindStringSubmatch(name)
		if m == nil {
			return Descriptor{}, false, nil
		}
		groups := namedGroupMap(re, m)

		inputs, err := formatAll(inputTemplates, groups)
		if err != nil {
			return Descriptor{}, true, err
		}
		params, err := formatAll(paramTemplates, groups)
		if err != nil {
			return Descriptor{}, true, err
		}

		wrapped := func(ivalues []any, pvalues map[string]any) (any, error) {
			return fn(groups, ivalues, pvalues)
		}

		return Descriptor{Inputs: inputs, Params: params, Fn: wrapped, Flags: flags}, true, nil
	}

	r.addGenerator(pattern, factory)
	return nil
}

// compileTemplatePattern scans outputTemplate for placeholder slots and
// returns a compiled-regexp-ready pattern string plus the set of named
// slots it defines. Grounded on dep.py's template_task: literal text is
// escaped, and each placeholder is substituted with a capturing group
// ("(.+)" for positional, "(?P<name>.+)" for the first occurrence of a
// named slot). Unlike dep.py's four-control-character/16-slot encoding
// (which relied on the third-party `regex` module's tolerance for
// duplicate named groups), this uses NUL-delimited sentinel tokens that
// survive regexp.QuoteMeta unscathed, and a repeated named slot's second
// and later occurrences fall back to an anonymous "(.+)" group, since
// Go's RE2 engine rejects duplicate group names outright.
func compileTemplatePattern(outputTemplate string) (string, map[string]bool, error) {
	matches := placeholderRe.FindAllStringIndex(outputTemplate, -1)

	named := map[string]bool{}
	positionalCount := 0
	for _, loc := range matches {
		slot := outputTemplate[loc[0]:loc[1]]
		if slot == "{}" {
			positionalCount++
		} else {
			named[slot[1:len(slot)-1]] = true
		}
	}
	if positionalCount+len(named) > MaxTemplateSlots {
		return "", nil, fmt.Errorf("%w: %d slots in %q (max %d)", ErrTooManySlots, positionalCount+len(named), outputTemplate, MaxTemplateSlots)
	}

	// Build a sentinel-substituted copy of the template: literal runs stay
	// as-is, placeholders become unique NUL-delimited tokens that
	// QuoteMeta will pass through unchanged (NUL, digits, letters, and ':'
	// are not regex metacharacters).
	var sentineled []byte
	seenNamed := map[string]bool{}
	prev := 0
	type slotRef struct {
		token string
		kind  string // "pos", "anon", or "named:<name>"
	}
	var slots []slotRef
	for i, loc := range matches {
		sentineled = append(sentineled, outputTemplate[prev:loc[0]]...)
		slot := outputTemplate[loc[0]:loc[1]]
		// Each occurrence gets a token unique by position (i), so two
		// references to the same named slot never collide during
		// substitution below.
		token := fmt.Sprintf("\x00SLOT%d\x00", i)
		if slot == "{}" {
			slots = append(slots, slotRef{token: token, kind: "pos"})
		} else {
			name := slot[1 : len(slot)-1]
			kind := "anon"
			if !seenNamed[name] {
				seenNamed[name] = true
				kind = "named:" + name
			}
			slots = append(slots, slotRef{token: token, kind: kind})
		}
		sentineled = append(sentineled, token...)
		prev = loc[1]
	}
	sentineled = append(sentineled, outputTemplate[prev:]...)

	escaped := regexp.QuoteMeta(string(sentineled))

	for _, s := range slots {
		switch {
		case s.kind == "pos":
			escaped = replaceOnce(escaped, regexp.QuoteMeta(s.token), "(.+)")
		case s.kind == "anon":
			escaped = replaceOnce(escaped, regexp.QuoteMeta(s.token), "(.+)")
		default: // "named:<name>"
			name := s.kind[len("named:"):]
			escaped = replaceOnce(escaped, regexp.QuoteMeta(s.token), "(?P<"+name+">.+)")
		}
	}

	return "^" + escaped + "$", named, nil
}

func replaceOnce(s, old, newStr string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + newStr + s[idx+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// validateTemplateRefs checks that every placeholder in an input/param
// template string is a named slot present in namedSlots (spec §4.4:
// "attempting to do so fails with TemplateUseError").
func validateTemplateRefs(tmpl string, namedSlots map[string]bool) error {
	for _, loc := range placeholderRe.FindAllStringIndex(tmpl, -1) {
		slot := tmpl[loc[0]:loc[1]]
		if slot == "{}" {
			return fmt.Errorf("%w: %q uses an unnamed {} placeholder", ErrTemplateUse, tmpl)
		}
		name := slot[1 : len(slot)-1]
		if !namedSlots[name] {
			return fmt.Errorf("%w: %q references undefined group %q", ErrTemplateUse, tmpl, name)
		}
	}
	return nil
}

// formatAll formats every template in tmpls against groups.
func formatAll(tmpls []string, groups map[string]string) ([]string, error) {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		formatted, err := formatTemplate(t, groups)
		if err != nil {
			return nil, err
		}
		out[i] = formatted
	}
	return out, nil
}

// formatTemplate substitutes "{name}" placeholders in tmpl using groups.
func formatTemplate(tmpl string, groups map[string]string) (string, error) {
	var outErr error
	result := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		if m == "{}" {
			outErr = fmt.Errorf("%w: %q uses an unnamed {} placeholder", ErrTemplateUse, tmpl)
			return ""
		}
		name := m[1 : len(m)-1]
		val, ok := groups[name]
		if !ok {
			outErr = fmt.Errorf("%w: %q references undefined group %q", ErrTemplateUse, tmpl, name)
			return ""
		}
		return val
	})
	if outErr != nil {
		return "", outErr
	}
	return result, nil
}

// namedGroupMap builds a map of named-group name -> matched substring
// from a regexp.FindStringSubmatch result, mirroring Python's
// match.groupdict().
func namedGroupMap(re *regexp.Regexp, m []string) map[string]string {
	groups := map[string]string{}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = m[i]
	}
	return groups
}
