package registry

import (
	"fmt"
	"regexp"
	"strconv"
)

// IterValue is either a non-negative integer index or the literal string
// "start" (spec §4.4 iteration generators: "Only next captured: iter :=
// next - 1 if next > 0, else iter := 'start'"). It is passed through to
// input/param templates unchanged via String.
type IterValue struct {
	isStart bool
	n       int
}

// Start is the sentinel "start" IterValue.
var Start = IterValue{isStart: true}

// Int wraps a non-negative integer as an IterValue.
func Int(n int) IterValue { return IterValue{n: n} }

// String renders the value for template substitution: "start" or the
// decimal integer.
func (v IterValue) String() string {
	if v.isStart {
		return "start"
	}
	return strconv.Itoa(v.n)
}

// IsStart reports whether this value is the literal "start" sentinel.
func (v IterValue) IsStart() bool { return v.isStart }

// Int returns the integer value, or 0 if IsStart() is true.
func (v IterValue) Int() int { return v.n }

// IterFunction is the body of an iter_task: it receives next (the output
// target's iteration counter) followed by resolved inputs and bound
// params, mirroring dep.py's iter_task calling convention ("The wrapped
// function receives next as its first argument").
type IterFunction func(next IterValue, inputs []any, params map[string]any) (any, error)

var iterPlaceholderRe = regexp.MustCompile(`\{(iter|next)\}`)

// AddIterGenerator registers an iteration generator (spec §4.4 "Iteration
// generators"). outputTemplate must contain "{iter}" and/or "{next}";
// inputTemplates and paramTemplates may use the same two placeholders.
func (r *Registry) AddIterGenerator(inputTemplates, paramTemplates []string, outputTemplate string, flags []Flag, fn IterFunction) error {
	if err := validateFlags(flags); err != nil {
		return err
	}

	pattern := buildIterPattern(outputTemplate)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("registry: compile iter pattern for %q: %w", outputTemplate, err)
	}

	factory := func(name string) (Descriptor, bool, error) {
		m := re.FindStringSubmatch(name)
		if m == nil {
			return Descriptor{}, false, nil
		}

		iterStr, nextStr := "", ""
		for i, gname := range re.SubexpNames() {
			switch gname {
			case "iter":
				iterStr = m[i]
			case "next":
				nextStr = m[i]
			}
		}

		iterVal, nextVal, err := resolveIterNext(iterStr, nextStr)
		if err != nil {
			return Descriptor{}, true, err
		}

		values := map[string]string{"iter": iterVal.String(), "next": nextVal.String()}

		inputs := formatIterAll(inputTemplates, values)
		params := formatIterAll(paramTemplates, values)

		wrapped := func(ivalues []any, pvalues map[string]any) (any, error) {
			return fn(nextVal, ivalues, pvalues)
		}

		return Descriptor{Inputs: inputs, Params: params, Fn: wrapped, Flags: flags}, true, nil
	}

	r.addGenerator(pattern, factory)
	return nil
}

// resolveIterNext applies spec §4.4's iter/next inference table. iterStr
// and nextStr are the raw captured substrings ("" means "not captured" —
// i.e. the output template didn't even mention that placeholder).
func resolveIterNext(iterStr, nextStr string) (iter, next IterValue, err error) {
	switch {
	case iterStr != "" && nextStr != "":
		i, err1 := strconv.Atoi(iterStr)
		n, err2 := strconv.Atoi(nextStr)
		if err1 != nil || err2 != nil {
			return IterValue{}, IterValue{}, fmt.Errorf("registry: malformed iter/next capture %q/%q", iterStr, nextStr)
		}
		return Int(i), Int(n), nil

	case nextStr != "":
		n, convErr := strconv.Atoi(nextStr)
		if convErr != nil {
			return IterValue{}, IterValue{}, fmt.Errorf("registry: malformed next capture %q", nextStr)
		}
		if n > 0 {
			return Int(n - 1), Int(n), nil
		}
		return Start, Int(0), nil

	case iterStr != "":
		i, convErr := strconv.Atoi(iterStr)
		if convErr != nil {
			return IterValue{}, IterValue{}, fmt.Errorf("registry: malformed iter capture %q", iterStr)
		}
		return Int(i), Int(i + 1), nil

	default:
		return Start, Int(0), nil
	}
}

// buildIterPattern compiles outputTemplate (which uses {iter}/{next}
// placeholders matching non-negative decimal integers) into an anchored
// regular expression, escaping any other literal text. Grounded on
// dep.py's iter_task, which does the same escape-then-substitute dance
// with a pair of control-character sentinels instead of the NUL-delimited
// tokens used here.
func buildIterPattern(outputTemplate string) string {
	const iterToken = "\x00ITER\x00"
	const nextToken = "\x00NEXT\x00"

	sentineled := iterPlaceholderRe.ReplaceAllStringFunc(outputTemplate, func(m string) string {
		if m == "{iter}" {
			return iterToken
		}
		return nextToken
	})

	escaped := regexp.QuoteMeta(sentineled)
	escaped = replaceAll(escaped, regexp.QuoteMeta(iterToken), `(?P<iter>[0-9]+)`)
	escaped = replaceAll(escaped, regexp.QuoteMeta(nextToken), `(?P<next>[0-9]+)`)
	return "^" + escaped + "$"
}

func replaceAll(s, old, newStr string) string {
	for {
		idx := indexOf(s, old)
		if idx < 0 {
			return s
		}
		s = s[:idx] + newStr + s[idx+len(old):]
	}
}

func formatIterAll(tmpls []string, values map[string]string) []string {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		out[i] = iterPlaceholderRe.ReplaceAllStringFunc(t, func(m string) string {
			name := m[1 : len(m)-1]
			return values[name]
		})
	}
	return out
}
