package policy

import (
	"strconv"
	"strings"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
)

// Rule is a parsed capture rule (spec §4.I capture rule grammar):
//
//	rule := path_expr
//	      | path_expr "==" (quoted|bareword|path_expr)
//	      | "capture." ident "|" path_expr ":=" (quoted|bareword|path_expr)
type Rule struct {
	Path       string
	EqualsRHS  string
	HasEquals  bool
	PipeSource string // "capture.<name>" source state for a pipe rewrite
	AssignRHS  string
	HasAssign  bool
}

// ParseRule parses one capture rule expression, reporting nmerror.Policy
// errors with the offending token's position.
func ParseRule(expr string) (*Rule, error) {
	toks, err := NewTokenizer(expr).Tokens()
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nmerror.Policy(1, 0, "empty capture rule")
	}

	if strings.HasPrefix(toks[0].Text, "capture.") && len(toks) >= 4 && toks[1].Kind == TokenPipe {
		path := toks[2]
		if path.Kind != TokenPath && path.Kind != TokenBareword {
			return nil, nmerror.Policy(path.Line, path.Position, "expected path expression after '|'")
		}
		if len(toks) < 5 || toks[3].Kind != TokenAssign {
			return nil, nmerror.Policy(toks[0].Line, toks[0].Position, "expected ':=' in pipe rule")
		}
		rhs := toks[4]
		return &Rule{
			PipeSource: toks[0].Text,
			Path:       path.Text,
			AssignRHS:  rhs.Text,
			HasAssign:  true,
		}, nil
	}

	if toks[0].Kind != TokenPath && toks[0].Kind != TokenBareword {
		return nil, nmerror.Policy(toks[0].Line, toks[0].Position, "expected path expression")
	}
	if len(toks) == 1 {
		return &Rule{Path: toks[0].Text}, nil
	}
	if toks[1].Kind != TokenEq || len(toks) < 3 {
		return nil, nmerror.Policy(toks[1].Line, toks[1].Position, "expected '==' after path expression")
	}
	return &Rule{Path: toks[0].Text, EqualsRHS: toks[2].Text, HasEquals: true}, nil
}

// Value is the generic tree value captures operate over.
type Value = interface{}

// CaptureSet accumulates named capture results in document order, so
// later rules may reference earlier ones by `capture.<name>.<path>`
// (spec §4.I "Captures are evaluated in document order").
type CaptureSet struct {
	results map[string]Value
	order   []string
}

// NewCaptureSet constructs an empty CaptureSet.
func NewCaptureSet() *CaptureSet {
	return &CaptureSet{results: map[string]Value{}}
}

// Set records name's capture result.
func (c *CaptureSet) Set(name string, v Value) {
	if _, exists := c.results[name]; !exists {
		c.order = append(c.order, name)
	}
	c.results[name] = v
}

// Get looks up a previously recorded capture.
func (c *CaptureSet) Get(name string) (Value, bool) {
	v, ok := c.results[name]
	return v, ok
}

// Evaluate runs rule against current state, recording its result under
// name in captures (spec §4.I "Execution").
func Evaluate(name string, rule *Rule, current Value, captures *CaptureSet) (Value, error) {
	switch {
	case rule.HasAssign:
		src, ok := captures.Get(strings.TrimPrefix(rule.PipeSource, "capture."))
		if !ok {
			return nil, nmerror.Policy(0, 0, "unknown capture reference %q", rule.PipeSource)
		}
		result := rewriteAt(src, splitPath(rule.Path), literalValue(rule.AssignRHS))
		captures.Set(name, result)
		return result, nil

	case rule.HasEquals:
		result := filterEquals(current, splitPath(rule.Path), literalValue(rule.EqualsRHS))
		captures.Set(name, result)
		return result, nil

	default:
		result := project(current, splitPath(rule.Path))
		captures.Set(name, result)
		return result, nil
	}
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// literalValue interprets a bareword/quoted RHS token, allowing integer
// literals through unquoted (e.g. `routes.running.metric == 100`).
func literalValue(s string) Value {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// project descends path into v and returns a tree retaining only that
// subtree, re-wrapped under the same path (spec §4.I "returns a
// projection of current state retaining only that subtree").
func project(v Value, path []string) Value {
	resolved, ok := descend(v, path)
	if !ok {
		return nil
	}
	return wrap(path, resolved)
}

func wrap(path []string, leaf Value) Value {
	if len(path) == 0 {
		return leaf
	}
	return map[string]interface{}{path[0]: wrap(path[1:], leaf)}
}

func descend(v Value, path []string) (Value, bool) {
	for _, seg := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// filterEquals walks every array reachable before the final path
// segment and keeps only elements whose value at path equals want
// (spec §4.I "retains entries whose value at path_expr equals the
// RHS"). It operates on the whole tree so paths like
// `routes.running.destination` filter the routes.running array.
func filterEquals(v Value, path []string, want Value) Value {
	return filterRec(v, path, want)
}

func filterRec(v Value, path []string, want Value) Value {
	switch node := v.(type) {
	case map[string]interface{}:
		if len(path) > 0 {
			if child, ok := node[path[0]]; ok {
				out := map[string]interface{}{}
				out[path[0]] = filterRec(child, path[1:], want)
				return out
			}
		}
		return node
	case []interface{}:
		var out []interface{}
		for _, item := range node {
			if matchesAt(item, path, want) {
				out = append(out, item)
			}
		}
		return out
	default:
		return node
	}
}

func matchesAt(item Value, path []string, want Value) bool {
	resolved, ok := descend(item, path)
	if !ok {
		return false
	}
	return valueEquals(resolved, want)
}

func valueEquals(a, b Value) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	ai, aiok := a.(int)
	bi, biok := b.(int)
	if aiok && biok {
		return ai == bi
	}
	return a == b
}

// rewriteAt produces a modified copy of src replacing every matching
// element at path with replacement (spec §4.I "a pipe produces a
// modified copy... replacing every matching element at path_expr").
func rewriteAt(src Value, path []string, replacement Value) Value {
	switch node := src.(type) {
	case map[string]interface{}:
		out := map[string]interface{}{}
		for k, val := range node {
			if len(path) > 0 && k == path[0] {
				out[k] = rewriteAt(val, path[1:], replacement)
			} else {
				out[k] = val
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, item := range node {
			out[i] = rewriteAt(item, path, replacement)
		}
		return out
	default:
		if len(path) == 0 {
			return replacement
		}
		return node
	}
}
