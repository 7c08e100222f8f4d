package policy

import (
	"fmt"
	"strings"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
)

const (
	refStart = "{{"
	refEnd   = "}}"
)

// Resolve rewrites every `{{ capture.<name>.<path> }}` reference in a
// JSON-string value tree, descending object keys and array elements
// recursively (spec §4.I "Template grammar").
func Resolve(doc Value, captures *CaptureSet) (Value, error) {
	switch node := doc.(type) {
	case map[string]interface{}:
		out := map[string]interface{}{}
		for k, v := range node {
			rk, err := resolveKey(k, captures)
			if err != nil {
				return nil, err
			}
			rv, err := Resolve(v, captures)
			if err != nil {
				return nil, err
			}
			out[rk] = rv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, v := range node {
			rv, err := Resolve(v, captures)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case string:
		return resolveString(node, captures)
	default:
		return node, nil
	}
}

func resolveKey(k string, captures *CaptureSet) (string, error) {
	v, err := resolveString(k, captures)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", nmerror.Policy(0, 0, "object key template %q must resolve to a string", k)
	}
	return s, nil
}

// resolveString implements the per-string substitution rule: if the
// reference is the string's sole content and resolves to a non-string
// value, that value replaces the string wholesale; otherwise the
// resolved value (which must stringify) is concatenated with any
// surrounding literal text (spec §4.I steps 1-3).
func resolveString(s string, captures *CaptureSet) (Value, error) {
	start := strings.Index(s, refStart)
	if start < 0 {
		return s, nil
	}
	end := strings.Index(s[start:], refEnd)
	if end < 0 {
		return nil, nmerror.Policy(0, start, "unterminated template reference in %q", s)
	}
	end += start

	prefix := s[:start]
	refBody := strings.TrimSpace(s[start+len(refStart) : end])
	suffix := s[end+len(refEnd):]

	resolved, err := resolveReference(refBody, captures)
	if err != nil {
		return nil, err
	}

	if prefix == "" && suffix == "" {
		if _, isStr := resolved.(string); !isStr {
			return resolved, nil
		}
	}

	strVal, ok := resolved.(string)
	if !ok {
		return nil, nmerror.Policy(0, start, "template reference %q must resolve to a string when embedded in literal text", refBody)
	}

	rest, err := resolveString(suffix, captures)
	if err != nil {
		return nil, err
	}
	restStr, ok := rest.(string)
	if !ok {
		restStr = fmt.Sprintf("%v", rest)
	}
	return prefix + strVal + restStr, nil
}

// resolveReference looks up `capture.<name>.<path>` in captures and
// descends path (spec §4.I steps 1-2).
func resolveReference(ref string, captures *CaptureSet) (Value, error) {
	parts := strings.Split(ref, ".")
	if len(parts) < 2 || parts[0] != "capture" {
		return nil, nmerror.Policy(0, 0, "invalid template reference %q: must start with \"capture.\"", ref)
	}
	name := parts[1]
	v, ok := captures.Get(name)
	if !ok {
		return nil, nmerror.Policy(0, 0, "unknown capture %q referenced in template", name)
	}
	resolved, ok := descend(v, parts[2:])
	if !ok {
		return nil, nmerror.Policy(0, 0, "template path %q not found in capture %q", strings.Join(parts[2:], "."), name)
	}
	return resolved, nil
}
