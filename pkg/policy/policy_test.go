package policy

import (
	"reflect"
	"testing"
)

func TestTokenizerBasic(t *testing.T) {
	toks, err := NewTokenizer(`routes.running.destination == "0.0.0.0/0"`).Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(toks), toks)
	}
	if toks[0].Kind != TokenPath || toks[1].Kind != TokenEq || toks[2].Kind != TokenQuoted {
		t.Errorf("unexpected token kinds: %+v", toks)
	}
}

func TestParseBarePathRule(t *testing.T) {
	rule, err := ParseRule("dns-resolver.running")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Path != "dns-resolver.running" || rule.HasEquals || rule.HasAssign {
		t.Errorf("unexpected rule: %+v", rule)
	}
}

func TestEvaluateProjection(t *testing.T) {
	current := map[string]interface{}{
		"dns-resolver": map[string]interface{}{
			"running": map[string]interface{}{"server": []interface{}{"1.1.1.1"}},
		},
	}
	rule, err := ParseRule("dns-resolver.running")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	captures := NewCaptureSet()
	result, err := Evaluate("dns", rule, current, captures)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]interface{}{
		"dns-resolver": map[string]interface{}{
			"running": map[string]interface{}{"server": []interface{}{"1.1.1.1"}},
		},
	}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("got %+v, want %+v", result, want)
	}
}

func TestEvaluateEqualityFilter(t *testing.T) {
	current := map[string]interface{}{
		"routes": map[string]interface{}{
			"running": []interface{}{
				map[string]interface{}{"destination": "0.0.0.0/0", "metric": 100},
				map[string]interface{}{"destination": "10.0.0.0/24", "metric": 200},
			},
		},
	}
	rule, err := ParseRule(`routes.running.destination == "0.0.0.0/0"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	captures := NewCaptureSet()
	result, err := Evaluate("default-route", rule, current, captures)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rm, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	routes, ok := rm["routes"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected nested routes map, got %+v", rm)
	}
	running, ok := routes["running"].([]interface{})
	if !ok || len(running) != 1 {
		t.Fatalf("expected exactly one filtered route, got %+v", routes)
	}
}

func TestResolveTemplateWholesaleSubstitution(t *testing.T) {
	captures := NewCaptureSet()
	captures.Set("gw", map[string]interface{}{"address": "192.168.1.1"})

	doc := map[string]interface{}{"next-hop-address": "{{ capture.gw.address }}"}
	resolved, err := Resolve(doc, captures)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := resolved.(map[string]interface{})
	if m["next-hop-address"] != "192.168.1.1" {
		t.Errorf("got %+v", m)
	}
}

func TestResolveTemplateConcatenation(t *testing.T) {
	captures := NewCaptureSet()
	captures.Set("iface", map[string]interface{}{"name": "eth0"})

	doc := "prefix-{{ capture.iface.name }}-suffix"
	resolved, err := Resolve(doc, captures)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != "prefix-eth0-suffix" {
		t.Errorf("got %v", resolved)
	}
}

func TestResolveUnknownCaptureReportsError(t *testing.T) {
	captures := NewCaptureSet()
	_, err := Resolve("{{ capture.missing.name }}", captures)
	if err == nil {
		t.Fatal("expected error for unknown capture reference")
	}
}
