package decode

import "testing"

func TestParseYAML(t *testing.T) {
	doc := `
interfaces:
  - name: eth0
    type: ethernet
    state: up
`
	ns, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns.Interfaces) != 1 || ns.Interfaces[0].Name != "eth0" {
		t.Fatalf("unexpected result: %+v", ns.Interfaces)
	}
}

func TestParseJSONAsYAMLSuperset(t *testing.T) {
	doc := `{"interfaces": [{"name": "eth0", "type": "ethernet", "state": "up"}]}`
	ns, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns.Interfaces) != 1 || ns.Interfaces[0].Name != "eth0" {
		t.Fatalf("unexpected result: %+v", ns.Interfaces)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "eth0" + nbsp + "up"
	out := NormalizeWhitespace(in)
	if out != "eth0 up" {
		t.Errorf("got %q", out)
	}
}

func TestLenientUint16(t *testing.T) {
	cases := map[string]uint16{
		"42":    42,
		"0x2a":  42,
		"true":  1,
		"false": 0,
	}
	for in, want := range cases {
		got, err := LenientUint16(in)
		if err != nil {
			t.Fatalf("LenientUint16(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("LenientUint16(%q) = %d, want %d", in, got, want)
		}
	}
	if _, err := LenientUint16("0x1ffff"); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestLenientBool(t *testing.T) {
	cases := map[string]bool{"yes": true, "no": false, "1": true, "0": false}
	for in, want := range cases {
		got, err := LenientBool(in)
		if err != nil {
			t.Fatalf("LenientBool(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("LenientBool(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := LenientBool("maybe"); err == nil {
		t.Error("expected error for unrecognised token")
	}
}

func TestLenientUint32Hex(t *testing.T) {
	got, err := LenientUint32("0xff00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0xff00 {
		t.Errorf("got %d", got)
	}
}
