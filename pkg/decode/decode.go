// Package decode implements component B: deserialising caller input
// into pkg/state.NetworkState. It normalises the few textual quirks
// the wire format tolerates (NBSP whitespace, hex/decimal/bool-ish
// scalars) and auto-detects YAML vs. JSON, matching the teacher's own
// "try YAML first, it's also a JSON superset" convention.
package decode

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// nbsp is U+00A0, occasionally pasted into YAML documents by editors
// that auto-convert trailing spaces; left as-is it breaks yaml.v3's
// indentation scanner (spec §6 "Document format").
const nbsp = " "

// Parse decodes a caller-supplied document into a NetworkState. YAML is
// tried first since it is a JSON superset, so JSON input decodes the
// same way without a separate code path.
func Parse(data []byte) (*state.NetworkState, error) {
	normalized := bytes.ReplaceAll(data, []byte(nbsp), []byte(" "))

	var ns state.NetworkState
	dec := yaml.NewDecoder(bytes.NewReader(normalized))
	if err := dec.Decode(&ns); err != nil {
		return nil, nmerror.Wrap(nmerror.KindInvalidArgument, err, "failed to parse network state document")
	}
	return &ns, nil
}

// ParseString is a convenience wrapper over Parse for callers already
// holding a string (policy capture evaluation, CLI flag values).
func ParseString(doc string) (*state.NetworkState, error) {
	return Parse([]byte(doc))
}

// NormalizeWhitespace replaces NBSP with a regular space; exposed
// separately so pkg/policy's template substitution can normalise
// captured values before re-embedding them into a document.
func NormalizeWhitespace(s string) string {
	return strings.ReplaceAll(s, nbsp, " ")
}

// LenientUint16 accepts a decimal, 0x-prefixed hex, or boolean-looking
// token and returns the numeric value, matching the tolerance the wire
// format grants fields like vlan ids pasted from `ip link` output
// (spec §6 "scalars accept the obvious textual variants").
func LenientUint16(token string) (uint16, error) {
	token = strings.TrimSpace(token)
	switch strings.ToLower(token) {
	case "true", "yes", "on":
		return 1, nil
	case "false", "no", "off", "":
		return 0, nil
	}
	var v uint64
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		if _, err := fmt.Sscanf(token[2:], "%x", &v); err != nil {
			return 0, fmt.Errorf("invalid hex value %q: %w", token, err)
		}
	} else {
		if _, err := fmt.Sscanf(token, "%d", &v); err != nil {
			return 0, fmt.Errorf("invalid numeric value %q: %w", token, err)
		}
	}
	if v > 0xffff {
		return 0, fmt.Errorf("value %q out of uint16 range", token)
	}
	return uint16(v), nil
}

// LenientBool accepts the usual YAML-ish boolean spellings plus bare
// "1"/"0", used by sub-records decoded from option<bool>|string wire
// fields (spec §6).
func LenientBool(token string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", token)
	}
}

// LenientUint32 is LenientUint16's 32-bit counterpart, used for fwmark
// and fwmask route-rule fields which accept hex masks.
func LenientUint32(token string) (uint32, error) {
	token = strings.TrimSpace(token)
	var v uint64
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		if _, err := fmt.Sscanf(token[2:], "%x", &v); err != nil {
			return 0, fmt.Errorf("invalid hex value %q: %w", token, err)
		}
	} else {
		if _, err := fmt.Sscanf(token, "%d", &v); err != nil {
			return 0, fmt.Errorf("invalid numeric value %q: %w", token, err)
		}
	}
	if v > 0xffffffff {
		return 0, fmt.Errorf("value %q out of uint32 range", token)
	}
	return uint32(v), nil
}
