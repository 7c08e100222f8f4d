// Package state implements component A of the engine: the typed tree
// of interfaces, routes, route-rules, DNS, and global OVSDB/OVN data,
// with sparse-update semantics and deterministic canonicalisation for
// comparison (spec §4.A).
package state

import (
	"net"
	"net/netip"
	"sort"
	"strings"
)

// CanonicalIP parses addr and re-emits it in its shortest textual form
// (spec §4.A "IP addresses are parsed and re-emitted in their shortest
// textual form"). Zero-padded IPv4 octets (e.g. "001") are read as
// decimal. Invalid input is returned unchanged so canonicalising a
// document does not itself become a validation step.
func CanonicalIP(addr string) string {
	candidate := addr
	if parts := strings.Split(addr, "."); len(parts) == 4 && !strings.Contains(addr, ":") {
		for i, p := range parts {
			if t := strings.TrimLeft(p, "0"); t != "" {
				parts[i] = t
			} else if p != "" {
				parts[i] = "0"
			}
		}
		candidate = strings.Join(parts, ".")
	}
	ip, err := netip.ParseAddr(candidate)
	if err != nil {
		return addr
	}
	return ip.String()
}

// CanonicalMAC lower-cases a MAC address for case-insensitive
// comparison (spec §4.A "MAC addresses compare case-insensitively").
func CanonicalMAC(mac string) string {
	return strings.ToLower(mac)
}

// IsIPv6LinkLocal reports whether addr is an IPv6 unicast link-local
// address, which is dropped from verification inputs because it is
// kernel-assigned (spec §4.A).
func IsIPv6LinkLocal(addr string) bool {
	ip, err := netip.ParseAddr(strings.SplitN(addr, "%", 2)[0])
	if err != nil {
		return false
	}
	return ip.Is6() && ip.IsLinkLocalUnicast()
}

// SortAddresses canonicalises each IP and sorts the address list by
// (ip, prefix). When forVerification is set it also drops IPv6
// link-local entries, matching the verification-input canonicalisation
// of spec §4.A; otherwise they are kept.
func SortAddresses(addrs []Address, forVerification bool) []Address {
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		if forVerification && IsIPv6LinkLocal(a.IP) {
			continue
		}
		a.IP = CanonicalIP(a.IP)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IP != out[j].IP {
			return out[i].IP < out[j].IP
		}
		return out[i].PrefixLength < out[j].PrefixLength
	})
	return out
}

// SortPortNames sorts bridge/bond port name lists (spec §4.A "Bridge
// ports and bond ports are sorted by name").
func SortPortNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// SortBridgePorts sorts BridgePort entries by name.
func SortBridgePorts(ports []BridgePort) []BridgePort {
	out := append([]BridgePort(nil), ports...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FlattenTrunkTags expands ranges to individual ids then sorts
// numerically (spec §4.A "trunk-tag ranges are flattened to individual
// IDs then sorted numerically").
func FlattenTrunkTags(tags []TrunkTag) []int {
	seen := map[int]struct{}{}
	for _, t := range tags {
		if id, ok := t.ID.Get(); ok {
			seen[id] = struct{}{}
			continue
		}
		min, okMin := t.IDRangeMin.Get()
		max, okMax := t.IDRangeMax.Get()
		if okMin && okMax {
			for id := min; id <= max; id++ {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// ParseCIDR is a thin wrapper used by the validator/merger to compare
// route destinations without re-implementing net.ParseCIDR everywhere.
func ParseCIDR(cidr string) (*net.IPNet, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	return ipNet, err
}
