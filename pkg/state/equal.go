package state

import "strings"

// EqualIP compares two IP address strings after canonicalisation (spec
// §4.A).
func EqualIP(a, b string) bool {
	return CanonicalIP(a) == CanonicalIP(b)
}

// EqualMAC compares two MAC address strings case-insensitively (spec
// §4.A).
func EqualMAC(a, b string) bool {
	return strings.EqualFold(CanonicalMAC(a), CanonicalMAC(b))
}

// EqualWithinTolerance compares two ints allowing the ±1 kernel-HZ
// rounding tolerance granted to the multicast timer fields listed in
// MulticastTimerFields (spec §4.F step 8, §9 "Kernel integer
// rounding").
func EqualWithinTolerance(field string, desired, observed int, tolerant bool) bool {
	if desired == observed {
		return true
	}
	if !tolerant {
		return false
	}
	diff := desired - observed
	return diff == 1 || diff == -1
}

// IsMulticastTimerField reports whether field is one of the
// LinuxBridgeOptions fields eligible for the ±1 tolerance.
func IsMulticastTimerField(field string) bool {
	for _, f := range MulticastTimerFields {
		if f == field {
			return true
		}
	}
	return false
}

// EqualAddressSets compares two address lists up to canonicalisation
// and ordering: both are sorted (dropping IPv6 link-local entries when
// forVerification is set) before elementwise comparison (spec §4.A,
// §4.F "Verify").
func EqualAddressSets(desired, observed []Address, forVerification bool) bool {
	ds := SortAddresses(desired, forVerification)
	os := SortAddresses(observed, forVerification)
	if len(ds) != len(os) {
		return false
	}
	for i := range ds {
		if ds[i].PrefixLength != os[i].PrefixLength || !EqualIP(ds[i].IP, os[i].IP) {
			return false
		}
	}
	return true
}

// EqualPortNameSets compares two port name lists after sorting; order
// does not matter, but duplicates count (["a","a"] differs from ["a"])
// (spec §4.A).
func EqualPortNameSets(a, b []string) bool {
	as := SortPortNames(a)
	bs := SortPortNames(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// EqualTrunkTagSets compares two trunk-tag lists after flattening
// ranges to individual sorted ids (spec §4.A).
func EqualTrunkTagSets(a, b []TrunkTag) bool {
	af := FlattenTrunkTags(a)
	bf := FlattenTrunkTags(b)
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i] != bf[i] {
			return false
		}
	}
	return true
}
