package state

import "testing"

func TestCanonicalIP(t *testing.T) {
	cases := map[string]string{
		"192.168.001.001": "192.168.1.1",
		"2001:0db8::1":     "2001:db8::1",
		"not-an-ip":        "not-an-ip",
	}
	for in, want := range cases {
		if got := CanonicalIP(in); got != want {
			t.Errorf("CanonicalIP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsIPv6LinkLocal(t *testing.T) {
	if !IsIPv6LinkLocal("fe80::1") {
		t.Error("fe80::1 should be link-local")
	}
	if IsIPv6LinkLocal("2001:db8::1") {
		t.Error("2001:db8::1 should not be link-local")
	}
	if IsIPv6LinkLocal("192.168.1.1") {
		t.Error("IPv4 address should never be reported link-local")
	}
}

func TestSortAddressesDropsLinkLocalForVerification(t *testing.T) {
	in := []Address{
		{IP: "fe80::1", PrefixLength: 64},
		{IP: "10.0.0.2", PrefixLength: 24},
		{IP: "10.0.0.1", PrefixLength: 24},
	}
	out := SortAddresses(in, true)
	if len(out) != 2 {
		t.Fatalf("expected link-local dropped, got %d entries: %+v", len(out), out)
	}
	if out[0].IP != "10.0.0.1" || out[1].IP != "10.0.0.2" {
		t.Errorf("expected sorted by ip, got %+v", out)
	}

	full := SortAddresses(in, false)
	if len(full) != 3 {
		t.Fatalf("expected link-local kept when not for verification, got %d", len(full))
	}
}

func TestFlattenTrunkTags(t *testing.T) {
	tags := []TrunkTag{
		{ID: Some(5)},
		{IDRangeMin: Some(1), IDRangeMax: Some(3)},
		{ID: Some(2)},
	}
	got := FlattenTrunkTags(tags)
	want := []int{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestSortBridgePorts(t *testing.T) {
	ports := []BridgePort{{Name: "eth1"}, {Name: "eth0"}}
	out := SortBridgePorts(ports)
	if out[0].Name != "eth0" || out[1].Name != "eth1" {
		t.Errorf("unexpected order: %+v", out)
	}
}

func TestEqualMAC(t *testing.T) {
	if !EqualMAC("AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff") {
		t.Error("MAC comparison must be case-insensitive")
	}
}

func TestEqualWithinTolerance(t *testing.T) {
	if !EqualWithinTolerance("multicast-query-interval", 100, 101, true) {
		t.Error("expected ±1 tolerance to accept 101 vs 100")
	}
	if EqualWithinTolerance("multicast-query-interval", 100, 102, true) {
		t.Error("expected ±1 tolerance to reject 102 vs 100")
	}
	if EqualWithinTolerance("mtu", 100, 101, false) {
		t.Error("expected exact match required when not tolerant")
	}
}

func TestEqualAddressSets(t *testing.T) {
	a := []Address{{IP: "10.0.0.1", PrefixLength: 24}, {IP: "fe80::1", PrefixLength: 64}}
	b := []Address{{IP: "10.0.0.1", PrefixLength: 24}}
	if !EqualAddressSets(a, b, true) {
		t.Error("expected link-local-only difference to be ignored for verification")
	}
	if EqualAddressSets(a, b, false) {
		t.Error("expected full comparison to notice the missing link-local address")
	}
}

func TestEqualPortNameSets(t *testing.T) {
	if !EqualPortNameSets([]string{"eth1", "eth0"}, []string{"eth0", "eth1"}) {
		t.Error("expected order-independent equality")
	}
	if EqualPortNameSets([]string{"eth0"}, []string{"eth0", "eth1"}) {
		t.Error("expected differing sets to compare unequal")
	}
}
