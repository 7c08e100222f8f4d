package merge

import (
	"testing"

	"github.com/nmstate/nmstate-engine/pkg/state"
)

func iface(name string, typ state.InterfaceType, st state.InterfaceState) state.Interface {
	return state.Interface{BaseInterface: state.BaseInterface{Name: name, Type: typ, State: st}}
}

func TestIgnorePassRemovesFromBothSides(t *testing.T) {
	d := &state.NetworkState{Interfaces: []state.Interface{iface("eth0", state.TypeEthernet, state.StateIgnore)}}
	c := &state.NetworkState{Interfaces: []state.Interface{iface("eth0", state.TypeEthernet, state.StateUp)}}

	res, err := New().Merge(d, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Interfaces[state.Key{Type: state.TypeEthernet, Name: "eth0"}]; ok {
		t.Error("expected ignored interface dropped from merged result")
	}
}

func TestSparseUpdateFallsBackToCurrent(t *testing.T) {
	cur := iface("eth0", state.TypeEthernet, state.StateUp)
	cur.MTU = state.Some(9000)

	des := iface("eth0", state.TypeEthernet, state.StateUp)
	// MTU left unset in desired.

	res, err := New().Merge(
		&state.NetworkState{Interfaces: []state.Interface{des}},
		&state.NetworkState{Interfaces: []state.Interface{cur}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mi := res.Interfaces[state.Key{Type: state.TypeEthernet, Name: "eth0"}]
	if mtu, ok := mi.ForApply.MTU.Get(); !ok || mtu != 9000 {
		t.Errorf("expected MTU to fall back to current value 9000, got %+v", mi.ForApply.MTU)
	}
}

func TestControllerAbsencePropagatesToOVSChildren(t *testing.T) {
	bridge := iface("br0", state.TypeOVSBridge, state.StateAbsent)
	child := iface("br0-int", state.TypeOVSInterface, state.StateUp)
	child.ControllerName = state.Some("br0")
	child.ControllerType = state.Some(state.TypeOVSBridge)

	curBridge := iface("br0", state.TypeOVSBridge, state.StateUp)
	curChild := iface("br0-int", state.TypeOVSInterface, state.StateUp)
	curChild.ControllerName = state.Some("br0")
	curChild.ControllerType = state.Some(state.TypeOVSBridge)

	res, err := New().Merge(
		&state.NetworkState{Interfaces: []state.Interface{bridge, child}},
		&state.NetworkState{Interfaces: []state.Interface{curBridge, curChild}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mi := res.Interfaces[state.Key{Type: state.TypeOVSInterface, Name: "br0-int"}]
	if mi.ForApply.State != state.StateAbsent {
		t.Errorf("expected OVS-internal child to become absent when its bridge is removed, got %+v", mi.ForApply.State)
	}
}

func TestOVSAutoInclusion(t *testing.T) {
	bridge := iface("br0", state.TypeOVSBridge, state.StateUp)
	bridge.OVSBridge = &state.OVSBridgeConfig{Port: []state.BridgePort{{Name: "eth0"}}}

	res, err := New().Merge(
		&state.NetworkState{Interfaces: []state.Interface{bridge}},
		&state.NetworkState{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := state.Key{Type: state.TypeOVSInterface, Name: "eth0"}
	mi, ok := res.Interfaces[key]
	if !ok {
		t.Fatal("expected synthesised ovs-interface child for listed port")
	}
	if ctrl, _ := mi.ForApply.ControllerName.Get(); ctrl != "br0" {
		t.Errorf("expected synthesised child to be attached to br0, got %q", ctrl)
	}
}

func TestVethPeerReconciliation(t *testing.T) {
	curA := iface("veth0", state.TypeVeth, state.StateUp)
	curA.Ethernet = &state.EthernetConfig{VethPeer: state.Some("veth1")}
	curB := iface("veth1", state.TypeVeth, state.StateUp)
	curB.Ethernet = &state.EthernetConfig{VethPeer: state.Some("veth0")}

	desA := iface("veth0", state.TypeVeth, state.StateUp)
	desA.Ethernet = &state.EthernetConfig{VethPeer: state.Some("veth2")}

	res, err := New().Merge(
		&state.NetworkState{Interfaces: []state.Interface{desA}},
		&state.NetworkState{Interfaces: []state.Interface{curA, curB}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oldPeer := res.Interfaces[state.Key{Type: state.TypeVeth, Name: "veth1"}]
	if oldPeer.ForApply.State != state.StateAbsent {
		t.Errorf("expected old veth peer marked absent, got %+v", oldPeer.ForApply.State)
	}
}
