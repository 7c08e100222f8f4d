package kernel

import (
	"testing"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

func TestNewLinkForBridge(t *testing.T) {
	a := New()
	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "br0", Type: state.TypeLinuxBridge}}
	link, err := a.newLinkFor(iface)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := link.(*netlink.Bridge); !ok {
		t.Errorf("expected *netlink.Bridge, got %T", link)
	}
	if link.Attrs().Name != "br0" {
		t.Errorf("got name %q", link.Attrs().Name)
	}
}

func TestNewLinkForDummy(t *testing.T) {
	a := New()
	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "dummy0", Type: state.TypeDummy}}
	link, err := a.newLinkFor(iface)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := link.(*netlink.Dummy); !ok {
		t.Errorf("expected *netlink.Dummy, got %T", link)
	}
}

func TestNewLinkForBond(t *testing.T) {
	a := New()
	iface := &state.Interface{
		BaseInterface: state.BaseInterface{Name: "bond0", Type: state.TypeBond},
		Bond:          &state.BondConfig{Mode: state.Some(state.BondModeActiveBackup)},
	}
	link, err := a.newLinkFor(iface)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bond, ok := link.(*netlink.Bond)
	if !ok {
		t.Fatalf("expected *netlink.Bond, got %T", link)
	}
	if bond.Mode != netlink.StringToBondMode("active-backup") {
		t.Errorf("got mode %v", bond.Mode)
	}
}

func TestNewLinkForVethDefaultsPeerName(t *testing.T) {
	a := New()
	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "veth0", Type: state.TypeVeth}}
	link, err := a.newLinkFor(iface)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	veth, ok := link.(*netlink.Veth)
	if !ok {
		t.Fatalf("expected *netlink.Veth, got %T", link)
	}
	if veth.PeerName != "veth0-ep" {
		t.Errorf("got peer name %q", veth.PeerName)
	}
}

func TestNewLinkForVethUsesConfiguredPeer(t *testing.T) {
	a := New()
	iface := &state.Interface{
		BaseInterface: state.BaseInterface{Name: "veth0", Type: state.TypeVeth},
		Ethernet:      &state.EthernetConfig{VethPeer: state.Some("veth1")},
	}
	link, err := a.newLinkFor(iface)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	veth := link.(*netlink.Veth)
	if veth.PeerName != "veth1" {
		t.Errorf("got peer name %q", veth.PeerName)
	}
}

func TestNewLinkForVlanMissingConfigFails(t *testing.T) {
	a := New()
	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "vlan0", Type: state.TypeVLAN}}
	_, err := a.newLinkFor(iface)
	if err == nil {
		t.Fatal("expected error for vlan interface with no vlan config")
	}
	if kind, ok := nmerror.KindOf(err); !ok || kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v (ok=%v)", kind, ok)
	}
}

func TestNewLinkForUnsupportedKind(t *testing.T) {
	a := New()
	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "ovs0", Type: state.TypeOVSBridge}}
	_, err := a.newLinkFor(iface)
	if err == nil {
		t.Fatal("expected error for unsupported kernel kind")
	}
	if kind, ok := nmerror.KindOf(err); !ok || kind != nmerror.KindNotSupported {
		t.Errorf("expected NotSupported, got %v (ok=%v)", kind, ok)
	}
}

func TestIsNotExist(t *testing.T) {
	_, err := netlink.LinkByName("nmstate-test-nonexistent-iface")
	if err == nil {
		t.Skip("link unexpectedly exists in this environment")
	}
	if !IsNotExist(err) {
		t.Errorf("expected IsNotExist to recognise netlink.LinkNotFoundError, got %T: %v", err, err)
	}
}
