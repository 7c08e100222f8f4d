package backend

import (
	"context"
	"testing"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-engine/pkg/state"
)

func TestKindOfMapsNetlinkLinkTypes(t *testing.T) {
	cases := []struct {
		link netlink.Link
		want state.InterfaceType
	}{
		{&netlink.Bridge{}, state.TypeLinuxBridge},
		{&netlink.Bond{}, state.TypeBond},
		{&netlink.Vlan{}, state.TypeVLAN},
		{&netlink.Vxlan{}, state.TypeVXLAN},
		{&netlink.Macvlan{}, state.TypeMacVlan},
		{&netlink.Dummy{}, state.TypeDummy},
		{&netlink.Veth{}, state.TypeVeth},
		{&netlink.Device{}, state.TypeEthernet},
	}
	for _, c := range cases {
		if got := kindOf(c.link); got != c.want {
			t.Errorf("kindOf(%T) = %v, want %v", c.link, got, c.want)
		}
	}
}

func TestIPBlockHelperUnwrapsOptional(t *testing.T) {
	if got := ipBlock(state.Opt[*state.IPBlock]{}); got != nil {
		t.Errorf("expected nil for an unset block, got %+v", got)
	}
	block := &state.IPBlock{Enabled: state.Some(true)}
	if got := ipBlock(state.Some(block)); got != block {
		t.Errorf("expected the wrapped block back, got %+v", got)
	}
}

func TestDriverDeleteIsNoOpForUserSpaceInterfaces(t *testing.T) {
	b := testBackend(t, t.TempDir())
	d := NewDriver(b)

	iface := &state.Interface{BaseInterface: state.BaseInterface{Name: "br0-int", Type: state.TypeOVSInterface}}
	if err := d.Delete(context.Background(), iface); err != nil {
		t.Errorf("expected no-op delete for an ovs-interface, got %v", err)
	}
}
