package backend

import (
	"context"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// Observer adapts *Backend to pkg/apply.Observer: it reads the host's
// current kernel links (and, once connected, OVSDB bridges/ports) back
// into a *state.NetworkState for the merge/verify steps (spec §4.F
// step 1 "observe", §4.B "current state"). The enumerate-then-classify
// shape follows helper_linux.go's CheckInterface, generalised from a
// single named link to every link on the host.
type Observer struct {
	backend *Backend
}

// NewObserver returns an apply.Observer bound to b.
func NewObserver(b *Backend) *Observer { return &Observer{backend: b} }

// Observe enumerates every kernel link, its addresses and routes, and
// returns them as a NetworkState. OVSDB-only state (bridges with no
// kernel-visible device) is left to the OVSDB half once a client is
// connected; nothing here requires one.
func (o *Observer) Observe(ctx context.Context) (*state.NetworkState, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to list kernel links")
	}

	ns := &state.NetworkState{}
	for _, link := range links {
		iface, err := o.observeLink(link)
		if err != nil {
			return nil, err
		}
		ns.Interfaces = append(ns.Interfaces, *iface)
	}
	return ns, nil
}

func (o *Observer) observeLink(link netlink.Link) (*state.Interface, error) {
	attrs := link.Attrs()

	iface := &state.Interface{
		BaseInterface: state.BaseInterface{
			Name: attrs.Name,
			Type: kindOf(link),
			MTU:  state.Some(attrs.MTU),
		},
	}
	if attrs.HardwareAddr != nil {
		iface.MACAddress = state.Some(attrs.HardwareAddr.String())
	}
	if attrs.OperState == netlink.OperUp {
		iface.State = state.StateUp
	} else {
		iface.State = state.StateDown
	}
	if attrs.MasterIndex > 0 {
		if master, err := netlink.LinkByIndex(attrs.MasterIndex); err == nil {
			iface.ControllerName = state.Some(master.Attrs().Name)
		}
	}

	v4, v6, err := o.observeAddresses(attrs.Name)
	if err != nil {
		return nil, err
	}
	if v4 != nil {
		iface.IPv4 = state.Some(v4)
	}
	if v6 != nil {
		iface.IPv6 = state.Some(v6)
	}

	if iface.Type == state.TypeEthernet {
		if maxVFs, ok := o.backend.Kernel.SRIOVTotalVFsCapability(attrs.Name); ok {
			iface.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{MaxVFs: state.Some(maxVFs)})}
		}
	}

	return iface, nil
}

// observeAddresses splits the link's addresses by family and attaches
// the routes observed on that link (spec §4.F "verify loop" reuses the
// same read path).
func (o *Observer) observeAddresses(linkName string) (v4, v6 *state.IPBlock, err error) {
	addrs, err := o.backend.Kernel.ListAddresses(linkName)
	if err != nil {
		return nil, nil, err
	}
	routes, err := o.backend.Kernel.ListRoutes(linkName)
	if err != nil {
		return nil, nil, err
	}

	for _, addr := range addrs {
		ip := net.ParseIP(addr.IP)
		block := &v4
		if ip != nil && ip.To4() == nil {
			block = &v6
		}
		if *block == nil {
			*block = &state.IPBlock{Enabled: state.Some(true)}
		}
		(*block).Address = append((*block).Address, addr)
	}
	for _, route := range routes {
		dest, _ := route.Destination.Get()
		block := &v4
		if dest != "" && net.ParseIP(dest) == nil {
			if ip, _, cerr := net.ParseCIDR(dest); cerr == nil && ip.To4() == nil {
				block = &v6
			}
		}
		if *block != nil {
			(*block).Route = append((*block).Route, route)
		}
	}
	return v4, v6, nil
}

// kindOf maps a netlink.Link's concrete type to the engine's
// InterfaceType, the inverse of kernel.Adapter.newLinkFor's switch.
func kindOf(link netlink.Link) state.InterfaceType {
	switch link.(type) {
	case *netlink.Bridge:
		return state.TypeLinuxBridge
	case *netlink.Bond:
		return state.TypeBond
	case *netlink.Vlan:
		return state.TypeVLAN
	case *netlink.Vxlan:
		return state.TypeVXLAN
	case *netlink.Macvlan:
		return state.TypeMacVlan
	case *netlink.Dummy:
		return state.TypeDummy
	case *netlink.Veth:
		return state.TypeVeth
	default:
		return state.TypeEthernet
	}
}
