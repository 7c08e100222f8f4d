package backend

import (
	"context"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// Driver adapts *Backend to pkg/apply.Driver: it translates one
// for_apply *state.Interface into the kernel/OVSDB calls the add/change
// and delete passes need (spec §4.F steps 5-6, §4.G). Kernel-visible
// kinds go through b.Kernel directly; OVS-backed kinds are synthesised
// through EnsureOVSPortWrapper/CollectOrphans, the same split
// helper_linux.go draws between netlink link setup and its
// configureOVS ovs-vsctl step.
type Driver struct {
	backend *Backend
}

// NewDriver returns an apply.Driver bound to b.
func NewDriver(b *Backend) *Driver { return &Driver{backend: b} }

// Apply creates/updates one interface. A kernel interface is handled in
// this order: link first, then controller attachment, MTU, mac-address,
// addresses/routes/rules, and the administrative link state last.
func (d *Driver) Apply(ctx context.Context, iface *state.Interface) error {
	if iface.Type.IsUserSpace() || iface.Type == state.TypeOVSInterface {
		return d.applyOVS(ctx, iface)
	}
	return d.applyKernel(ctx, iface)
}

func (d *Driver) applyKernel(ctx context.Context, iface *state.Interface) error {
	if _, err := d.backend.Kernel.EnsureLink(iface); err != nil {
		return err
	}

	if ctrl, ok := iface.ControllerName.Get(); ok {
		if err := d.backend.Kernel.SetMaster(iface.Name, ctrl); err != nil {
			return err
		}
	}

	if mtu, ok := iface.MTU.Get(); ok {
		if err := d.backend.Kernel.SetMTU(iface.Name, mtu); err != nil {
			return err
		}
	}
	if mac, ok := iface.MACAddress.Get(); ok {
		if err := d.backend.Kernel.SetMACAddress(iface.Name, mac); err != nil {
			return err
		}
	}

	if err := d.applyAddresses(iface); err != nil {
		return err
	}

	return d.backend.Kernel.SetLinkState(iface.Name, iface.IsUp())
}

func (d *Driver) applyAddresses(iface *state.Interface) error {
	for _, block := range []*state.IPBlock{ipBlock(iface.IPv4), ipBlock(iface.IPv6)} {
		if block == nil {
			continue
		}
		for _, addr := range block.Address {
			if err := d.backend.Kernel.AddAddress(iface.Name, addr); err != nil {
				return err
			}
		}
		for _, route := range block.Route {
			if err := d.backend.Kernel.AddRoute(iface.Name, route); err != nil {
				return err
			}
		}
		for _, rule := range block.RouteRule {
			if err := d.backend.Kernel.AddRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

func ipBlock(opt state.Opt[*state.IPBlock]) *state.IPBlock {
	v, ok := opt.Get()
	if !ok {
		return nil
	}
	return v
}

// applyOVS handles ovs-bridge/ovs-interface kinds: the bridge itself is
// ensured directly; a plain internal profile attached to a bridge is
// synthesised through the ovs-port wrapper (spec §4.C.5, §4.G).
func (d *Driver) applyOVS(ctx context.Context, iface *state.Interface) error {
	client, err := d.backend.EnsureOVSDB(ctx)
	if err != nil {
		return err
	}

	if iface.Type == state.TypeOVSBridge {
		_, err := client.EnsureBridge(ctx, iface.Name)
		return err
	}

	ctrl, ok := iface.ControllerName.Get()
	if !ok {
		return nmerror.New(nmerror.KindInvalidArgument, "ovs-interface %q has no controlling bridge", iface.Name)
	}
	return d.backend.EnsureOVSPortWrapper(ctx, ctrl, iface.Name, "internal")
}

// Delete removes one interface (spec §4.F step 5 "delete pass"). An
// ovs-bridge owns its own row in the Open_vSwitch schema and must be
// unlinked/deleted directly; CollectOrphans only ever cleans up the
// synthesised ovs-port wrapper left behind by a deleted ovs-interface
// profile, never a bridge row.
func (d *Driver) Delete(ctx context.Context, iface *state.Interface) error {
	if iface.Type == state.TypeOVSBridge {
		client, err := d.backend.EnsureOVSDB(ctx)
		if err != nil {
			return err
		}
		return client.DeleteBridge(ctx, iface.Name)
	}
	if iface.Type.IsUserSpace() || iface.Type == state.TypeOVSInterface {
		return nil // the port row is removed by CollectOrphans
	}
	return d.backend.Kernel.DeleteLink(iface.Name)
}
