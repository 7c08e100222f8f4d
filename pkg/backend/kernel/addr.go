package kernel

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// AddAddress adds a static address to a link, the same IPNet-building
// shape as helper_linux.go's setupNetwork (spec §3 "IP block").
func (a *Adapter) AddAddress(linkName string, addr state.Address) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}

	ip := net.ParseIP(addr.IP)
	if ip == nil {
		return nmerror.New(nmerror.KindInvalidArgument, "invalid address %q on %q", addr.IP, linkName)
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}

	nlAddr := &netlink.Addr{
		IPNet: &net.IPNet{IP: ip, Mask: net.CIDRMask(addr.PrefixLength, bits)},
	}
	if err := netlink.AddrAdd(link, nlAddr); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to add address %s/%d to %q", addr.IP, addr.PrefixLength, linkName)
	}
	return nil
}

// DeleteAddress removes a static address from a link.
func (a *Adapter) DeleteAddress(linkName string, addr state.Address) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		if IsNotExist(err) {
			return nil
		}
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}

	ip := net.ParseIP(addr.IP)
	if ip == nil {
		return nmerror.New(nmerror.KindInvalidArgument, "invalid address %q on %q", addr.IP, linkName)
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}

	nlAddr := &netlink.Addr{
		IPNet: &net.IPNet{IP: ip, Mask: net.CIDRMask(addr.PrefixLength, bits)},
	}
	if err := netlink.AddrDel(link, nlAddr); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to delete address %s/%d from %q", addr.IP, addr.PrefixLength, linkName)
	}
	return nil
}

// ListAddresses returns the observed addresses on a link, the same
// netlink.AddrList call CheckInterface uses to verify a Pod's IP (spec
// §4.F "verify loop").
func (a *Adapter) ListAddresses(linkName string) ([]state.Address, error) {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}

	nlAddrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to list addresses on %q", linkName)
	}

	out := make([]state.Address, 0, len(nlAddrs))
	for _, nlAddr := range nlAddrs {
		ones, _ := nlAddr.Mask.Size()
		out = append(out, state.Address{
			IP:           nlAddr.IP.String(),
			PrefixLength: ones,
		})
	}
	return out, nil
}

// addressKey is a comparable identity for a single address, used by
// callers reconciling desired vs observed address sets.
func addressKey(a state.Address) string {
	return fmt.Sprintf("%s/%d", a.IP, a.PrefixLength)
}
