package kernel

import (
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// buildRoute turns a resolved state.Route (next-hop-interface already
// distributed to this link, spec §4.F step 5) into a netlink.Route, the
// same Dst/Gw shape helper_linux.go's setupNetwork builds for the
// default route.
func buildRoute(linkIndex int, r state.Route) (*netlink.Route, error) {
	route := &netlink.Route{LinkIndex: linkIndex}

	if dest, ok := r.Destination.Get(); ok && dest != "" {
		_, ipNet, err := net.ParseCIDR(dest)
		if err != nil {
			return nil, nmerror.New(nmerror.KindInvalidArgument, "invalid route destination %q: %v", dest, err)
		}
		route.Dst = ipNet
	}
	if gw, ok := r.NextHopAddress.Get(); ok && gw != "" {
		ip := net.ParseIP(gw)
		if ip == nil {
			return nil, nmerror.New(nmerror.KindInvalidArgument, "invalid next-hop-address %q", gw)
		}
		route.Gw = ip
	}
	if metric, ok := r.Metric.Get(); ok {
		route.Priority = metric
	}
	if table, ok := r.TableID.Get(); ok {
		route.Table = table
	}
	switch {
	case r.RouteType.Set && r.RouteType.Value == state.RouteTypeBlackhole:
		route.Type = unix.RTN_BLACKHOLE
	case r.RouteType.Set && r.RouteType.Value == state.RouteTypeUnreachable:
		route.Type = unix.RTN_UNREACHABLE
	case r.RouteType.Set && r.RouteType.Value == state.RouteTypeProhibit:
		route.Type = unix.RTN_PROHIBIT
	}
	return route, nil
}

// AddRoute installs a route on the link named linkName (spec §3
// "Route").
func (a *Adapter) AddRoute(linkName string, r state.Route) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}
	route, err := buildRoute(link.Attrs().Index, r)
	if err != nil {
		return err
	}
	if err := netlink.RouteAdd(route); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to add route on %q", linkName)
	}
	return nil
}

// DeleteRoute removes a route matching r from linkName.
func (a *Adapter) DeleteRoute(linkName string, r state.Route) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		if IsNotExist(err) {
			return nil
		}
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}
	route, err := buildRoute(link.Attrs().Index, r)
	if err != nil {
		return err
	}
	if err := netlink.RouteDel(route); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to delete route on %q", linkName)
	}
	return nil
}

// ListRoutes returns the kernel's routes on linkName for the verify
// loop (spec §4.F "verify loop").
func (a *Adapter) ListRoutes(linkName string) ([]state.Route, error) {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up link %q", linkName)
	}
	nlRoutes, err := netlink.RouteList(link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to list routes on %q", linkName)
	}

	out := make([]state.Route, 0, len(nlRoutes))
	for _, nlRoute := range nlRoutes {
		r := state.Route{NextHopInterface: state.Some(linkName)}
		if nlRoute.Dst != nil {
			r.Destination = state.Some(nlRoute.Dst.String())
		}
		if nlRoute.Gw != nil {
			r.NextHopAddress = state.Some(nlRoute.Gw.String())
		}
		r.Metric = state.Some(nlRoute.Priority)
		r.TableID = state.Some(nlRoute.Table)
		out = append(out, r)
	}
	return out, nil
}

// AddRule installs a policy-routing rule (spec §3 "RouteRule").
func (a *Adapter) AddRule(rule state.RouteRule) error {
	nlRule := netlink.NewRule()
	if err := fillRule(nlRule, rule); err != nil {
		return err
	}
	if err := netlink.RuleAdd(nlRule); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to add route rule")
	}
	return nil
}

// DeleteRule removes a policy-routing rule.
func (a *Adapter) DeleteRule(rule state.RouteRule) error {
	nlRule := netlink.NewRule()
	if err := fillRule(nlRule, rule); err != nil {
		return err
	}
	if err := netlink.RuleDel(nlRule); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to delete route rule")
	}
	return nil
}

// ListRules returns the kernel's policy-routing rules for the verify
// loop.
func (a *Adapter) ListRules() ([]state.RouteRule, error) {
	nlRules, err := netlink.RuleList(netlink.FAMILY_ALL)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to list route rules")
	}
	out := make([]state.RouteRule, 0, len(nlRules))
	for _, nlRule := range nlRules {
		rr := state.RouteRule{}
		if nlRule.Src != nil {
			rr.IPFrom = state.Some(nlRule.Src.String())
		}
		if nlRule.Dst != nil {
			rr.IPTo = state.Some(nlRule.Dst.String())
		}
		if nlRule.Priority > 0 {
			rr.Priority = state.Some(nlRule.Priority)
		}
		rr.RouteTable = state.Some(nlRule.Table)
		out = append(out, rr)
	}
	return out, nil
}

func fillRule(nlRule *netlink.Rule, rule state.RouteRule) error {
	if from, ok := rule.IPFrom.Get(); ok && from != "" {
		_, ipNet, err := net.ParseCIDR(from)
		if err != nil {
			return nmerror.New(nmerror.KindInvalidArgument, "invalid route-rule ip-from %q: %v", from, err)
		}
		nlRule.Src = ipNet
	}
	if to, ok := rule.IPTo.Get(); ok && to != "" {
		_, ipNet, err := net.ParseCIDR(to)
		if err != nil {
			return nmerror.New(nmerror.KindInvalidArgument, "invalid route-rule ip-to %q: %v", to, err)
		}
		nlRule.Dst = ipNet
	}
	if priority, ok := rule.Priority.Get(); ok {
		nlRule.Priority = priority
	}
	if table, ok := rule.RouteTable.Get(); ok {
		nlRule.Table = table
	}
	return nil
}
