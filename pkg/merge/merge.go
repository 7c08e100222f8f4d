// Package merge implements component C: it reconciles a desired
// NetworkState against an observed current NetworkState into a flat,
// (kind,name)-keyed map of MergedInterface records carrying desired,
// current, and for_apply views (spec §4.C, §9 "Cross-entity
// ownership"). The reconciler shape is grounded on the teacher's
// controller Reconcile pattern (pkg/ovn/subnet_controller.go), stripped
// of its Kubernetes client and re-targeted at in-memory state trees.
package merge

import (
	"sort"

	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// MergedInterface carries the three views the rest of the pipeline
// needs for a single (kind,name) identity (spec §4.C).
type MergedInterface struct {
	Key      state.Key
	Desired  *state.Interface // nil if absent from D
	Current  *state.Interface // nil if absent from C
	ForApply *state.Interface // the value to submit; never nil once merged
}

// Result is the merger's output: the flat interface map plus the
// routes/rules/DNS/OVSDB/OVN blocks carried through unchanged except
// for sparse-update resolution.
type Result struct {
	Interfaces map[state.Key]*MergedInterface
	Order      []state.Key // insertion order, for deterministic iteration

	Routes     state.RoutesState
	RouteRules state.RouteRulesState
	DNS        *state.DNSState
	OVSDB      *state.OVSDBGlobal
	OVN        *state.OVNConfiguration
}

// Merger runs the numbered merge passes of spec §4.C against a desired
// and current NetworkState.
type Merger struct {
	log *logging.Logger
}

// New constructs a Merger.
func New() *Merger {
	return &Merger{log: logging.LoggerForBackend("merge")}
}

// Merge runs the full merge sequence and returns the reconciled Result.
func (m *Merger) Merge(desired, current *state.NetworkState) (*Result, error) {
	d := dropIgnored(desired)
	c := dropIgnored(current)

	res := &Result{
		Interfaces: make(map[state.Key]*MergedInterface),
	}

	m.join(res, d, c)
	m.resolveUnknownByName(res, c)
	if err := m.sparseUpdate(res); err != nil {
		return nil, err
	}
	m.propagateAbsence(res)
	m.autoIncludeOVSPorts(res, d)
	m.reconcileVethPeers(res)

	res.Routes = mergeRoutes(d.Routes, c.Routes)
	res.RouteRules = mergeRouteRules(d.RouteRules, c.RouteRules)
	res.OVSDB = mergeOVSDBGlobal(d.OVSDB, c.OVSDB)
	res.OVN = mergeOVN(d.OVN, c.OVN)
	res.DNS = m.placeDNS(res, d.DNS, c.DNS)

	return res, nil
}

// dropIgnored implements step 1: entities whose desired state is
// `ignore` are removed from both sides before anything else runs.
func dropIgnored(ns *state.NetworkState) *state.NetworkState {
	if ns == nil {
		return &state.NetworkState{}
	}
	out := *ns
	out.Interfaces = nil
	for _, iface := range ns.Interfaces {
		if iface.IsIgnored() {
			continue
		}
		out.Interfaces = append(out.Interfaces, iface)
	}
	return &out
}

// join implements step 2: build a MergedInterface for every (name,
// type) that appears on either side.
func (m *Merger) join(res *Result, d, c *state.NetworkState) {
	order := func(ifaces []state.Interface, pick func(*MergedInterface, *state.Interface)) {
		for i := range ifaces {
			iface := &ifaces[i]
			key := iface.Key()
			mi, ok := res.Interfaces[key]
			if !ok {
				mi = &MergedInterface{Key: key}
				res.Interfaces[key] = mi
				res.Order = append(res.Order, key)
			}
			pick(mi, iface)
		}
	}
	order(c.Interfaces, func(mi *MergedInterface, iface *state.Interface) { mi.Current = iface })
	order(d.Interfaces, func(mi *MergedInterface, iface *state.Interface) { mi.Desired = iface })
}

// resolveUnknownByName implements "Type unknown in D resolves against
// C by name" (spec §4.C.2): a desired entry tagged TypeUnknown is
// re-keyed to the current entry's real type when one exists by name.
func (m *Merger) resolveUnknownByName(res *Result, c *state.NetworkState) {
	for key, mi := range res.Interfaces {
		if mi.Desired == nil || key.Type != state.TypeUnknown {
			continue
		}
		cur := c.InterfaceByName(key.Name)
		if cur == nil || cur.Type == state.TypeUnknown {
			continue
		}
		newKey := state.Key{Type: cur.Type, Name: key.Name}
		delete(res.Interfaces, key)
		if existing, ok := res.Interfaces[newKey]; ok {
			existing.Desired = mi.Desired
			continue
		}
		mi.Key = newKey
		res.Interfaces[newKey] = mi
		for i, k := range res.Order {
			if k == key {
				res.Order[i] = newKey
			}
		}
	}
}

// sparseUpdate implements step 3: for_apply takes every Some leaf from
// desired and falls back to current for every absent leaf. Interfaces
// desired absent still need a for_apply record (to submit the deletion
// to the backend), so we clone current into it when desired carries no
// sub-record.
func (m *Merger) sparseUpdate(res *Result) error {
	for _, mi := range res.Interfaces {
		switch {
		case mi.Desired != nil:
			merged := mergeLeaves(mi.Desired, mi.Current)
			mi.ForApply = merged
		case mi.Current != nil:
			mi.ForApply = mi.Current.Clone()
		default:
			return nmerror.New(nmerror.KindBug, "merged interface %+v has neither desired nor current", mi.Key)
		}
	}
	return nil
}

// mergeLeaves applies the sparse-update rule field by field. BaseInterface
// scalars are Opt-wrapped so the zero value already means "absent";
// variant sub-records are not merged field-by-field here (the validator
// and backend treat a caller-supplied sub-record as authoritative for
// its own interface) except for the OVSDB maps, which get the
// three-valued map-merge rule.
func mergeLeaves(desired, current *state.Interface) *state.Interface {
	merged := desired.Clone()

	if current == nil {
		return merged
	}

	if !merged.MACAddress.Set {
		merged.MACAddress = current.MACAddress
	}
	if !merged.MTU.Set {
		merged.MTU = current.MTU
	}
	if !merged.IPv4.Set {
		merged.IPv4 = current.IPv4
	}
	if !merged.IPv6.Set {
		merged.IPv6 = current.IPv6
	}
	if !merged.LLDP.Set {
		merged.LLDP = current.LLDP
	}
	if !merged.MPTCP.Set {
		merged.MPTCP = current.MPTCP
	}
	if !merged.IEEE8021X.Set {
		merged.IEEE8021X = current.IEEE8021X
	}
	if !merged.Dispatch.Set {
		merged.Dispatch = current.Dispatch
	}
	if !merged.ControllerName.Set {
		merged.ControllerName = current.ControllerName
		merged.ControllerType = current.ControllerType
	}

	var curGlobal, curIface state.StringMap
	if ov, ok := current.OVSDB.Get(); ok && ov != nil {
		curGlobal = ov.ExternalIDs.OrElse(nil)
		curIface = ov.OtherConfig.OrElse(nil)
	}
	if ov, ok := merged.OVSDB.Get(); ok && ov != nil {
		merged.OVSDB = state.Some(&state.InterfaceOVSDB{
			ExternalIDs: state.Some(state.MergeStringMap(ov.ExternalIDs, curGlobal)),
			OtherConfig: state.Some(state.MergeStringMap(ov.OtherConfig, curIface)),
		})
	} else if current.OVSDB.Set {
		merged.OVSDB = current.OVSDB
	}

	return merged
}

// propagateAbsence implements step 4: a controller going absent takes
// its OVS-internal children and synthesised OVS-port wrappers with it;
// an absent InfiniBand base takes its pkey children.
func (m *Merger) propagateAbsence(res *Result) {
	absentControllers := map[string]bool{}
	absentInfiniBand := map[string]bool{}
	for _, mi := range res.Interfaces {
		if mi.ForApply == nil || !mi.ForApply.IsAbsent() {
			continue
		}
		absentControllers[mi.Key.Name] = true
		if mi.Key.Type == state.TypeInfiniBand {
			absentInfiniBand[mi.Key.Name] = true
		}
	}
	for _, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.IsAbsent() {
			continue
		}
		if ctrl, ok := mi.ForApply.ControllerName.Get(); ok && absentControllers[ctrl] &&
			(mi.ForApply.Type.IsUserSpace() || mi.ForApply.OVSInterface != nil) {
			markAbsent(mi)
			continue
		}
		if mi.ForApply.InfiniBand != nil && mi.ForApply.InfiniBand.Pkey.Set {
			if pk, ok := mi.ForApply.InfiniBand.Pkey.Get(); ok && pk != nil && absentInfiniBand[pk.BaseIface] {
				markAbsent(mi)
			}
		}
	}
}

func markAbsent(mi *MergedInterface) {
	fa := mi.ForApply.Clone()
	fa.State = state.StateAbsent
	mi.ForApply = fa
}

// autoIncludeOVSPorts implements step 5: every port listed under a
// desired OVS bridge that has no entry of its own in D is synthesised
// as an OVS-internal child of that bridge.
func (m *Merger) autoIncludeOVSPorts(res *Result, d *state.NetworkState) {
	for i := range d.Interfaces {
		br := &d.Interfaces[i]
		if br.OVSBridge == nil {
			continue
		}
		for _, port := range br.OVSBridge.Port {
			key := state.Key{Type: state.TypeOVSInterface, Name: port.Name}
			if _, exists := res.Interfaces[key]; exists {
				if existing := res.Interfaces[key]; existing.Desired == nil {
					// present only as current; still auto-attach the controller.
					attachSynthesisedChild(existing, br.Name, state.TypeOVSBridge)
				}
				continue
			}
			synthesised := &state.Interface{BaseInterface: state.BaseInterface{
				Name:           port.Name,
				Type:           state.TypeOVSInterface,
				State:          state.StateUp,
				ControllerName: state.Some(br.Name),
				ControllerType: state.Some(state.TypeOVSBridge),
			}}
			mi := &MergedInterface{Key: key, Desired: synthesised, ForApply: synthesised}
			if cur, ok := res.Interfaces[key]; ok {
				mi.Current = cur.Current
			} else {
				res.Order = append(res.Order, key)
			}
			res.Interfaces[key] = mi
		}
	}
}

func attachSynthesisedChild(mi *MergedInterface, controller string, controllerType state.InterfaceType) {
	fa := mi.ForApply.Clone()
	fa.ControllerName = state.Some(controller)
	fa.ControllerType = state.Some(controllerType)
	mi.ForApply = fa
}

// reconcileVethPeers implements step 6: if a veth's desired peer
// differs from its observed peer, the previous peer is marked absent,
// unless that peer is itself `ignore` (already stripped in dropIgnored,
// which is the user error this rule calls out: the peer silently
// survives because the merger never sees it).
func (m *Merger) reconcileVethPeers(res *Result) {
	for _, mi := range res.Interfaces {
		if mi.Key.Type != state.TypeVeth || mi.ForApply == nil || mi.ForApply.Ethernet == nil {
			continue
		}
		newPeer, ok := mi.ForApply.Ethernet.VethPeer.Get()
		if !ok || mi.Current == nil || mi.Current.Ethernet == nil {
			continue
		}
		oldPeer, ok := mi.Current.Ethernet.VethPeer.Get()
		if !ok || oldPeer == newPeer {
			continue
		}
		peerKey := state.Key{Type: state.TypeVeth, Name: oldPeer}
		if peerMI, ok := res.Interfaces[peerKey]; ok && peerMI.ForApply != nil {
			markAbsent(peerMI)
		}
	}
}

// mergeRoutes concatenates desired absent specimens and present routes
// with current routes not matched for deletion; deletion matching is
// evaluated by pkg/classify/pkg/apply against for_apply, so the merger
// only needs to pass through config/running here.
func mergeRoutes(d, c state.RoutesState) state.RoutesState {
	return state.RoutesState{
		Config:  append(append([]state.Route(nil), c.Config...), d.Config...),
		Running: c.Running,
	}
}

func mergeRouteRules(d, c state.RouteRulesState) state.RouteRulesState {
	return state.RouteRulesState{
		Config: append(append([]state.RouteRule(nil), c.Config...), d.Config...),
	}
}

func mergeOVSDBGlobal(d, c state.Opt[*state.OVSDBGlobal]) *state.OVSDBGlobal {
	dv, dok := d.Get()
	cv, _ := c.Get()
	if !dok {
		return cv
	}
	var curExt, curOther state.StringMap
	if cv != nil {
		curExt = cv.ExternalIDs.OrElse(nil)
		curOther = cv.OtherConfig.OrElse(nil)
	}
	return &state.OVSDBGlobal{
		ExternalIDs: state.Some(state.MergeStringMap(dv.ExternalIDs, curExt)),
		OtherConfig: state.Some(state.MergeStringMap(dv.OtherConfig, curOther)),
	}
}

func mergeOVN(d, c state.Opt[*state.OVNConfiguration]) *state.OVNConfiguration {
	if dv, ok := d.Get(); ok {
		return dv
	}
	cv, _ := c.Get()
	return cv
}

// placeDNS implements step 7: unattached DNS servers are distributed to
// the most specific eligible up interface whose IP family matches, or
// else recorded as a global DNS state for the backend's wildcard
// record (spec §4.C.7, §4.F step 3).
func (m *Merger) placeDNS(res *Result, d, c state.Opt[*state.DNSState]) *state.DNSState {
	dv, ok := d.Get()
	if !ok {
		cv, _ := c.Get()
		return cv
	}
	cfg := dv
	if cfg == nil {
		return nil
	}
	if cfg.Config == nil || len(cfg.Config.Server) == 0 {
		return cfg
	}

	candidates := eligibleDNSInterfaces(res)
	if len(candidates) == 0 {
		// No eligible interface: keep as a global record (spec §4.F
		// step 3 "compose a global DNS record").
		return cfg
	}
	target := candidates[0]
	block := target.ForApply.IPv4
	if !block.Set {
		block = target.ForApply.IPv6
	}
	ipBlock, _ := block.Get()
	if ipBlock == nil {
		ipBlock = &state.IPBlock{}
	}
	updated := *ipBlock
	client := &state.DNSClient{}
	if dc, ok := ipBlock.DNSClient.Get(); ok && dc != nil {
		client = dc
	}
	client.Server = append(append([]string(nil), client.Server...), cfg.Config.Server...)
	updated.DNSClient = state.Some(client)
	if block.Set {
		target.ForApply.IPv4 = state.Some(&updated)
	} else {
		target.ForApply.IPv6 = state.Some(&updated)
	}
	return nil
}

// eligibleDNSInterfaces ranks up interfaces by specificity: interfaces
// with an enabled, routable IP stack sort first; ties broken by name
// for determinism.
func eligibleDNSInterfaces(res *Result) []*MergedInterface {
	var out []*MergedInterface
	for _, mi := range res.Interfaces {
		if mi.ForApply == nil || !mi.ForApply.IsUp() {
			continue
		}
		v4, _ := mi.ForApply.IPv4.Get()
		v6, _ := mi.ForApply.IPv6.Get()
		if (v4 != nil && v4.IsEnabled() && v4.AutoDNS.OrElse(true)) ||
			(v6 != nil && v6.IsEnabled() && v6.AutoDNS.OrElse(true)) {
			out = append(out, mi)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Name < out[j].Key.Name })
	return out
}
