// Package classify implements component E: partitioning the merged
// interfaces into add/change/delete sets and computing a deterministic
// apply order (spec §4.E).
package classify

import (
	"sort"

	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// MaxDepth bounds the up_priority fixed-point iteration (spec §4.E).
const MaxDepth = 4

// Action is the classification assigned to one interface.
type Action int

const (
	ActionNone Action = iota
	ActionAdd
	ActionChange
	ActionDelete
)

// Entry is one classified, ordered interface.
type Entry struct {
	Key        state.Key
	Merged     *merge.MergedInterface
	Action     Action
	UpPriority int
}

// Plan is the classifier's output: three ordered slices ready for the
// apply pipeline's delete pass and add/change pass (spec §4.F steps
// 5-6).
type Plan struct {
	Add    []Entry
	Change []Entry
	Delete []Entry
}

// Classify partitions and orders res.Interfaces (spec §4.E).
func Classify(res *merge.Result) (*Plan, error) {
	priorities, err := computeUpPriorities(res)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for key, mi := range res.Interfaces {
		entry := Entry{Key: key, Merged: mi, UpPriority: priorities[key]}
		switch classifyOne(mi) {
		case ActionAdd:
			entry.Action = ActionAdd
			plan.Add = append(plan.Add, entry)
		case ActionChange:
			entry.Action = ActionChange
			plan.Change = append(plan.Change, entry)
		case ActionDelete:
			entry.Action = ActionDelete
			plan.Delete = append(plan.Delete, entry)
		}
	}

	sort.Slice(plan.Add, func(i, j int) bool { return less(plan.Add[i], plan.Add[j]) })
	sort.Slice(plan.Change, func(i, j int) bool { return less(plan.Change[i], plan.Change[j]) })
	sort.Slice(plan.Delete, func(i, j int) bool { return !less(plan.Delete[i], plan.Delete[j]) })

	return plan, nil
}

func less(a, b Entry) bool {
	if a.UpPriority != b.UpPriority {
		return a.UpPriority < b.UpPriority
	}
	return a.Key.Name < b.Key.Name
}

// classifyOne implements the add/change/delete rules of spec §4.E.
func classifyOne(mi *merge.MergedInterface) Action {
	if mi.ForApply == nil {
		return ActionNone
	}
	if mi.ForApply.IsAbsent() {
		if mi.Current != nil {
			return ActionDelete
		}
		return ActionNone
	}
	if !mi.ForApply.IsUp() {
		return ActionNone
	}
	if mi.Current == nil {
		return ActionAdd
	}
	if !equalForApply(mi.ForApply, mi.Current) {
		return ActionChange
	}
	return ActionNone
}

// equalForApply is a coarse change-detection check; the precise
// canonicalised comparison used on verification lives in
// pkg/state.Equal*. It compares only the administrative state, the
// MAC address and MTU (when desired sets them) and the IPv4/IPv6
// enabled flag and address set (when desired carries the block). Other
// fields (type-specific sub-records, routes, OVSDB maps and the rest)
// are not compared, so a change confined to them classifies as
// ActionNone.
func equalForApply(desired, current *state.Interface) bool {
	if desired.State != current.State {
		return false
	}
	if mac1, ok1 := desired.MACAddress.Get(); ok1 {
		if mac2, ok2 := current.MACAddress.Get(); !ok2 || !state.EqualMAC(mac1, mac2) {
			return false
		}
	}
	if mtu1, ok1 := desired.MTU.Get(); ok1 {
		if mtu2, ok2 := current.MTU.Get(); !ok2 || mtu1 != mtu2 {
			return false
		}
	}
	if v4d, ok := desired.IPv4.Get(); ok {
		v4c, _ := current.IPv4.Get()
		if !equalIPBlock(v4d, v4c) {
			return false
		}
	}
	if v6d, ok := desired.IPv6.Get(); ok {
		v6c, _ := current.IPv6.Get()
		if !equalIPBlock(v6d, v6c) {
			return false
		}
	}
	return true
}

func equalIPBlock(d, c *state.IPBlock) bool {
	if d == nil && c == nil {
		return true
	}
	if d == nil || c == nil {
		return false
	}
	if d.IsEnabled() != c.IsEnabled() {
		return false
	}
	return state.EqualAddressSets(d.Address, c.Address, false)
}

// parentName returns the VLAN/VXLAN/MAC-VLAN "parent" interface name,
// which counts as an ordering edge in addition to controller (spec
// §4.E "VLAN/VXLAN/MAC-VLAN parent counts as an ordering edge").
func parentName(iface *state.Interface) (string, bool) {
	switch {
	case iface.Vlan != nil:
		return iface.Vlan.BaseIface, true
	case iface.Vxlan != nil:
		if v, ok := iface.Vxlan.BaseIface.Get(); ok {
			return v, true
		}
	case iface.MacVlan != nil:
		if v, ok := iface.MacVlan.BaseIface.Get(); ok {
			return v, true
		}
	case iface.MacVtap != nil:
		if v, ok := iface.MacVtap.BaseIface.Get(); ok {
			return v, true
		}
	}
	return "", false
}

// computeUpPriorities runs the bounded fixed-point algorithm of spec
// §4.E: initialise all to 0; on each pass set every dependent's
// priority to max(self, controller+1, parent+1) until a fixed point,
// running at most MaxDepth+1 passes. It fails InvalidArgument ("nesting
// too deep") when no fixed point is reached or when any priority reaches
// MaxDepth, i.e. for a controller/parent chain of MaxDepth+1 or more
// interfaces.
func computeUpPriorities(res *merge.Result) (map[state.Key]int, error) {
	priorities := map[state.Key]int{}
	for key := range res.Interfaces {
		priorities[key] = 0
	}

	byName := map[string][]state.Key{}
	for key := range res.Interfaces {
		byName[key.Name] = append(byName[key.Name], key)
	}
	lookup := func(name string) (state.Key, bool) {
		keys, ok := byName[name]
		if !ok || len(keys) == 0 {
			return state.Key{}, false
		}
		return keys[0], true
	}

	converged := false
	for pass := 0; pass <= MaxDepth; pass++ {
		changed := false
		for key, mi := range res.Interfaces {
			if mi.ForApply == nil || !mi.ForApply.IsUp() {
				continue
			}
			want := priorities[key]
			if ctrlName, ok := mi.ForApply.ControllerName.Get(); ok {
				if ctrlKey, found := lookup(ctrlName); found {
					if p := priorities[ctrlKey] + 1; p > want {
						want = p
					}
				}
			}
			if parent, ok := parentName(mi.ForApply); ok {
				if parentKey, found := lookup(parent); found {
					if p := priorities[parentKey] + 1; p > want {
						want = p
					}
				}
			}
			if want != priorities[key] {
				priorities[key] = want
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}
	}

	for key, p := range priorities {
		if p >= MaxDepth {
			return nil, nmerror.InvalidArgument("nesting too deep: interface %q exceeds max depth %d", key.Name, MaxDepth)
		}
	}
	if !converged {
		return nil, nmerror.InvalidArgument("nesting too deep")
	}
	return priorities, nil
}
