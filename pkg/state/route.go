package state

// Route is a single route entry (spec §3 "Route"). A Route with
// State == EntityAbsent is a deletion *specimen*: only its non-absent
// fields constrain which current routes it matches (wildcard
// semantics), implemented by Matches.
type Route struct {
	Destination      Opt[string] `yaml:"destination,omitempty" json:"destination,omitempty"`
	NextHopInterface Opt[string] `yaml:"next-hop-interface,omitempty" json:"next-hop-interface,omitempty"`
	NextHopAddress   Opt[string] `yaml:"next-hop-address,omitempty" json:"next-hop-address,omitempty"`
	Metric           Opt[int]    `yaml:"metric,omitempty" json:"metric,omitempty"`
	TableID          Opt[int]    `yaml:"table-id,omitempty" json:"table-id,omitempty"`
	RouteType        Opt[RouteType] `yaml:"route-type,omitempty" json:"route-type,omitempty"`
	Weight           Opt[int]    `yaml:"weight,omitempty" json:"weight,omitempty"`
	Cwnd             Opt[int]    `yaml:"cwnd,omitempty" json:"cwnd,omitempty"`
	State            EntityState `yaml:"state,omitempty" json:"state,omitempty"`
}

// IsAbsent reports whether this entry is a deletion specimen.
func (r *Route) IsAbsent() bool { return r.State == EntityAbsent }

// Matches reports whether a present route r2 is matched for deletion
// by the absent specimen r (spec §3 "A route is matched for deletion
// by the non-None fields of the absent specimen").
func (r *Route) Matches(r2 *Route) bool {
	if v, ok := r.Destination.Get(); ok {
		if v2, ok2 := r2.Destination.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.NextHopInterface.Get(); ok {
		if v2, ok2 := r2.NextHopInterface.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.NextHopAddress.Get(); ok {
		if v2, ok2 := r2.NextHopAddress.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.TableID.Get(); ok {
		if v2, ok2 := r2.TableID.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.Metric.Get(); ok {
		if v2, ok2 := r2.Metric.Get(); !ok2 || v2 != v {
			return false
		}
	}
	return true
}

// RouteRule is a policy-routing rule (spec §3 "Route-rule").
type RouteRule struct {
	Family              Opt[string] `yaml:"family,omitempty" json:"family,omitempty"`
	IPFrom              Opt[string] `yaml:"ip-from,omitempty" json:"ip-from,omitempty"`
	IPTo                Opt[string] `yaml:"ip-to,omitempty" json:"ip-to,omitempty"`
	Priority            Opt[int]    `yaml:"priority,omitempty" json:"priority,omitempty"`
	RouteTable          Opt[int]    `yaml:"route-table,omitempty" json:"route-table,omitempty"`
	Fwmark              Opt[uint32] `yaml:"fwmark,omitempty" json:"fwmark,omitempty"`
	Fwmask              Opt[uint32] `yaml:"fwmask,omitempty" json:"fwmask,omitempty"`
	IIF                 Opt[string] `yaml:"iif,omitempty" json:"iif,omitempty"`
	Action              Opt[RouteRuleAction] `yaml:"action,omitempty" json:"action,omitempty"`
	SuppressPrefixLength Opt[int]   `yaml:"suppress-prefix-length,omitempty" json:"suppress-prefix-length,omitempty"`
	State               EntityState `yaml:"state,omitempty" json:"state,omitempty"`
}

// IsAbsent reports whether this entry is a deletion specimen.
func (r *RouteRule) IsAbsent() bool { return r.State == EntityAbsent }

// Matches mirrors Route.Matches for rule wildcard deletion.
func (r *RouteRule) Matches(r2 *RouteRule) bool {
	if v, ok := r.IPFrom.Get(); ok {
		if v2, ok2 := r2.IPFrom.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.IPTo.Get(); ok {
		if v2, ok2 := r2.IPTo.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.Priority.Get(); ok {
		if v2, ok2 := r2.Priority.Get(); !ok2 || v2 != v {
			return false
		}
	}
	if v, ok := r.RouteTable.Get(); ok {
		if v2, ok2 := r2.RouteTable.Get(); !ok2 || v2 != v {
			return false
		}
	}
	return true
}
