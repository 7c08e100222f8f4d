package state

// RoutesState is the document's top-level `routes` block (spec §6).
type RoutesState struct {
	Config  []Route `yaml:"config,omitempty" json:"config,omitempty"`
	Running []Route `yaml:"running,omitempty" json:"running,omitempty"`
}

// RouteRulesState is the document's top-level `route-rules` block.
type RouteRulesState struct {
	Config []RouteRule `yaml:"config,omitempty" json:"config,omitempty"`
}

// NetworkState is the top-level document (spec §6 "Document format").
// It is produced either by deserialisation of caller input or by
// observation of the host (backend + kernel read path); it is mutated
// only through the Merger (spec §3 "Lifecycle").
type NetworkState struct {
	Interfaces []Interface `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`

	Routes     RoutesState     `yaml:"routes,omitempty" json:"routes,omitempty"`
	RouteRules RouteRulesState `yaml:"route-rules,omitempty" json:"route-rules,omitempty"`

	DNS Opt[*DNSState] `yaml:"dns-resolver,omitempty" json:"dns-resolver,omitempty"`

	OVSDB Opt[*OVSDBGlobal] `yaml:"ovs-db,omitempty" json:"ovs-db,omitempty"`
	OVN   Opt[*OVNConfiguration] `yaml:"ovn,omitempty" json:"ovn,omitempty"`

	Hostname Opt[string] `yaml:"hostname,omitempty" json:"hostname,omitempty"`

	Dispatch Opt[*DispatchConfig] `yaml:"dispatch,omitempty" json:"dispatch,omitempty"`
}

// InterfaceByKey returns the interface with the given key, or nil.
func (s *NetworkState) InterfaceByKey(k Key) *Interface {
	for idx := range s.Interfaces {
		if s.Interfaces[idx].Key() == k {
			return &s.Interfaces[idx]
		}
	}
	return nil
}

// InterfaceByName returns the first interface with the given name,
// regardless of type; used for controller/parent name resolution where
// the caller's document does not repeat the type (spec §3 invariants).
func (s *NetworkState) InterfaceByName(name string) *Interface {
	for idx := range s.Interfaces {
		if s.Interfaces[idx].Name == name {
			return &s.Interfaces[idx]
		}
	}
	return nil
}
