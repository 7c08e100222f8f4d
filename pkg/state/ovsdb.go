package state

// StringMap is a map whose values are Option<String> on the wire: a
// present key with a string sets it, a present key with null removes
// it, and an empty map at the block level removes every entry (spec
// §3 "OVSDB global", §4.C.3). nil entries are the "remove" sentinel.
type StringMap map[string]*string

// SetString returns a pointer suitable for a StringMap "set" entry.
func SetString(v string) *string { return &v }

// OvnBridgeMapping is one entry of the reserved `ovn-bridge-mappings`
// external-id, split out and re-serialised on write (spec §3).
type OvnBridgeMapping struct {
	Localnet string      `yaml:"localnet" json:"localnet"`
	Bridge   string      `yaml:"bridge" json:"bridge"`
	State    EntityState `yaml:"state,omitempty" json:"state,omitempty"`
}

// OvnConfiguration is the engine-level view of the reserved
// `ovn-bridge-mappings` key (spec §3 "OVSDB global").
type OvnConfiguration struct {
	BridgeMappings []OvnBridgeMapping `yaml:"bridge-mappings,omitempty" json:"bridge-mappings,omitempty"`
}

// OVSDBGlobal is the document's top-level `ovs-db` block (spec §3
// "OVSDB global").
type OVSDBGlobal struct {
	ExternalIDs Opt[StringMap] `yaml:"external_ids,omitempty" json:"external_ids,omitempty"`
	OtherConfig Opt[StringMap] `yaml:"other_config,omitempty" json:"other_config,omitempty"`
}

// InterfaceOVSDB is the per-interface `ovs-db` block attached to an OVS
// bridge or OVS internal interface (spec §3 "Per-interface OVSDB").
type InterfaceOVSDB struct {
	ExternalIDs Opt[StringMap] `yaml:"external_ids,omitempty" json:"external_ids,omitempty"`
	OtherConfig Opt[StringMap] `yaml:"other_config,omitempty" json:"other_config,omitempty"`
}

// OVNConfiguration is the document's top-level `ovn` block.
type OVNConfiguration struct {
	BridgeMappings []OvnBridgeMapping `yaml:"bridge-mappings,omitempty" json:"bridge-mappings,omitempty"`
}

// MergeStringMap applies the three-valued map merge rule of spec
// §4.C.3: a missing key in desired keeps current; a present key with a
// value sets; a present key with nil removes; an empty desired map (but
// present, i.e. len==0 and non-nil) wipes every current entry.
func MergeStringMap(desired Opt[StringMap], current StringMap) StringMap {
	d, ok := desired.Get()
	if !ok {
		return current
	}
	if len(d) == 0 {
		return StringMap{}
	}
	merged := StringMap{}
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range d {
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	return merged
}
