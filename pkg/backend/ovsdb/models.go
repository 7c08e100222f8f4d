// Package ovsdb is the OVSDB half of component G (spec §4.G, §3 "OVSDB
// global", §6 "OVSDB global config path"): it talks JSON-RPC to the
// local Open_vSwitch database over its Unix-domain socket to read and
// write bridge/port/interface rows and the database-wide external_ids
// and other_config maps. Table layout and the ClientDBModel wiring are
// grounded on the teacher's OVN Northbound/Southbound models
// (pkg/ovndb/models.go), retargeted at the Open_vSwitch schema instead
// of OVN-Kubernetes's logical-network tables.
package ovsdb

import (
	"github.com/ovn-org/libovsdb/model"
)

// Table name constants for the Open_vSwitch schema (spec §4.G "a
// per-profile section graph keyed by interface kind").
const (
	BridgeTable      = "Bridge"
	PortTable        = "Port"
	InterfaceTable   = "Interface"
	OpenVSwitchTable = "Open_vSwitch"
)

// Bridge is an OVS bridge row.
type Bridge struct {
	UUID        string            `ovsdb:"_uuid"`
	Name        string            `ovsdb:"name"`
	Ports       []string          `ovsdb:"ports"`
	ExternalIDs map[string]string `ovsdb:"external_ids"`
	OtherConfig map[string]string `ovsdb:"other_config"`
	Protocols   []string          `ovsdb:"protocols"`
}

// Port is an OVS port row: either a direct bridge member or the
// intermediate `ovs-port-<child>` wrapper that Client.EnsurePortWithInterface creates
// (spec §4.C.5, §4.G "Synthesised OVS ports").
type Port struct {
	UUID        string            `ovsdb:"_uuid"`
	Name        string            `ovsdb:"name"`
	Interfaces  []string          `ovsdb:"interfaces"`
	Tag         *int              `ovsdb:"tag"`
	Trunks      []int             `ovsdb:"trunks"`
	VlanMode    *string           `ovsdb:"vlan_mode"`
	BondMode    *string           `ovsdb:"bond_mode"`
	ExternalIDs map[string]string `ovsdb:"external_ids"`
	OtherConfig map[string]string `ovsdb:"other_config"`
}

// Interface is an OVS interface row (internal, patch, or dpdk type).
type Interface struct {
	UUID        string            `ovsdb:"_uuid"`
	Name        string            `ovsdb:"name"`
	Type        string            `ovsdb:"type"`
	Options     map[string]string `ovsdb:"options"`
	MTURequest  *int              `ovsdb:"mtu_request"`
	ExternalIDs map[string]string `ovsdb:"external_ids"`
	OtherConfig map[string]string `ovsdb:"other_config"`
	AdminState  *string           `ovsdb:"admin_state"`
}

// OpenVSwitch is the single row of the database-wide Open_vSwitch
// table, carrying the global external_ids/other_config maps (spec §3
// "OVSDB global").
type OpenVSwitch struct {
	UUID        string            `ovsdb:"_uuid"`
	Bridges     []string          `ovsdb:"bridges"`
	ExternalIDs map[string]string `ovsdb:"external_ids"`
	OtherConfig map[string]string `ovsdb:"other_config"`
}

// DBModel returns the libovsdb client model for the Open_vSwitch
// schema, mirroring NBDBModel/SBDBModel's construction in the teacher.
func DBModel() (model.ClientDBModel, error) {
	return model.NewClientDBModel("Open_vSwitch", map[string]model.Model{
		BridgeTable:      &Bridge{},
		PortTable:        &Port{},
		InterfaceTable:   &Interface{},
		OpenVSwitchTable: &OpenVSwitch{},
	})
}
