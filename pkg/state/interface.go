package state

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Interface is the tagged-union wrapper around BaseInterface plus
// exactly one type-specific sub-record, keyed by BaseInterface.Type
// (spec §3 "Interface"). An Unknown variant is kept for any type tag
// the engine does not recognise, so round-trips survive forward
// compatibility (spec §3, §7 "Unknown interface types... preserved
// verbatim as unknown, not an error").
type Interface struct {
	BaseInterface

	Ethernet   *EthernetConfig     `yaml:"ethernet,omitempty" json:"ethernet,omitempty"`
	Bond       *BondConfig         `yaml:"bond,omitempty" json:"bond,omitempty"`
	LinuxBridge *LinuxBridgeConfig `yaml:"bridge,omitempty" json:"bridge,omitempty"`
	OVSBridge  *OVSBridgeConfig    `yaml:"ovs-bridge,omitempty" json:"ovs-bridge,omitempty"`
	OVSInterface *OVSInterfaceConfig `yaml:"ovs-interface,omitempty" json:"ovs-interface,omitempty"`
	Vlan       *VlanConfig         `yaml:"vlan,omitempty" json:"vlan,omitempty"`
	Vxlan      *VxlanConfig        `yaml:"vxlan,omitempty" json:"vxlan,omitempty"`
	MacVlan    *MacVlanConfig      `yaml:"mac-vlan,omitempty" json:"mac-vlan,omitempty"`
	MacVtap    *MacVlanConfig      `yaml:"mac-vtap,omitempty" json:"mac-vtap,omitempty"`
	Macsec     *MacsecConfig       `yaml:"macsec,omitempty" json:"macsec,omitempty"`
	IPVlan     *IPVlanConfig       `yaml:"ip-vlan,omitempty" json:"ip-vlan,omitempty"`
	InfiniBand *InfiniBandConfig   `yaml:"infiniband,omitempty" json:"infiniband,omitempty"`
	Loopback   *LoopbackConfig     `yaml:"loopback,omitempty" json:"loopback,omitempty"`
	VRF        *VRFConfig          `yaml:"vrf,omitempty" json:"vrf,omitempty"`
	HSR        *HSRConfig          `yaml:"hsr,omitempty" json:"hsr,omitempty"`
	IPsec      *IPsecConfig        `yaml:"ipsec,omitempty" json:"ipsec,omitempty"`
	Dummy      *DummyConfig        `yaml:"dummy,omitempty" json:"dummy,omitempty"`
	Unknown    *UnknownConfig      `yaml:"-" json:"-"`
}

// UnmarshalYAML decodes the common BaseInterface fields and then the
// single type-specific sub-record selected by Type. An interface type
// the engine does not recognise becomes an Unknown, capturing the raw
// document so it round-trips (spec §3, §7).
func (i *Interface) UnmarshalYAML(value *yaml.Node) error {
	type plain Interface
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*i = Interface(p)

	switch i.Type {
	case TypeEthernet, TypeVeth,
		TypeBond, TypeLinuxBridge, TypeOVSBridge, TypeOVSInterface,
		TypeVLAN, TypeVXLAN, TypeMacVlan, TypeMacVtap, TypeMacsec,
		TypeIPVlan, TypeInfiniBand, TypeLoopback, TypeVRF, TypeHSR,
		TypeIPsec, TypeDummy:
		return nil
	default:
		var raw map[string]interface{}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		i.Unknown = &UnknownConfig{Raw: raw}
		i.Type = TypeUnknown
		return nil
	}
}

// ShapeOK returns a plain error when more than one type-specific
// sub-record is populated. It does not check that the populated
// sub-record matches Type.
func (i *Interface) ShapeOK() error {
	count := 0
	for _, set := range []bool{
		i.Ethernet != nil, i.Bond != nil, i.LinuxBridge != nil,
		i.OVSBridge != nil, i.OVSInterface != nil, i.Vlan != nil,
		i.Vxlan != nil, i.MacVlan != nil, i.MacVtap != nil,
		i.Macsec != nil, i.IPVlan != nil, i.InfiniBand != nil,
		i.Loopback != nil, i.VRF != nil, i.HSR != nil, i.IPsec != nil,
		i.Dummy != nil,
	} {
		if set {
			count++
		}
	}
	if count > 1 {
		return fmt.Errorf("interface %q carries more than one type-specific sub-record", i.Name)
	}
	return nil
}

// Clone returns a shallow copy: reassigning a field of the copy leaves
// i untouched, but the type-specific sub-record pointers and the
// pointers inside Opt fields are shared with i, so mutating through
// them changes both.
func (i *Interface) Clone() *Interface {
	c := *i
	return &c
}
