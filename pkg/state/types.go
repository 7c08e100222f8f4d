package state

// InterfaceType tags the Interface variant (spec §3, §6).
type InterfaceType string

const (
	TypeEthernet    InterfaceType = "ethernet"
	TypeVeth        InterfaceType = "veth"
	TypeBond        InterfaceType = "bond"
	TypeLinuxBridge InterfaceType = "linux-bridge"
	TypeOVSBridge   InterfaceType = "ovs-bridge"
	TypeOVSInterface InterfaceType = "ovs-interface"
	TypeVLAN        InterfaceType = "vlan"
	TypeVXLAN       InterfaceType = "vxlan"
	TypeMacVlan     InterfaceType = "mac-vlan"
	TypeMacVtap     InterfaceType = "mac-vtap"
	TypeMacsec      InterfaceType = "macsec"
	TypeIPVlan      InterfaceType = "ip-vlan"
	TypeInfiniBand  InterfaceType = "infiniband"
	TypeLoopback    InterfaceType = "loopback"
	TypeVRF         InterfaceType = "vrf"
	TypeHSR         InterfaceType = "hsr"
	TypeIPsec       InterfaceType = "ipsec"
	TypeDummy       InterfaceType = "dummy"
	TypeDispatch    InterfaceType = "dispatch"
	TypeUnknown     InterfaceType = "unknown"
)

// IsUserSpace reports whether kind is a "user-iface" (OVS bridge) as
// opposed to a kernel interface (spec §3 invariants: "kind is kernel-
// iface vs user-iface").
func (t InterfaceType) IsUserSpace() bool {
	return t == TypeOVSBridge
}

// InterfaceState is the desired/observed administrative state of an
// interface (spec §3).
type InterfaceState string

const (
	StateUp      InterfaceState = "up"
	StateDown    InterfaceState = "down"
	StateAbsent  InterfaceState = "absent"
	StateIgnore  InterfaceState = "ignore"
	StateUnknown InterfaceState = "unknown"
)

// Identifier selects whether a desired-state interface is matched to
// current state by name or by MAC address (spec §3 BaseInterface).
type Identifier string

const (
	IdentifierName Identifier = "name"
	IdentifierMAC  Identifier = "mac-address"
)

// RouteType distinguishes the forwarding behaviour of a Route (spec §3).
type RouteType string

const (
	RouteTypeUnicast     RouteType = "unicast"
	RouteTypeBlackhole   RouteType = "blackhole"
	RouteTypeProhibit    RouteType = "prohibit"
	RouteTypeUnreachable RouteType = "unreachable"
)

// RouteRuleAction is the action of a route-rule (spec §3).
type RouteRuleAction string

const (
	RuleActionTable       RouteRuleAction = "table"
	RuleActionBlackhole   RouteRuleAction = "blackhole"
	RuleActionUnreachable RouteRuleAction = "unreachable"
	RuleActionProhibit    RouteRuleAction = "prohibit"
)

// EntityState is the present/absent lifecycle state shared by Route and
// RouteRule entries (spec §3).
type EntityState string

const (
	EntityPresent EntityState = "present"
	EntityAbsent  EntityState = "absent"
)

// BondMode is the Linux bonding mode (spec §3, §8 scenario 2).
type BondMode string

const (
	BondModeRoundRobin   BondMode = "balance-rr"
	BondModeActiveBackup BondMode = "active-backup"
	BondModeXOR          BondMode = "balance-xor"
	BondModeBroadcast    BondMode = "broadcast"
	BondMode8023ad       BondMode = "802.3ad"
	BondModeTLB          BondMode = "balance-tlb"
	BondModeALB          BondMode = "balance-alb"
)

// AddrGenMode is the IPv6 address-generation mode (spec §3 IP block).
type AddrGenMode string

const (
	AddrGenEUI64       AddrGenMode = "eui64"
	AddrGenStablePriv  AddrGenMode = "stable-privacy"
)
