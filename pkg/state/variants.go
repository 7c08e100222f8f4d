package state

// SRIOVConfig is the ethernet SR-IOV sub-record (spec §3, §4.D).
type SRIOVConfig struct {
	TotalVFs Opt[int]  `yaml:"total-vfs,omitempty" json:"total-vfs,omitempty"`
	VFs      []SRIOVVF `yaml:"vfs,omitempty" json:"vfs,omitempty"`

	// MaxVFs is the kernel-advertised SR-IOV capability for this PF
	// (sriov_totalvfs in sysfs), filled in by the observer only. It is
	// never set on a desired/for_apply record; validate checks a
	// requested TotalVFs against the most recently observed MaxVFs.
	MaxVFs Opt[int] `yaml:"-" json:"-"`
}

// SRIOVVF describes one virtual function. Name is synthesised by the
// validator as a placeholder when total-vfs increases, so verification
// can wait for kernel enumeration (spec §4.D, §4.F step 8 "SR-IOV
// enumeration is considered incomplete until all declared VF interface
// names exist").
type SRIOVVF struct {
	ID         int         `yaml:"id" json:"id"`
	Name       string      `yaml:"-" json:"-"`
	MACAddress Opt[string] `yaml:"mac-address,omitempty" json:"mac-address,omitempty"`
	SpoofCheck Opt[bool]   `yaml:"spoof-check,omitempty" json:"spoof-check,omitempty"`
	Trust      Opt[bool]   `yaml:"trust,omitempty" json:"trust,omitempty"`
	MinTxRate  Opt[int]    `yaml:"min-tx-rate,omitempty" json:"min-tx-rate,omitempty"`
	MaxTxRate  Opt[int]    `yaml:"max-tx-rate,omitempty" json:"max-tx-rate,omitempty"`
}

// EthernetConfig is the ethernet variant's type-specific sub-record.
type EthernetConfig struct {
	SRIOV    Opt[*SRIOVConfig] `yaml:"sr-iov,omitempty" json:"sr-iov,omitempty"`
	VethPeer Opt[string]       `yaml:"veth-peer,omitempty" json:"-"` // set only when Type==veth
	AutoNegotiation Opt[bool]  `yaml:"auto-negotiation,omitempty" json:"auto-negotiation,omitempty"`
	Speed    Opt[int]          `yaml:"speed,omitempty" json:"speed,omitempty"`
	Duplex   Opt[string]       `yaml:"duplex,omitempty" json:"duplex,omitempty"`
}

// BondConfig is the bond variant's type-specific sub-record (spec §3,
// §8 scenario 2).
type BondConfig struct {
	Mode    Opt[BondMode]     `yaml:"mode,omitempty" json:"mode,omitempty"`
	Port    []string          `yaml:"port,omitempty" json:"port,omitempty"`
	Options Opt[map[string]string] `yaml:"options,omitempty" json:"options,omitempty"`
}

// LinuxBridgeOptions models the Linux bridge STP and multicast options.
// Only the timer fields listed in MulticastTimerFields tolerate ±1
// kernel-HZ rounding on verification (spec §4.F step 8, §9 "Kernel
// integer rounding").
type LinuxBridgeOptions struct {
	STP                     Opt[bool] `yaml:"stp,omitempty" json:"stp,omitempty"`
	MulticastRouter         Opt[int]  `yaml:"multicast-router,omitempty" json:"multicast-router,omitempty"`
	MulticastSnooping       Opt[bool] `yaml:"multicast-snooping,omitempty" json:"multicast-snooping,omitempty"`
	MulticastLastMemberInterval Opt[int] `yaml:"multicast-last-member-interval,omitempty" json:"multicast-last-member-interval,omitempty"`
	MulticastMembershipInterval Opt[int] `yaml:"multicast-membership-interval,omitempty" json:"multicast-membership-interval,omitempty"`
	MulticastQuerierInterval    Opt[int] `yaml:"multicast-querier-interval,omitempty" json:"multicast-querier-interval,omitempty"`
	MulticastQueryInterval      Opt[int] `yaml:"multicast-query-interval,omitempty" json:"multicast-query-interval,omitempty"`
	MulticastQueryResponseInterval Opt[int] `yaml:"multicast-query-response-interval,omitempty" json:"multicast-query-response-interval,omitempty"`
}

// MulticastTimerFields lists the LinuxBridgeOptions fields that honour
// the ±1 tolerance on verification (spec §4.F step 8).
var MulticastTimerFields = []string{
	"multicast-last-member-interval",
	"multicast-membership-interval",
	"multicast-querier-interval",
	"multicast-query-interval",
	"multicast-query-response-interval",
}

// BridgePort is a member port reference, sorted by name for
// canonicalisation (spec §4.A).
type BridgePort struct {
	Name string `yaml:"name" json:"name"`
	// Vlan is the port's VLAN filtering configuration; FlattenTrunkTags
	// expands its trunk-tag ranges to individual IDs (spec §4.A).
	Vlan Opt[*BridgePortVlan] `yaml:"vlan,omitempty" json:"vlan,omitempty"`
}

// BridgePortVlan is the VLAN filtering configuration of a bridge port.
type BridgePortVlan struct {
	Mode    Opt[string] `yaml:"mode,omitempty" json:"mode,omitempty"`
	Tag     Opt[int]    `yaml:"tag,omitempty" json:"tag,omitempty"`
	TrunkTags []TrunkTag `yaml:"trunk-tags,omitempty" json:"trunk-tags,omitempty"`
}

// TrunkTag is either a single id or an inclusive range; FlattenTrunkTags expands
// it to individual sorted ids (spec §4.A canonicalisation).
type TrunkTag struct {
	ID         Opt[int] `yaml:"id,omitempty" json:"id,omitempty"`
	IDRangeMin Opt[int] `yaml:"id-range-min,omitempty" json:"id-range-min,omitempty"`
	IDRangeMax Opt[int] `yaml:"id-range-max,omitempty" json:"id-range-max,omitempty"`
}

// LinuxBridgeConfig is the linux-bridge variant's sub-record.
type LinuxBridgeConfig struct {
	Options Opt[*LinuxBridgeOptions] `yaml:"options,omitempty" json:"options,omitempty"`
	Port    []BridgePort             `yaml:"port,omitempty" json:"port,omitempty"`
}

// OVSBridgeConfig is the ovs-bridge variant's sub-record.
type OVSBridgeConfig struct {
	Port []BridgePort `yaml:"port,omitempty" json:"port,omitempty"`
	AllowExtraPatchPorts Opt[bool] `yaml:"allow-extra-patch-ports,omitempty" json:"allow-extra-patch-ports,omitempty"`
}

// OVSPatchConfig configures an ovs-interface of type "patch".
type OVSPatchConfig struct {
	Peer string `yaml:"peer" json:"peer"`
}

// OVSDPDKConfig configures an ovs-interface of type "dpdk".
type OVSDPDKConfig struct {
	Devargs      string   `yaml:"devargs" json:"devargs"`
	RxQueue      Opt[int] `yaml:"rx-queue,omitempty" json:"rx-queue,omitempty"`
	NRxqDesc     Opt[int] `yaml:"n-rxq-desc,omitempty" json:"n-rxq-desc,omitempty"`
	NTxqDesc     Opt[int] `yaml:"n-txq-desc,omitempty" json:"n-txq-desc,omitempty"`
}

// OVSInterfaceConfig is the ovs-interface variant's sub-record: exactly
// one of Patch/Dpdk is set, or neither for a plain internal port.
type OVSInterfaceConfig struct {
	Patch Opt[*OVSPatchConfig] `yaml:"patch,omitempty" json:"patch,omitempty"`
	Dpdk  Opt[*OVSDPDKConfig]  `yaml:"dpdk,omitempty" json:"dpdk,omitempty"`
}

// VlanConfig is the vlan variant's sub-record.
type VlanConfig struct {
	ID          int    `yaml:"id" json:"id"`
	BaseIface   string `yaml:"base-iface" json:"base-iface"`
	RegProtocol Opt[string] `yaml:"reorder-headers,omitempty" json:"reorder-headers,omitempty"`
}

// VxlanConfig is the vxlan variant's sub-record.
type VxlanConfig struct {
	ID          int         `yaml:"id" json:"id"`
	BaseIface   Opt[string] `yaml:"base-iface,omitempty" json:"base-iface,omitempty"`
	Remote      Opt[string] `yaml:"remote,omitempty" json:"remote,omitempty"`
	DestinationPort Opt[int] `yaml:"destination-port,omitempty" json:"destination-port,omitempty"`
	Local       Opt[string] `yaml:"local,omitempty" json:"local,omitempty"`
}

// MacVlanConfig is shared by mac-vlan and mac-vtap variants.
type MacVlanConfig struct {
	BaseIface Opt[string] `yaml:"base-iface,omitempty" json:"base-iface,omitempty"`
	Mode      Opt[string] `yaml:"mode,omitempty" json:"mode,omitempty"`
	Promiscuous Opt[bool] `yaml:"promiscuous,omitempty" json:"promiscuous,omitempty"`
}

// MacsecConfig is the macsec variant's sub-record.
type MacsecConfig struct {
	Encrypt  Opt[bool]   `yaml:"encrypt,omitempty" json:"encrypt,omitempty"`
	BaseIface Opt[string] `yaml:"base-iface,omitempty" json:"base-iface,omitempty"`
	MKACak   Opt[string] `yaml:"mka-cak,omitempty" json:"mka-cak,omitempty"`
	MKACkn   Opt[string] `yaml:"mka-ckn,omitempty" json:"mka-ckn,omitempty"`
	Port     Opt[int]    `yaml:"port,omitempty" json:"port,omitempty"`
	Validation Opt[string] `yaml:"validation,omitempty" json:"validation,omitempty"`
}

// IPVlanConfig is the ip-vlan variant's sub-record.
type IPVlanConfig struct {
	BaseIface Opt[string] `yaml:"base-iface,omitempty" json:"base-iface,omitempty"`
	Mode      Opt[string] `yaml:"mode,omitempty" json:"mode,omitempty"`
	Private   Opt[bool]   `yaml:"private,omitempty" json:"private,omitempty"`
}

// InfiniBandPkey is the optional pkey-child sub-record (spec §3, §8
// scenario 3).
type InfiniBandPkey struct {
	BaseIface string `yaml:"base-iface" json:"base-iface"`
	Pkey      string `yaml:"pkey" json:"pkey"`
}

// InfiniBandConfig is the infiniband variant's sub-record.
type InfiniBandConfig struct {
	Mode Opt[string]           `yaml:"mode,omitempty" json:"mode,omitempty"`
	Pkey Opt[*InfiniBandPkey] `yaml:"pkey-child,omitempty" json:"pkey-child,omitempty"`
}

// VRFConfig is the vrf variant's sub-record (spec §3, §4.D invariants).
type VRFConfig struct {
	Port    []string `yaml:"port,omitempty" json:"port,omitempty"`
	TableID Opt[int] `yaml:"route-table-id,omitempty" json:"route-table-id,omitempty"`
}

// HSRConfig is the hsr variant's sub-record.
type HSRConfig struct {
	Port0        string `yaml:"port0" json:"port0"`
	Port1        string `yaml:"port1" json:"port1"`
	SupervisionAddress Opt[string] `yaml:"supervision-address,omitempty" json:"supervision-address,omitempty"`
	Protocol     Opt[string] `yaml:"protocol,omitempty" json:"protocol,omitempty"`
}

// IPsecConfig is the ipsec (libreswan) variant's sub-record (spec §3
// invariants: mka-cak/ckn-style PSK length checks apply here too).
type IPsecConfig struct {
	Right       Opt[string] `yaml:"right,omitempty" json:"right,omitempty"`
	Left        Opt[string] `yaml:"left,omitempty" json:"left,omitempty"`
	PSK         Opt[string] `yaml:"psk,omitempty" json:"psk,omitempty"`
	CACert      Opt[string] `yaml:"ca-cert,omitempty" json:"ca-cert,omitempty"`
	CertPath    Opt[string] `yaml:"cert-path,omitempty" json:"cert-path,omitempty"`
	IkeV2       Opt[string] `yaml:"ikev2,omitempty" json:"ikev2,omitempty"`
}

// DummyConfig is the dummy variant's (empty) sub-record, present so the
// tagged-union dispatch has a concrete type to decode into.
type DummyConfig struct{}

// LoopbackConfig is the loopback variant's (empty) sub-record; its
// invariants (cannot disable IPv4/IPv6 or request DHCP/autoconf) are
// enforced in pkg/validate, not here.
type LoopbackConfig struct{}

// UnknownConfig preserves an interface record the engine does not
// recognise for forward-compatible round-tripping (spec §3 "An unknown
// variant preserves round-trips").
type UnknownConfig struct {
	Raw map[string]interface{} `yaml:",inline" json:"-"`
}
