package state

// Controller is the (name, type) reference a port interface carries to
// its bridge/bond/VRF (spec §3, §4.D — "port references resolve").
type Controller struct {
	Name string        `yaml:"name" json:"name"`
	Type InterfaceType `yaml:"type" json:"type"`
}

// LLDP is the link-layer discovery protocol sub-block.
type LLDP struct {
	Enabled Opt[bool] `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// MPTCPFlag is one MPTCP flag shared by an interface's IP blocks. The
// `signal` and `fullmesh` flags are mutually exclusive (spec §3
// invariants); enforced in pkg/validate.
type MPTCPFlag string

const (
	MPTCPSignal     MPTCPFlag = "signal"
	MPTCPFullmesh   MPTCPFlag = "fullmesh"
	MPTCPBackup     MPTCPFlag = "backup"
	MPTCPSubflow    MPTCPFlag = "subflow"
)

// IEEE8021X holds 802.1x supplicant configuration. PrivateKeyPassword
// and Password are secrets: the engine emits logging.SecretSentinel for
// them on query and accepts it back on apply (spec §6, §4.D).
type IEEE8021X struct {
	Identity           Opt[string]   `yaml:"identity,omitempty" json:"identity,omitempty"`
	EAPMethods         Opt[[]string] `yaml:"eap-methods,omitempty" json:"eap-methods,omitempty"`
	PrivateKey         Opt[string]   `yaml:"private-key,omitempty" json:"private-key,omitempty"`
	PrivateKeyPassword Opt[string]   `yaml:"private-key-password,omitempty" json:"private-key-password,omitempty"`
	ClientCert         Opt[string]   `yaml:"client-cert,omitempty" json:"client-cert,omitempty"`
	CACert             Opt[string]   `yaml:"ca-cert,omitempty" json:"ca-cert,omitempty"`
	Password           Opt[string]   `yaml:"password,omitempty" json:"password,omitempty"`
}

// DispatchInstance binds a per-interface dispatch script to a
// registered DispatchType and supplies its variables (spec §3, §4.G).
type DispatchInstance struct {
	Kind      string            `yaml:"kind" json:"kind"`
	Variables Opt[map[string]*string] `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// BaseInterface holds the fields common to every Interface variant
// (spec §3).
type BaseInterface struct {
	Name       string         `yaml:"name" json:"name"`
	Type       InterfaceType  `yaml:"type" json:"type"`
	State      InterfaceState `yaml:"state,omitempty" json:"state,omitempty"`
	MACAddress Opt[string]    `yaml:"mac-address,omitempty" json:"mac-address,omitempty"`
	MTU        Opt[int]       `yaml:"mtu,omitempty" json:"mtu,omitempty"`
	Identifier Opt[Identifier] `yaml:"identifier,omitempty" json:"identifier,omitempty"`

	// ControllerName is the name of the owning bridge/bond/VRF, if any.
	// ControllerType disambiguates same-named controllers of different
	// kinds and is filled in by the merger when resolving the reference
	// (spec §3 invariants: "a controller reference names an existing
	// interface of matching type").
	ControllerName Opt[string]        `yaml:"controller,omitempty" json:"controller,omitempty"`
	ControllerType Opt[InterfaceType] `yaml:"controller-type,omitempty" json:"controller-type,omitempty"`

	IPv4 Opt[*IPBlock] `yaml:"ipv4,omitempty" json:"ipv4,omitempty"`
	IPv6 Opt[*IPBlock] `yaml:"ipv6,omitempty" json:"ipv6,omitempty"`

	LLDP  Opt[*LLDP]      `yaml:"lldp,omitempty" json:"lldp,omitempty"`
	MPTCP Opt[[]MPTCPFlag] `yaml:"mptcp,omitempty" json:"mptcp,omitempty"`

	IEEE8021X Opt[*IEEE8021X] `yaml:"802.1x,omitempty" json:"802.1x,omitempty"`

	OVSDB Opt[*InterfaceOVSDB] `yaml:"ovs-db,omitempty" json:"ovs-db,omitempty"`

	Dispatch Opt[*DispatchInstance] `yaml:"dispatch,omitempty" json:"dispatch,omitempty"`

	// Accepted ("copy-through") means no name uniqueness validation has
	// consumed this yet; Key reports the (kind,name) identity used for
	// the flat map in pkg/merge (spec §9 "Cross-entity ownership").
}

// Key identifies an interface by (kind, name) as required by the flat
// map representation of spec §9.
type Key struct {
	Type InterfaceType
	Name string
}

// Key returns the (kind, name) identity of b.
func (b *BaseInterface) Key() Key { return Key{Type: b.Type, Name: b.Name} }

// IsUp reports whether the interface is administratively up.
func (b *BaseInterface) IsUp() bool { return b.State == StateUp }

// IsAbsent reports whether the interface is marked for removal.
func (b *BaseInterface) IsAbsent() bool { return b.State == StateAbsent }

// IsIgnored reports whether the interface must be excluded from merge
// entirely (spec §4.C.1).
func (b *BaseInterface) IsIgnored() bool { return b.State == StateIgnore }
