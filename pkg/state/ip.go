package state

// Address is a single static IP address entry (spec §3 "IP block").
type Address struct {
	IP           string      `yaml:"ip" json:"ip"`
	PrefixLength int         `yaml:"prefix-length" json:"prefix-length"`
	MPTCPFlags   Opt[[]MPTCPFlag] `yaml:"mptcp-flags,omitempty" json:"mptcp-flags,omitempty"`
}

// DNSClient is the per-interface DNS sub-block (spec §3 "IP block").
type DNSClient struct {
	Server   []string `yaml:"server,omitempty" json:"server,omitempty"`
	Search   []string `yaml:"search,omitempty" json:"search,omitempty"`
	Priority Opt[int] `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// IPBlock is an IPv4 or IPv6 configuration block attached to a
// BaseInterface (spec §3 "IP block").
type IPBlock struct {
	Enabled  Opt[bool] `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Dhcp     Opt[bool] `yaml:"dhcp,omitempty" json:"dhcp,omitempty"`
	Autoconf Opt[bool] `yaml:"autoconf,omitempty" json:"autoconf,omitempty"` // IPv6 only

	Address []Address `yaml:"address,omitempty" json:"address,omitempty"`

	DNSClient Opt[*DNSClient] `yaml:"dns-client,omitempty" json:"dns-client,omitempty"`

	Route     []Route     `yaml:"route,omitempty" json:"route,omitempty"`
	RouteRule []RouteRule `yaml:"route-rule,omitempty" json:"route-rule,omitempty"`

	AutoDNS        Opt[bool] `yaml:"auto-dns,omitempty" json:"auto-dns,omitempty"`
	AutoRoutes     Opt[bool] `yaml:"auto-routes,omitempty" json:"auto-routes,omitempty"`
	AutoGateway    Opt[bool] `yaml:"auto-gateway,omitempty" json:"auto-gateway,omitempty"`
	AutoRouteTable Opt[int]  `yaml:"auto-route-table,omitempty" json:"auto-route-table,omitempty"`

	// AllowExtraAddress, default true, controls verification strictness:
	// when true the verifier tolerates addresses present on the kernel
	// side that are absent from for_apply (spec §3 "IP block").
	AllowExtraAddress Opt[bool] `yaml:"allow-extra-address,omitempty" json:"allow-extra-address,omitempty"`

	AddrGenMode Opt[AddrGenMode] `yaml:"addr-gen-mode,omitempty" json:"addr-gen-mode,omitempty"` // IPv6 only
}

// IsEnabled reports whether the stack is enabled, defaulting to false
// when unset (an absent IPv4/IPv6 block means "no opinion", resolved by
// the merger against current state, not defaulted here).
func (b *IPBlock) IsEnabled() bool { return b.Enabled.OrElse(false) }

// AllowsExtraAddress returns the allow-extra-address effective value,
// which defaults to true (spec §3).
func (b *IPBlock) AllowsExtraAddress() bool { return b.AllowExtraAddress.OrElse(true) }
