package state

// DNSConfigBlock holds a DNS server list, search list and priority.
// Server entries may be an IPv6 link-local address with a "%iface"
// scope (spec §3 "DNS state").
type DNSConfigBlock struct {
	Server   []string `yaml:"server,omitempty" json:"server,omitempty"`
	Search   []string `yaml:"search,omitempty" json:"search,omitempty"`
	Priority Opt[int] `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// DNSState is the top-level dns-resolver block: desired (Config) and
// observed (Running) (spec §3 "DNS state").
type DNSState struct {
	Config  Opt[*DNSConfigBlock] `yaml:"config,omitempty" json:"config,omitempty"`
	Running Opt[*DNSConfigBlock] `yaml:"running,omitempty" json:"running,omitempty"`
}
