// Package validate implements component D: the structural and
// cross-entity invariants run on the merger's for_apply view (spec
// §4.D). Each check returns an *nmerror.Error, KindInvalidArgument for
// caller mistakes and KindDependencyError when a requested SR-IOV VF
// count exceeds the observed kernel capability, so the apply pipeline
// can surface the precise cause, in the
// same spirit as the teacher's validation pass in
// pkg/config/config.go's Validate method.
package validate

import (
	"fmt"
	"strings"

	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// SecretStore resolves a previously stored secret for an interface
// field when the caller submits the sentinel string (spec §4.D,
// §6 "Secret sentinel"). The backend adapter is the only implementation
// in production; tests supply a map-backed fake.
type SecretStore interface {
	StoredSecret(ifaceName, field string) (string, bool)
}

// Validate runs every structural check against a merge Result and
// mutates ForApply records in place for the synthesis rules (SR-IOV
// placeholder VFs, MPTCP flag stripping, secret substitution).
func Validate(res *merge.Result, secrets SecretStore) error {
	log := logging.LoggerForBackend("validate")

	if err := validatePortReferences(res); err != nil {
		return err
	}
	if err := validateVRF(res); err != nil {
		return err
	}
	if err := validateLoopback(res); err != nil {
		return err
	}
	if err := validateOVSBondPorts(res); err != nil {
		return err
	}
	if err := validateBondFailOverMAC(res); err != nil {
		return err
	}
	if err := NormalizeBondOptions(res); err != nil {
		return err
	}
	if err := validateSRIOVCapability(res); err != nil {
		return err
	}
	synthesizeSRIOVPlaceholders(res)
	if err := validateMPTCP(res); err != nil {
		return err
	}
	substituteSecrets(res, secrets)

	log.Debug("validation complete", "interfaces", len(res.Interfaces))
	return nil
}

// validatePortReferences enforces "port references resolve; no port is
// claimed by two controllers; InfiniBand ports may join only a bond in
// active-backup mode" (spec §4.D).
func validatePortReferences(res *merge.Result) error {
	claimedBy := map[string]state.Key{}
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.IsAbsent() {
			continue
		}
		ports := portsOf(mi.ForApply)
		for _, port := range ports {
			portKey, ok := resolvePortKey(res, port)
			if !ok {
				return nmerror.InvalidArgument("controller %q references unknown port %q", key.Name, port)
			}
			if existing, claimed := claimedBy[port]; claimed && existing != key {
				return nmerror.InvalidArgument("port %q is claimed by both %q and %q", port, existing.Name, key.Name)
			}
			claimedBy[port] = key

			if portKey.Type == state.TypeInfiniBand && key.Type == state.TypeBond {
				if mi.ForApply.Bond == nil || mi.ForApply.Bond.Mode.OrElse("") != state.BondModeActiveBackup {
					return nmerror.InvalidArgument("infiniband port %q may only join a bond in active-backup mode", port)
				}
			}
		}
	}
	return nil
}

func portsOf(iface *state.Interface) []string {
	switch {
	case iface.Bond != nil:
		return iface.Bond.Port
	case iface.LinuxBridge != nil:
		names := make([]string, len(iface.LinuxBridge.Port))
		for i, p := range iface.LinuxBridge.Port {
			names[i] = p.Name
		}
		return names
	case iface.OVSBridge != nil:
		names := make([]string, len(iface.OVSBridge.Port))
		for i, p := range iface.OVSBridge.Port {
			names[i] = p.Name
		}
		return names
	case iface.VRF != nil:
		return iface.VRF.Port
	default:
		return nil
	}
}

func resolvePortKey(res *merge.Result, name string) (state.Key, bool) {
	for key, mi := range res.Interfaces {
		if key.Name == name && mi.ForApply != nil && !mi.ForApply.IsAbsent() {
			return key, true
		}
	}
	return state.Key{}, false
}

// validateVRF enforces "VRF ports exclude loopback-like interfaces;
// VRF table-id is present on creation" (spec §4.D).
func validateVRF(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.VRF == nil || mi.ForApply.IsAbsent() {
			continue
		}
		for _, port := range mi.ForApply.VRF.Port {
			if portKey, ok := resolvePortKey(res, port); ok && portKey.Type == state.TypeLoopback {
				return nmerror.InvalidArgument("vrf %q cannot include loopback-like interface %q", key.Name, port)
			}
		}
		if mi.Current == nil {
			if _, ok := mi.ForApply.VRF.TableID.Get(); !ok {
				return nmerror.InvalidArgument("vrf %q requires route-table-id on creation", key.Name)
			}
		}
	}
	return nil
}

// validateLoopback enforces "loopback cannot disable IPv4/IPv6 or
// request DHCP/autoconf" (spec §3 invariants).
func validateLoopback(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.IsAbsent() || mi.ForApply.Type != state.TypeLoopback {
			continue
		}
		for _, stack := range []struct {
			name  string
			block state.Opt[*state.IPBlock]
		}{
			{"ipv4", mi.ForApply.IPv4},
			{"ipv6", mi.ForApply.IPv6},
		} {
			block, ok := stack.block.Get()
			if !ok || block == nil {
				continue
			}
			if enabled, ok := block.Enabled.Get(); ok && !enabled {
				return nmerror.InvalidArgument("loopback %q cannot disable %s", key.Name, stack.name)
			}
			if dhcp, ok := block.Dhcp.Get(); ok && dhcp {
				return nmerror.InvalidArgument("loopback %q cannot request dhcp on %s", key.Name, stack.name)
			}
			if autoconf, ok := block.Autoconf.Get(); ok && autoconf {
				return nmerror.InvalidArgument("loopback %q cannot request autoconf on %s", key.Name, stack.name)
			}
		}
	}
	return nil
}

// validateSRIOVCapability enforces "SR-IOV total-vfs > 0 requires that
// the kernel advertises SR-IOV for that PF" (spec §3 invariants)
// against the most recently observed capability. An interface the
// observer has not yet reported on (mi.Current nil, or no prior
// sriov_totalvfs reading) carries no capability signal to check against
// and is left to the kernel itself to reject.
func validateSRIOVCapability(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.Ethernet == nil || mi.Current == nil || mi.Current.Ethernet == nil {
			continue
		}
		sriov, ok := mi.ForApply.Ethernet.SRIOV.Get()
		if !ok || sriov == nil {
			continue
		}
		total, ok := sriov.TotalVFs.Get()
		if !ok || total <= 0 {
			continue
		}
		curSriov, ok := mi.Current.Ethernet.SRIOV.Get()
		if !ok || curSriov == nil {
			continue
		}
		maxVFs, ok := curSriov.MaxVFs.Get()
		if !ok {
			continue
		}
		if total > maxVFs {
			return nmerror.New(nmerror.KindDependencyError, "interface %q requests total-vfs=%d but the kernel advertises a maximum of %d", key.Name, total, maxVFs)
		}
	}
	return nil
}

// validateOVSBondPorts enforces "OVS bond ports reference existing
// OVS-internal interfaces" (spec §4.D). The teacher's engine models an
// OVS bond as a bridge port list whose members must all be
// ovs-interface kind.
func validateOVSBondPorts(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.OVSBridge == nil {
			continue
		}
		for _, port := range mi.ForApply.OVSBridge.Port {
			portKey, ok := resolvePortKey(res, port.Name)
			if ok && portKey.Type != state.TypeOVSInterface {
				return nmerror.InvalidArgument("ovs-bridge %q port %q must be an ovs-interface, got %q", key.Name, port.Name, portKey.Type)
			}
		}
	}
	return nil
}

// validateBondFailOverMAC rejects an explicit MAC address on an
// active-backup bond whose fail_over_mac option is "active" (spec §8
// boundary scenario 2): with fail_over_mac=active the kernel assigns
// the MAC of whichever slave is currently active, so a caller-pinned
// MAC on the bond itself is contradictory.
func validateBondFailOverMAC(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.Bond == nil {
			continue
		}
		if mi.ForApply.Bond.Mode.OrElse("") != state.BondModeActiveBackup {
			continue
		}
		opts, ok := mi.ForApply.Bond.Options.Get()
		if !ok || opts["fail_over_mac"] != "active" {
			continue
		}
		if _, ok := mi.ForApply.MACAddress.Get(); ok {
			return nmerror.InvalidArgument("bond %q cannot set an explicit mac-address with mode active-backup and fail_over_mac=active", key.Name)
		}
	}
	return nil
}

// NormalizeBondOptions resolves the arp_interval/arp_ip_target coupling
// (spec §9 Open Question, decided): clearing arp_interval to "0" also
// clears arp_ip_target, since a zero interval disables ARP monitoring
// entirely and a leftover target list is meaningless; setting a
// non-zero arp_interval without an arp_ip_target is rejected, since the
// kernel bonding driver requires at least one monitored target for ARP
// monitoring to do anything.
func NormalizeBondOptions(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.Bond == nil {
			continue
		}
		opts, ok := mi.ForApply.Bond.Options.Get()
		if !ok || opts == nil {
			continue
		}
		interval, hasInterval := opts["arp_interval"]
		_, hasTarget := opts["arp_ip_target"]

		if hasInterval && interval == "0" {
			delete(opts, "arp_ip_target")
			continue
		}
		if hasInterval && interval != "0" && !hasTarget {
			return nmerror.InvalidArgument("bond %q sets arp_interval=%s without arp_ip_target", key.Name, interval)
		}
	}
	return nil
}

// synthesizeSRIOVPlaceholders implements "if total-vfs increases, a
// placeholder VF entry is synthesised so verification can wait for
// kernel enumeration" (spec §4.D).
func synthesizeSRIOVPlaceholders(res *merge.Result) {
	for _, mi := range res.Interfaces {
		if mi.ForApply == nil || mi.ForApply.Ethernet == nil {
			continue
		}
		sriov, ok := mi.ForApply.Ethernet.SRIOV.Get()
		if !ok || sriov == nil {
			continue
		}
		total, ok := sriov.TotalVFs.Get()
		if !ok {
			continue
		}
		currentTotal := 0
		if mi.Current != nil && mi.Current.Ethernet != nil {
			if cs, ok := mi.Current.Ethernet.SRIOV.Get(); ok && cs != nil {
				currentTotal = cs.TotalVFs.OrElse(0)
			}
		}
		if total <= currentTotal {
			continue
		}
		seen := map[int]bool{}
		for _, vf := range sriov.VFs {
			seen[vf.ID] = true
		}
		for id := 0; id < total; id++ {
			if !seen[id] {
				sriov.VFs = append(sriov.VFs, state.SRIOVVF{ID: id, Name: sriovVFName(mi.Key.Name, id)})
			}
		}
	}
}

// sriovVFName derives a synthesised VF interface name from its PF and
// index, the placeholder identity verify checks for in observed state
// once the kernel finishes enumerating it (spec §4.F step 8).
func sriovVFName(pfName string, id int) string {
	return fmt.Sprintf("%sv%d", pfName, id)
}

// validateMPTCP enforces "enforce exclusivity; strip per-address flags
// on apply (backend applies them interface-wide)" (spec §4.D).
func validateMPTCP(res *merge.Result) error {
	for key, mi := range res.Interfaces {
		if mi.ForApply == nil {
			continue
		}
		flags, ok := mi.ForApply.MPTCP.Get()
		if ok {
			hasSignal, hasFullmesh := false, false
			for _, f := range flags {
				hasSignal = hasSignal || f == state.MPTCPSignal
				hasFullmesh = hasFullmesh || f == state.MPTCPFullmesh
			}
			if hasSignal && hasFullmesh {
				return nmerror.InvalidArgument("interface %q: mptcp signal and fullmesh flags are mutually exclusive", key.Name)
			}
		}
		stripAddressMPTCPFlags(mi.ForApply.IPv4)
		stripAddressMPTCPFlags(mi.ForApply.IPv6)
	}
	return nil
}

func stripAddressMPTCPFlags(block state.Opt[*state.IPBlock]) {
	b, ok := block.Get()
	if !ok || b == nil {
		return
	}
	for i := range b.Address {
		b.Address[i].MPTCPFlags = state.Opt[[]state.MPTCPFlag]{}
	}
}

// substituteSecrets implements the IEEE 802.1x sentinel-substitution
// rule (spec §4.D, §6 "Secret sentinel"): when a caller submits the
// reserved placeholder, the previously stored secret is reused instead.
func substituteSecrets(res *merge.Result, secrets SecretStore) {
	if secrets == nil {
		return
	}
	for _, mi := range res.Interfaces {
		if mi.ForApply == nil || !mi.ForApply.IEEE8021X.Set {
			continue
		}
		auth, ok := mi.ForApply.IEEE8021X.Get()
		if !ok || auth == nil {
			continue
		}
		substituteIfSentinel(&auth.PrivateKeyPassword, mi.Key.Name, "private-key-password", secrets)
		substituteIfSentinel(&auth.Password, mi.Key.Name, "password", secrets)
	}
}

func substituteIfSentinel(field *state.Opt[string], ifaceName, fieldName string, secrets SecretStore) {
	v, ok := field.Get()
	if !ok || v != logging.SecretSentinel {
		return
	}
	if stored, found := secrets.StoredSecret(ifaceName, fieldName); found {
		*field = state.Some(stored)
	}
}

// FormatPortList is a small helper used by error messages and tests to
// render a port list deterministically.
func FormatPortList(ports []string) string {
	return strings.Join(ports, ", ")
}
