package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

func resultWith(ifaces ...*merge.MergedInterface) *merge.Result {
	res := &merge.Result{Interfaces: map[state.Key]*merge.MergedInterface{}}
	for _, mi := range ifaces {
		res.Interfaces[mi.Key] = mi
	}
	return res
}

func TestValidatePortReferencesUnknownPort(t *testing.T) {
	bond := &state.Interface{BaseInterface: state.BaseInterface{Name: "bond0", Type: state.TypeBond, State: state.StateUp}}
	bond.Bond = &state.BondConfig{Port: []string{"eth0"}}
	mi := &merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond0"}, ForApply: bond}

	err := Validate(resultWith(mi), nil)
	if err == nil {
		t.Fatal("expected error for unresolved port reference")
	}
	var e *nmerror.Error
	if !errors.As(err, &e) || e.Kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestValidatePortClaimedByTwoControllers(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	bond0 := &state.Interface{BaseInterface: state.BaseInterface{Name: "bond0", Type: state.TypeBond, State: state.StateUp}}
	bond0.Bond = &state.BondConfig{Port: []string{"eth0"}}
	bond1 := &state.Interface{BaseInterface: state.BaseInterface{Name: "bond1", Type: state.TypeBond, State: state.StateUp}}
	bond1.Bond = &state.BondConfig{Port: []string{"eth0"}}

	res := resultWith(
		&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth},
		&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond0"}, ForApply: bond0},
		&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond1"}, ForApply: bond1},
	)
	if err := Validate(res, nil); err == nil {
		t.Fatal("expected error for port claimed by two controllers")
	}
}

func TestValidateMPTCPExclusivity(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "eth0", Type: state.TypeEthernet, State: state.StateUp,
		MPTCP: state.Some([]state.MPTCPFlag{state.MPTCPSignal, state.MPTCPFullmesh}),
	}}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth})
	if err := Validate(res, nil); err == nil {
		t.Fatal("expected mptcp exclusivity error")
	}
}

func TestSRIOVPlaceholderSynthesis(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	eth.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{TotalVFs: state.Some(2)})}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth})

	if err := Validate(res, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sriov, _ := eth.Ethernet.SRIOV.Get()
	if len(sriov.VFs) != 2 {
		t.Fatalf("expected 2 synthesised VF placeholders, got %d", len(sriov.VFs))
	}
	for _, vf := range sriov.VFs {
		if vf.Name != fmt.Sprintf("eth0v%d", vf.ID) {
			t.Errorf("expected synthesised vf name eth0v%d, got %q", vf.ID, vf.Name)
		}
	}
}

func TestSRIOVCapabilityRejectsRequestAboveObservedMax(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	eth.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{TotalVFs: state.Some(8)})}
	current := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	current.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{MaxVFs: state.Some(4)})}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth, Current: current})

	err := Validate(res, nil)
	if err == nil {
		t.Fatal("expected a dependency error for total-vfs exceeding observed kernel capability")
	}
	var e *nmerror.Error
	if !errors.As(err, &e) || e.Kind != nmerror.KindDependencyError {
		t.Errorf("expected DependencyError, got %v", err)
	}
}

func TestSRIOVCapabilityAllowedWithinObservedMax(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	eth.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{TotalVFs: state.Some(2)})}
	current := &state.Interface{BaseInterface: state.BaseInterface{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp}}
	current.Ethernet = &state.EthernetConfig{SRIOV: state.Some(&state.SRIOVConfig{MaxVFs: state.Some(4)})}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth, Current: current})

	if err := Validate(res, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoopbackRejectsDisabledIPv4(t *testing.T) {
	lo := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "lo", Type: state.TypeLoopback, State: state.StateUp,
		IPv4: state.Some(&state.IPBlock{Enabled: state.Some(false)}),
	}}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeLoopback, Name: "lo"}, ForApply: lo})

	err := Validate(res, nil)
	if err == nil {
		t.Fatal("expected error for disabling ipv4 on loopback")
	}
	var e *nmerror.Error
	if !errors.As(err, &e) || e.Kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestValidateLoopbackRejectsDHCP(t *testing.T) {
	lo := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "lo", Type: state.TypeLoopback, State: state.StateUp,
		IPv4: state.Some(&state.IPBlock{Dhcp: state.Some(true)}),
	}}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeLoopback, Name: "lo"}, ForApply: lo})

	if err := Validate(res, nil); err == nil {
		t.Fatal("expected error for requesting dhcp on loopback")
	}
}

func TestValidateLoopbackAllowsPlainUp(t *testing.T) {
	lo := &state.Interface{BaseInterface: state.BaseInterface{Name: "lo", Type: state.TypeLoopback, State: state.StateUp}}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeLoopback, Name: "lo"}, ForApply: lo})

	if err := Validate(res, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeBondOptionsClearsTargetWhenIntervalZero(t *testing.T) {
	bond := &state.Interface{BaseInterface: state.BaseInterface{Name: "bond0", Type: state.TypeBond, State: state.StateUp}}
	bond.Bond = &state.BondConfig{Options: state.Some(map[string]string{
		"arp_interval":  "0",
		"arp_ip_target": "192.0.2.1",
	})}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond0"}, ForApply: bond})

	if err := Validate(res, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts, _ := bond.Bond.Options.Get()
	if _, ok := opts["arp_ip_target"]; ok {
		t.Error("expected arp_ip_target to be cleared when arp_interval is 0")
	}
}

func TestNormalizeBondOptionsRejectsIntervalWithoutTarget(t *testing.T) {
	bond := &state.Interface{BaseInterface: state.BaseInterface{Name: "bond0", Type: state.TypeBond, State: state.StateUp}}
	bond.Bond = &state.BondConfig{Options: state.Some(map[string]string{
		"arp_interval": "100",
	})}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond0"}, ForApply: bond})

	err := Validate(res, nil)
	if err == nil {
		t.Fatal("expected error for arp_interval without arp_ip_target")
	}
	var e *nmerror.Error
	if !errors.As(err, &e) || e.Kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestValidateBondFailOverMACRejectsExplicitMAC(t *testing.T) {
	bond := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "bond99", Type: state.TypeBond, State: state.StateUp,
		MACAddress: state.Some("00:01:02:03:04:05"),
	}}
	bond.Bond = &state.BondConfig{
		Mode:    state.Some(state.BondModeActiveBackup),
		Options: state.Some(map[string]string{"fail_over_mac": "active"}),
	}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond99"}, ForApply: bond})

	err := Validate(res, nil)
	if err == nil {
		t.Fatal("expected error for explicit mac-address with fail_over_mac=active")
	}
	var e *nmerror.Error
	if !errors.As(err, &e) || e.Kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestValidateBondBalanceRRAllowsExplicitMAC(t *testing.T) {
	bond := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "bond99", Type: state.TypeBond, State: state.StateUp,
		MACAddress: state.Some("00:01:02:03:04:05"),
	}}
	bond.Bond = &state.BondConfig{Mode: state.Some(state.BondModeRoundRobin)}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeBond, Name: "bond99"}, ForApply: bond})

	if err := Validate(res, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeSecretStore map[string]string

func (f fakeSecretStore) StoredSecret(ifaceName, field string) (string, bool) {
	v, ok := f[ifaceName+"/"+field]
	return v, ok
}

func TestSecretSentinelSubstitution(t *testing.T) {
	eth := &state.Interface{BaseInterface: state.BaseInterface{
		Name: "eth0", Type: state.TypeEthernet, State: state.StateUp,
		IEEE8021X: state.Some(&state.IEEE8021X{Password: state.Some("<_password_hid_by_nmstate>")}),
	}}
	res := resultWith(&merge.MergedInterface{Key: state.Key{Type: state.TypeEthernet, Name: "eth0"}, ForApply: eth})
	secrets := fakeSecretStore{"eth0/password": "s3cr3t"}

	if err := Validate(res, secrets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	auth, _ := eth.IEEE8021X.Get()
	if got, _ := auth.Password.Get(); got != "s3cr3t" {
		t.Errorf("expected stored secret substituted, got %q", got)
	}
}
