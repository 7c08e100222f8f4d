package apply

import (
	"testing"

	"github.com/nmstate/nmstate-engine/pkg/classify"
	"github.com/nmstate/nmstate-engine/pkg/decode"
	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
	"github.com/nmstate/nmstate-engine/pkg/validate"
)

// These scenarios are the literal-YAML boundary cases of spec §8,
// driven end to end through decode -> merge -> validate -> classify.

func TestScenarioBondBalancedRRWithExplicitMACIsAccepted(t *testing.T) {
	desired, err := decode.ParseString(`
interfaces:
- name: bond99
  type: bond
  state: up
  mac-address: "00:01:02:03:04:05"
  bond:
    mode: balance-rr
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	merged, err := merge.New().Merge(desired, &state.NetworkState{})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := validate.Validate(merged, nil); err != nil {
		t.Fatalf("expected balance-rr bond with explicit mac to be accepted, got %v", err)
	}
}

func TestScenarioBondActiveBackupFailOverMACWithExplicitMACIsRejected(t *testing.T) {
	desired, err := decode.ParseString(`
interfaces:
- name: bond99
  type: bond
  state: up
  mac-address: "00:01:02:03:04:05"
  bond:
    mode: active-backup
    options:
      fail_over_mac: active
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	merged, err := merge.New().Merge(desired, &state.NetworkState{})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	err = validate.Validate(merged, nil)
	if err == nil {
		t.Fatal("expected explicit mac-address with fail_over_mac=active to be rejected")
	}
	if kind, ok := nmerror.KindOf(err); !ok || kind != nmerror.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestScenarioInfiniBandParentRemovalTakesPkeyChildWithIt(t *testing.T) {
	current := &state.NetworkState{Interfaces: []state.Interface{
		{BaseInterface: state.BaseInterface{Name: "mlx5_ib2", Type: state.TypeInfiniBand, State: state.StateUp}},
		{
			BaseInterface: state.BaseInterface{Name: "mlx5_ib2.8001", Type: state.TypeInfiniBand, State: state.StateUp},
			InfiniBand: &state.InfiniBandConfig{
				Pkey: state.Some(&state.InfiniBandPkey{BaseIface: "mlx5_ib2", Pkey: "0x8001"}),
			},
		},
	}}

	desired, err := decode.ParseString(`
interfaces:
- name: mlx5_ib2
  type: infiniband
  state: absent
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	merged, err := merge.New().Merge(desired, current)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	plan, err := classify.Classify(merged)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(plan.Delete) != 2 {
		t.Fatalf("expected both infiniband base and pkey child marked for delete, got %+v", plan.Delete)
	}
}

func TestScenarioOVSDBExternalIDsPartialUpdate(t *testing.T) {
	current := &state.NetworkState{
		OVSDB: state.Some(&state.OVSDBGlobal{
			ExternalIDs: state.Some(state.StringMap{
				"a": state.SetString("A0"),
				"b": state.SetString("B0"),
				"c": state.SetString("C0"),
				"h": state.SetString("H0"),
			}),
		}),
	}
	desired, err := decode.ParseString(`
ovs-db:
  external_ids:
    a: A
    b: B
    c: null
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	merged, err := merge.New().Merge(desired, current)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	got, _ := merged.OVSDB.ExternalIDs.Get()
	want := map[string]string{"a": "A", "b": "B", "h": "H0"}
	if len(got) != len(want) {
		t.Fatalf("expected %d merged external-ids, got %+v", len(want), got)
	}
	for k, v := range want {
		p, ok := got[k]
		if !ok || p == nil || *p != v {
			t.Errorf("expected external-id %q=%q, got %v", k, v, p)
		}
	}
}
