package diffrevert

import (
	"reflect"
	"testing"
)

func TestDiffScalarChange(t *testing.T) {
	newVal := map[string]interface{}{"mtu": 9000, "name": "eth0"}
	oldVal := map[string]interface{}{"mtu": 1500, "name": "eth0"}
	got := Diff(newVal, oldVal)
	want := map[string]interface{}{"mtu": 9000}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiffNoChange(t *testing.T) {
	v := map[string]interface{}{"mtu": 1500}
	if got := Diff(v, v); got != nil {
		t.Errorf("expected nil diff for identical trees, got %v", got)
	}
}

func TestDiffArrayLengthMismatch(t *testing.T) {
	newVal := []interface{}{"a", "b", "c"}
	oldVal := []interface{}{"a", "b"}
	got := Diff(newVal, oldVal)
	if !reflect.DeepEqual(got, newVal) {
		t.Errorf("expected wholesale array replacement, got %v", got)
	}
}

func TestGenerateRevertAddedInterfaceBecomesAbsent(t *testing.T) {
	desired := map[string]interface{}{"name": "eth0", "mtu": 9000}
	current := map[string]interface{}{}
	got := GenerateRevert(desired, current, AbsentState)
	want := map[string]interface{}{"name": AbsentState, "mtu": AbsentState}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGenerateRevertModifiedFieldRestoresPrevious(t *testing.T) {
	desired := map[string]interface{}{"mtu": 9000}
	current := map[string]interface{}{"mtu": 1500}
	got := GenerateRevert(desired, current, AbsentState)
	want := map[string]interface{}{"mtu": 1500}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGenerateRevertDroppedFieldReemitted(t *testing.T) {
	desired := map[string]interface{}{}
	current := map[string]interface{}{"mtu": 1500}
	got := GenerateRevert(desired, current, AbsentState)
	want := map[string]interface{}{"mtu": 1500}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
