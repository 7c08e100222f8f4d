package classify

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

func chainResult(n int) *merge.Result {
	res := &merge.Result{Interfaces: map[state.Key]*merge.MergedInterface{}}
	prev := ""
	for i := 0; i < n; i++ {
		name := string(rune('a' + i))
		iface := up(name, state.TypeLinuxBridge)
		if prev != "" {
			iface.ControllerName = state.Some(prev)
			iface.ControllerType = state.Some(state.TypeLinuxBridge)
		}
		key := state.Key{Type: state.TypeLinuxBridge, Name: name}
		res.Interfaces[key] = mi(key, iface, nil)
		prev = name
	}
	return res
}

// TestProperty_ControllerChainOrdersParentBeforeChild verifies that any
// controller chain within the nesting bound is classified in
// parent-before-child order (spec §4.E ordering, §8 "ordering").
func TestProperty_ControllerChainOrdersParentBeforeChild(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("controller chain up to the nesting bound orders parent before child", prop.ForAll(
		func(n int) bool {
			plan, err := Classify(chainResult(n))
			if err != nil {
				t.Logf("unexpected error for chain of %d: %v", n, err)
				return false
			}
			if len(plan.Add) != n {
				t.Logf("expected %d entries, got %d", n, len(plan.Add))
				return false
			}
			for i, entry := range plan.Add {
				if entry.Key.Name != string(rune('a'+i)) {
					t.Logf("expected %q at position %d, got %q", string(rune('a'+i)), i, entry.Key.Name)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, MaxDepth),
	))

	properties.TestingRun(t)
}

// TestProperty_ControllerChainBeyondBoundFails verifies the nesting
// bound is enforced for every chain length past it (spec §4.E, §8
// "nesting bound").
func TestProperty_ControllerChainBeyondBoundFails(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("a chain past the nesting bound is rejected", prop.ForAll(
		func(extra int) bool {
			_, err := Classify(chainResult(MaxDepth + 1 + extra))
			return err != nil
		},
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
