package merge

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nmstate/nmstate-engine/pkg/state"
)

// TestProperty_IdentityMergeKeepsDesiredValues verifies the identity
// merge property (spec §8): merging a desired state against an
// identical current state reproduces every desired scalar in
// for_apply, for any MTU value and interface count.
func TestProperty_IdentityMergeKeepsDesiredValues(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("desired == current merge reproduces desired MTU for every interface", prop.ForAll(
		func(n, mtu int) bool {
			var desired, current []state.Interface
			for i := 0; i < n; i++ {
				d := iface("eth"+strconv.Itoa(i), state.TypeEthernet, state.StateUp)
				d.MTU = state.Some(mtu)
				c := iface("eth"+strconv.Itoa(i), state.TypeEthernet, state.StateUp)
				c.MTU = state.Some(mtu)
				desired = append(desired, d)
				current = append(current, c)
			}
			res, err := New().Merge(
				&state.NetworkState{Interfaces: desired},
				&state.NetworkState{Interfaces: current},
			)
			if err != nil {
				t.Logf("unexpected error: %v", err)
				return false
			}
			if len(res.Interfaces) != n {
				t.Logf("expected %d merged interfaces, got %d", n, len(res.Interfaces))
				return false
			}
			for _, mi := range res.Interfaces {
				got, ok := mi.ForApply.MTU.Get()
				if !ok || got != mtu {
					t.Logf("expected for_apply MTU %d, got %v (ok=%v)", mtu, got, ok)
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 6),
		gen.IntRange(68, 9000),
	))

	properties.TestingRun(t)
}
