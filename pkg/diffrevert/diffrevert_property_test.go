package diffrevert

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// flatMap builds a deterministic n-key flat map of scalar ints from a
// seed, used to generate both a "new"/"desired" and an "old"/"current"
// tree with overlapping keys.
func flatMap(seed, n int) map[string]interface{} {
	out := map[string]interface{}{}
	for i := 0; i < n; i++ {
		out["k"+strconv.Itoa(i)] = seed + i
	}
	return out
}

// applyPatch merges a flat diff patch on top of a flat base map, the
// inverse of Diff for the single-level scalar maps these properties
// generate.
func applyPatch(base map[string]interface{}, patch interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range base {
		out[k] = v
	}
	if patchMap, ok := patch.(map[string]interface{}); ok {
		for k, v := range patchMap {
			out[k] = v
		}
	}
	return out
}

// TestProperty_DiffIdentityIsNil verifies the identity-merge property
// (spec §8): diffing a tree against itself yields no changes.
func TestProperty_DiffIdentityIsNil(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Diff(v, v) is nil", prop.ForAll(
		func(seed, n int) bool {
			v := flatMap(seed, n)
			return Diff(v, v) == nil
		},
		gen.IntRange(-100, 100),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// TestProperty_DiffRoundTrip verifies that applying the computed diff
// on top of the old tree reconstructs the new tree (spec §8 "diff
// round-trip").
func TestProperty_DiffRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("applying Diff(new, old) onto old reconstructs new", prop.ForAll(
		func(newSeed, oldSeed, n int) bool {
			newVal := flatMap(newSeed, n)
			oldVal := flatMap(oldSeed, n)
			patched := applyPatch(oldVal, Diff(newVal, oldVal))
			if len(patched) != len(newVal) {
				return false
			}
			for k, v := range newVal {
				if patched[k] != v {
					return false
				}
			}
			return true
		},
		gen.IntRange(-50, 50),
		gen.IntRange(-50, 50),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// TestProperty_GenerateRevertRoundTrip verifies that applying the
// generated revert on top of desired reconstructs current for every key
// shared between the two, and marks dropped keys for removal (spec §8
// "revert round-trip").
func TestProperty_GenerateRevertRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("applying GenerateRevert(desired, current) onto desired reconstructs current", prop.ForAll(
		func(desiredSeed, currentSeed, n int) bool {
			desired := flatMap(desiredSeed, n)
			current := flatMap(currentSeed, n)
			revert := GenerateRevert(desired, current, AbsentState)
			patched := applyPatch(desired, revert)
			for k, v := range current {
				if patched[k] != v {
					return false
				}
			}
			return true
		},
		gen.IntRange(-50, 50),
		gen.IntRange(-50, 50),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
