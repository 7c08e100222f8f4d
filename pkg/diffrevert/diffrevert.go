// Package diffrevert implements component H: the gen_diff and
// generate_revert tree walkers of spec §4.H, operating on a generic
// JSON-like value tree (map[string]interface{}, []interface{}, and
// scalars) so they work uniformly over decoded NetworkState documents.
package diffrevert

import "reflect"

// Diff computes the minimal subtree of newVal that differs from
// oldVal (spec §4.H "gen_diff"). Absent fields on either side
// propagate: a key present only in newVal is kept as-is; a key present
// only in oldVal is omitted (it is not part of "new"). Arrays of equal
// length are compared element-wise; a length change or any differing
// element yields the whole new array.
func Diff(newVal, oldVal interface{}) interface{} {
	newMap, newIsMap := newVal.(map[string]interface{})
	oldMap, oldIsMap := oldVal.(map[string]interface{})
	if newIsMap && oldIsMap {
		out := map[string]interface{}{}
		for k, nv := range newMap {
			ov, existed := oldMap[k]
			if !existed {
				out[k] = nv
				continue
			}
			if d := Diff(nv, ov); d != nil {
				out[k] = d
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	newArr, newIsArr := newVal.([]interface{})
	oldArr, oldIsArr := oldVal.([]interface{})
	if newIsArr && oldIsArr {
		if len(newArr) != len(oldArr) {
			return newArr
		}
		diffArr := make([]interface{}, len(newArr))
		changed := false
		for i := range newArr {
			d := Diff(newArr[i], oldArr[i])
			diffArr[i] = d
			if d != nil {
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return newArr
	}

	if reflect.DeepEqual(newVal, oldVal) {
		return nil
	}
	return newVal
}

// AbsentState is the sentinel value GenerateRevert emits for fields
// that must be removed to restore current state (e.g. an interface
// revert sets state: absent).
const AbsentState = "absent"

// GenerateRevert computes the subtree that, applied on top of the
// post-apply state, restores current (spec §4.H "generate_revert").
// For keys added by desired (present in desired, absent in current),
// revert marks them for removal using the caller-supplied
// removalMarker (typically {"state": "absent"} for interfaces, or the
// absent specimen form for routes/rules); for modified scalars, revert
// emits the previous value; for keys only in current (dropped by
// desired), revert re-emits them verbatim so they come back.
func GenerateRevert(desired, current interface{}, removalMarker interface{}) interface{} {
	desiredMap, desiredIsMap := desired.(map[string]interface{})
	currentMap, currentIsMap := current.(map[string]interface{})

	if desiredIsMap && currentIsMap {
		out := map[string]interface{}{}
		for k, dv := range desiredMap {
			cv, existed := currentMap[k]
			if !existed {
				out[k] = removalMarker
				continue
			}
			if r := GenerateRevert(dv, cv, removalMarker); r != nil {
				out[k] = r
			}
		}
		for k, cv := range currentMap {
			if _, existed := desiredMap[k]; !existed {
				out[k] = cv
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	if reflect.DeepEqual(desired, current) {
		return nil
	}
	return current
}
