package state

import "gopkg.in/yaml.v3"

// Opt is a sparse-update optional field (spec §4.A, §9). The caller's
// document distinguishes "key absent" (keep current value) from "key
// present" (Merger takes the caller's value); Opt's zero value is
// "absent" so that a struct literal built without touching a field
// behaves correctly under the Merger's sparse-update rule (spec §4.C.3).
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some wraps a present value.
func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, Value: v} }

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) { return o.Value, o.Set }

// OrElse returns the value if set, else fallback.
func (o Opt[T]) OrElse(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// UnmarshalYAML decodes directly into the inner value and marks the
// field present. Absent keys never invoke this method, so Set stays
// false for fields the caller's document omits entirely.
func (o *Opt[T]) UnmarshalYAML(value *yaml.Node) error {
	var v T
	if err := value.Decode(&v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}

// MarshalYAML emits the raw value. Callers tag Opt fields with
// `yaml:"name,omitempty"`; go-yaml's omitempty check treats the zero
// Opt{} (Set=false) as empty and drops the key entirely, which is what
// gives us "absent" on the wire.
func (o Opt[T]) MarshalYAML() (interface{}, error) {
	if !o.Set {
		return nil, nil
	}
	return o.Value, nil
}

// IsZero lets go-yaml's omitempty recognise an absent Opt regardless of
// what T is, since the zero-value check is otherwise purely structural.
func (o Opt[T]) IsZero() bool { return !o.Set }
