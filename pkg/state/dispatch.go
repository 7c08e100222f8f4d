package state

// DispatchTypeDef is a global dispatch-type registry entry: it names the
// activation/deactivation script templates and the variable names a
// per-interface DispatchInstance is allowed to bind (spec §3
// "Dispatch").
type DispatchTypeDef struct {
	Kind               string   `yaml:"kind" json:"kind"`
	ActivationScript   string   `yaml:"activation-script" json:"activation-script"`
	DeactivationScript string   `yaml:"deactivation-script" json:"deactivation-script"`
	AllowedVariables   []string `yaml:"allowed-variables,omitempty" json:"allowed-variables,omitempty"`
}

// DispatchConfig is the document's top-level `dispatch` block: the
// registry of DispatchTypeDef entries referenced by interfaces'
// DispatchInstance.Kind.
type DispatchConfig struct {
	Types []DispatchTypeDef `yaml:"types,omitempty" json:"types,omitempty"`
}

// Lookup returns the DispatchTypeDef for kind, or nil.
func (d *DispatchConfig) Lookup(kind string) *DispatchTypeDef {
	if d == nil {
		return nil
	}
	for i := range d.Types {
		if d.Types[i].Kind == kind {
			return &d.Types[i]
		}
	}
	return nil
}
