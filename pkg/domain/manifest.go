package domain

// Manifest is the serializable description of a blueprint. Impl names the Go
// implementation (registered in pkg/registry) that supplies its handlers.
type Manifest struct {
	Name        string             `json:"name" yaml:"name" mapstructure:"name"`
	Impl        string             `json:"impl" yaml:"impl" mapstructure:"impl"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Singleton   bool               `json:"singleton,omitempty" yaml:"singleton,omitempty" mapstructure:"singleton"`
	Describe    map[string][]Param `json:"describe,omitempty" yaml:"describe,omitempty" mapstructure:"describe"`
	// Metadata is free-form and never interpreted by the runtime.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// PhaseDescribe converts the manifest's describe block into a Describe.
func (m *Manifest) PhaseDescribe() Describe {
	if len(m.Describe) == 0 {
		return nil
	}
	out := make(Describe, len(m.Describe))
	for phase, params := range m.Describe {
		out[Phase(phase)] = params
	}
	return out
}
