package loam

// ManifestMetadata is the frontmatter of a blueprint manifest document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type ManifestMetadata struct {
	Name        string `json:"name" mapstructure:"name"`
	Impl        string `json:"impl" mapstructure:"impl"`
	Description string `json:"description" mapstructure:"description"`
	Singleton   bool   `json:"singleton" mapstructure:"singleton"`

	// Describe maps a phase to its params. Each param is either a bare name
	// or a {name, type, description} map.
	Describe map[string][]any `json:"describe" mapstructure:"describe"`

	// General Metadata
	Metadata map[string]any `json:"metadata" mapstructure:"metadata"`
}
