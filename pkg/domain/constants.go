package domain

// Phase names a blueprint handler. Describe manifests are keyed by phase.
type Phase string

const (
	// PhaseInit runs once per working copy, before the copy joins a flow.
	PhaseInit Phase = "init"
	// PhaseIn receives data flowing through a "to" pipe.
	PhaseIn Phase = "in"
	// PhaseOn starts a flow from a "from" pipe (event source).
	PhaseOn Phase = "on"
)

// Phases lists the phases accepted in a describe manifest.
var Phases = []Phase{PhaseInit, PhaseIn, PhaseOn}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// Direction is the orientation of a pipe relative to its owner.
type Direction string

const (
	// DirectionTo appends the target to the owner's ordered flow.
	DirectionTo Direction = "to"
	// DirectionFrom registers the target as an event source of the owner.
	DirectionFrom Direction = "from"
)

// Well-known protocols understood by the default loader.
const (
	ProtocolMemory = "mem"
	ProtocolFile   = "file"
	ProtocolHTTP   = "http"
	ProtocolRedis  = "redis"
)
