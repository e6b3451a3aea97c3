package domain

import (
	"fmt"
	"strings"
)

// Param describes one positional parameter of a blueprint phase.
type Param struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	// Type is an optional schema type ("string", "int", "[string]", ...).
	Type string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

// Describe maps each phase to its ordered parameter list.
// Positional arguments are matched to names by position.
type Describe map[Phase][]Param

// Params returns the parameters declared for a phase (nil when none).
func (d Describe) Params(phase Phase) []Param {
	if d == nil {
		return nil
	}
	return d[phase]
}

// InitFunc prepares a working copy. It must call done exactly once.
type InitFunc func(props Props, done func(error))

// InputFunc handles data arriving through a "to" pipe.
// It either returns a settled Result, returns Await(promise), or returns Pending()
// and later signals through done or the Step.
type InputFunc func(step Step, data any, props Props, done Callback) Result

// EventFunc starts a flow. It may signal through the Step any number of times.
type EventFunc func(step Step, props Props)

// Definition is the executable form of a blueprint.
type Definition struct {
	Name      string
	Describe  Describe
	Init      InitFunc
	In        InputFunc
	On        EventFunc
	Singleton bool
}

// NodeState is the coarse lifecycle position of a blueprint.
type NodeState int

const (
	// StateStub means the definition has not been loaded yet.
	StateStub NodeState = iota
	// StateLoaded means the definition is known but Init has not completed.
	StateLoaded
	// StateInitialized means the blueprint is idle and ready to run.
	StateInitialized
	// StateProcessing means the blueprint owns a built flow that has not finished.
	StateProcessing
)

func (s NodeState) String() string {
	switch s {
	case StateStub:
		return "stub"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ref is a normalized blueprint reference.
type Ref struct {
	Protocol string
	Name     string
}

// ParseRef normalizes a blueprint name: surrounding space is trimmed, the name is
// lower-cased and an optional "protocol://" prefix is split off.
func ParseRef(raw string) Ref {
	name := strings.ToLower(strings.TrimSpace(raw))
	if proto, rest, ok := strings.Cut(name, "://"); ok {
		return Ref{Protocol: proto, Name: strings.Trim(rest, "/")}
	}
	return Ref{Name: name}
}

func (r Ref) String() string {
	if r.Protocol == "" {
		return r.Name
	}
	return r.Protocol + "://" + r.Name
}
