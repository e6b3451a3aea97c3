package dsl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Engine is the part of the engine a pipeline is wired onto.
type Engine interface {
	Blueprint(name string) *runtime.Blueprint
}

// Step is one pipe of a pipeline. Exactly one of To, From, ToValue and
// FromValue is set.
type Step struct {
	To        string `yaml:"to,omitempty"`
	From      string `yaml:"from,omitempty"`
	ToValue   any    `yaml:"to_value,omitempty"`
	FromValue any    `yaml:"from_value,omitempty"`
	// Params are the pipe's positional arguments.
	Params []any `yaml:"params,omitempty"`
	// New asks for a fresh working copy of the target, constructed with these args.
	New []any `yaml:"new,omitempty"`
}

// Direction reports whether the step is a "to" or a "from" pipe.
func (s Step) Direction() domain.Direction {
	if s.From != "" || s.FromValue != nil {
		return domain.DirectionFrom
	}
	return domain.DirectionTo
}

func (s Step) validate() error {
	set := 0
	for _, ok := range []bool{s.To != "", s.From != "", s.ToValue != nil, s.FromValue != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of to, from, to_value, from_value is required")
	}
	if len(s.New) > 0 && s.To == "" && s.From == "" {
		return errors.New("new only applies to blueprint targets")
	}
	return nil
}

// Pipeline is a named flow owned by one blueprint.
type Pipeline struct {
	Name  string `yaml:"name"`
	Owner string `yaml:"owner"`
	// Args constructs a fresh owner copy when set.
	Args  []any  `yaml:"args,omitempty"`
	Steps []Step `yaml:"steps"`
}

// NewPipeline starts a pipeline owned by the owner blueprint.
func NewPipeline(name, owner string) *Pipeline {
	return &Pipeline{Name: name, Owner: owner}
}

// WithArgs sets the owner's construction args.
func (p *Pipeline) WithArgs(args ...any) *Pipeline {
	p.Args = args
	return p
}

// To appends a pipe into the named blueprint.
func (p *Pipeline) To(blueprint string, params ...any) *Pipeline {
	p.Steps = append(p.Steps, Step{To: blueprint, Params: params})
	return p
}

// From appends an event source pipe from the named blueprint.
func (p *Pipeline) From(blueprint string, params ...any) *Pipeline {
	p.Steps = append(p.Steps, Step{From: blueprint, Params: params})
	return p
}

// ToValue appends a pipe into a constant.
func (p *Pipeline) ToValue(v any) *Pipeline {
	p.Steps = append(p.Steps, Step{ToValue: v})
	return p
}

// FromValue appends a constant event source.
func (p *Pipeline) FromValue(v any) *Pipeline {
	p.Steps = append(p.Steps, Step{FromValue: v})
	return p
}

// Validate checks the pipeline's shape without touching an engine.
func (p *Pipeline) Validate() error {
	if p.Owner == "" {
		return fmt.Errorf("pipeline %q: owner is required", p.Name)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline %q: at least one step is required", p.Name)
	}
	for i, s := range p.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("pipeline %q step %d: %w", p.Name, i, err)
		}
	}
	return nil
}

// Wire registers the pipeline's pipes on eng and returns the owner's handle.
func (p *Pipeline) Wire(eng Engine) (*runtime.Blueprint, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cur := eng.Blueprint(p.Owner)
	if len(p.Args) > 0 {
		cur = cur.New(p.Args...)
	}
	for i, s := range p.Steps {
		var target any
		switch {
		case s.To != "" || s.From != "":
			name := s.To + s.From
			bp := eng.Blueprint(name)
			if len(s.New) > 0 {
				bp = bp.New(s.New...)
			}
			target = bp
		case s.ToValue != nil:
			target = s.ToValue
		default:
			target = s.FromValue
		}

		if s.Direction() == domain.DirectionFrom {
			cur = cur.From(target, s.Params...)
		} else {
			cur = cur.To(target, s.Params...)
		}
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("pipeline %q step %d: %w", p.Name, i, err)
		}
	}
	return cur, nil
}

// File is the on-disk form: a list of pipelines.
type File struct {
	Pipelines []*Pipeline `yaml:"pipelines"`
}

// Parse decodes and validates a pipeline file. Unknown keys are rejected.
func Parse(data []byte) ([]*Pipeline, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse pipelines: %w", err)
	}

	seen := make(map[string]bool, len(f.Pipelines))
	for _, p := range f.Pipelines {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate pipeline %q", p.Name)
		}
		seen[p.Name] = true
	}
	return f.Pipelines, nil
}

// LoadFile reads and parses a pipeline file.
func LoadFile(path string) ([]*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipelines: %w", err)
	}
	return Parse(data)
}

// Encode renders pipelines in the on-disk form.
func Encode(pipelines []*Pipeline) ([]byte, error) {
	return yaml.Marshal(File{Pipelines: pipelines})
}
