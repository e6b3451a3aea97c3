package process

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/schema"
)

// Tool is one allow-listed command as declared in a tools file.
//
// Params name the props a pipe may pass to the tool. They become the "in"
// phase of the tool's manifest, so positional pipe arguments reach the
// process as FRAME_ARG_<NAME> variables.
type Tool struct {
	Name        string            `yaml:"name"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Env         map[string]string `yaml:"env"`
	Params      []string          `yaml:"params"`
	Description string            `yaml:"description"`
}

// Manifest describes the tool as a blueprint bound to Prefix+Name.
func (t Tool) Manifest() domain.Manifest {
	m := domain.Manifest{
		Name:        t.Name,
		Impl:        Prefix + t.Name,
		Description: t.Description,
	}
	if len(t.Params) > 0 {
		in := make([]domain.Param, 0, len(t.Params))
		for _, p := range t.Params {
			in = append(in, domain.Param{Name: p})
		}
		m.Describe = map[string][]domain.Param{string(domain.PhaseIn): in}
	}
	return m
}

type toolsFile struct {
	Tools []Tool `yaml:"tools"`
}

// LoadRunner reads a tools file and returns a runner allowing exactly the
// tools it lists. JSON files are read by the same YAML decoder. A missing
// file yields a runner with no tools.
//
// Unknown keys, unnamed tools, tools without a command and duplicate names
// are all reported together in a *schema.AggregateError.
func LoadRunner(path string, opts ...RunnerOption) (*Runner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRunner(opts...), nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	tools, err := decodeTools(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewRunner(append([]RunnerOption{WithTools(tools...)}, opts...)...), nil
}

func decodeTools(data []byte) ([]Tool, error) {
	var file toolsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse tools: %w", err)
	}

	errs := &schema.AggregateError{}
	seen := make(map[string]bool, len(file.Tools))
	for i, tool := range file.Tools {
		key := fmt.Sprintf("tools[%d]", i)
		switch {
		case tool.Name == "":
			errs.Append(&schema.ValidationError{Key: key + ".name", Reason: "required"})
		case seen[tool.Name]:
			errs.Append(&schema.ValidationError{Key: key + ".name", Reason: fmt.Sprintf("duplicate tool %q", tool.Name)})
		}
		if tool.Command == "" {
			errs.Append(&schema.ValidationError{Key: key + ".command", Reason: "required"})
		}
		seen[tool.Name] = true
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return file.Tools, nil
}
