// Package process exposes allow-listed local commands as blueprints.
//
// Each registered tool becomes the implementation "exec/<name>". Data reaching
// the blueprint is written to the command's stdin and its stdout becomes the
// output. Named props are passed as FRAME_ARG_<NAME> environment variables,
// never as command-line flags.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/registry"
)

// Prefix namespaces process implementations.
const Prefix = "exec/"

// Runner executes allow-listed local processes.
type Runner struct {
	registry map[string]Tool
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTools adds tools to the allow-list. A later tool replaces an earlier
// one with the same name.
func WithTools(tools ...Tool) RunnerOption {
	return func(r *Runner) {
		for _, tool := range tools {
			r.registry[tool.Name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = Tool{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Names lists the allow-listed tools in sorted order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind registers one implementation per tool into reg.
func (r *Runner) Bind(reg *registry.Registry) {
	for _, name := range r.Names() {
		reg.Register(Prefix+name, registry.Implementation{In: r.handler(name)})
	}
}

// Manifests returns one manifest per tool, named after it.
func (r *Runner) Manifests() []domain.Manifest {
	out := make([]domain.Manifest, 0, len(r.registry))
	for _, name := range r.Names() {
		out = append(out, r.registry[name].Manifest())
	}
	return out
}

func (r *Runner) handler(name string) domain.InputFunc {
	return func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
		ctx := step.Context()
		go func() {
			out, err := r.Run(ctx, name, data, props.Named)
			done(err, out)
		}()
		return domain.Pending()
	}
}

// Run executes the named tool with input on stdin. The trimmed stdout is
// returned, decoded when it looks like a JSON object or array.
func (r *Runner) Run(ctx context.Context, name string, input any, args map[string]any) (any, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("process tool not registered: %s", name)
	}

	stdin, err := encode(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(stdin)

	env := cmd.Environ()
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		val, err := encode(v)
		if err != nil {
			return nil, fmt.Errorf("%s: arg %s: %w", name, k, err)
		}
		env = append(env, fmt.Sprintf("FRAME_ARG_%s=%s", strings.ToUpper(k), val))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: execution failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded, nil
		}
	}
	return trimmed, nil
}

// encode renders primitives as text and everything else as JSON.
func encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(val), nil
	case []byte:
		return val, nil
	case int, int64, float64, bool:
		return fmt.Appendf(nil, "%v", val), nil
	default:
		return json.Marshal(val)
	}
}
