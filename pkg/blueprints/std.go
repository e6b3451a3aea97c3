// Package blueprints provides the standard implementations every engine can
// bind manifests to. Implementation names carry the "std/" prefix; Manifests
// returns a ready-made catalog exposing each one under its short name.
package blueprints

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/registry"
)

// Prefix namespaces the standard implementations.
const Prefix = "std/"

type config struct {
	out io.Writer
}

// Option configures the standard implementations.
type Option func(*config)

// WithOutput sets where std/print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// Register adds every standard implementation to reg.
func Register(reg *registry.Registry, opts ...Option) {
	cfg := &config{out: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}
	for name, impl := range implementations(cfg) {
		reg.Register(Prefix+name, impl)
	}
}

// Manifests returns one manifest per standard implementation, named after it
// without the prefix.
func Manifests() []domain.Manifest {
	out := make([]domain.Manifest, 0, len(descriptions))
	for _, name := range Names() {
		out = append(out, domain.Manifest{
			Name:        name,
			Impl:        Prefix + name,
			Description: descriptions[name],
		})
	}
	return out
}

// Names lists the standard implementation names without the prefix.
func Names() []string {
	return []string{"delay", "emit", "format", "identity", "json", "lower", "parse-json", "print", "ticker", "trim", "upper"}
}

var descriptions = map[string]string{
	"delay":      "Passes data on after a delay in milliseconds.",
	"emit":       "Event source emitting each of its arguments.",
	"format":     "Formats data with a fmt verb string.",
	"identity":   "Passes data on unchanged.",
	"json":       "Encodes data as a JSON string.",
	"lower":      "Lower-cases string data.",
	"parse-json": "Decodes a JSON string.",
	"print":      "Writes data to the output and passes it on.",
	"ticker":     "Event source emitting a counter on an interval.",
	"trim":       "Trims surrounding whitespace from string data.",
	"upper":      "Upper-cases string data.",
}

func implementations(cfg *config) map[string]registry.Implementation {
	return map[string]registry.Implementation{
		"identity": {In: identity},
		"upper":    {In: stringOp(strings.ToUpper)},
		"lower":    {In: stringOp(strings.ToLower)},
		"trim":     {In: stringOp(strings.TrimSpace)},
		"json": {
			Describe: domain.Describe{domain.PhaseIn: {{Name: "indent", Type: "string"}}},
			In:       encodeJSON,
		},
		"parse-json": {In: parseJSON},
		"format": {
			Describe: domain.Describe{domain.PhaseIn: {{Name: "format", Type: "string", Description: "fmt verb string"}}},
			In:       format,
		},
		"print": {
			Describe: domain.Describe{domain.PhaseIn: {{Name: "prefix", Type: "string"}}},
			In:       printer(cfg.out),
		},
		"delay": {
			Describe: domain.Describe{domain.PhaseIn: {{Name: "ms", Type: "int"}}},
			In:       delay,
		},
		"emit": {On: emit},
		"ticker": {
			Describe: domain.Describe{domain.PhaseOn: {
				{Name: "count", Type: "int"},
				{Name: "interval_ms", Type: "int"},
			}},
			On: ticker,
		},
	}
}

func identity(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
	return domain.Value(data)
}

func stringOp(fn func(string) string) domain.InputFunc {
	return func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
		s, ok := data.(string)
		if !ok {
			return domain.Fail(fmt.Errorf("%s: expected string, got %T", step.Name(), data))
		}
		return domain.Value(fn(s))
	}
}

func encodeJSON(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
	var (
		b   []byte
		err error
	)
	if indent := props.String("indent", ""); indent != "" {
		b, err = json.MarshalIndent(data, "", indent)
	} else {
		b, err = json.Marshal(data)
	}
	if err != nil {
		return domain.Fail(fmt.Errorf("encode json: %w", err))
	}
	return domain.Value(string(b))
}

func parseJSON(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
	var raw []byte
	switch v := data.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return domain.Fail(fmt.Errorf("parse json: expected string or bytes, got %T", data))
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Fail(fmt.Errorf("parse json: %w", err))
	}
	return domain.Value(out)
}

func format(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
	return domain.Value(fmt.Sprintf(props.String("format", "%v"), data))
}

func printer(out io.Writer) domain.InputFunc {
	return func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
		if _, err := fmt.Fprintf(out, "%s%v\n", props.String("prefix", ""), data); err != nil {
			return domain.Fail(fmt.Errorf("print: %w", err))
		}
		return domain.Value(data)
	}
}

func delay(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
	var opts struct {
		Ms int `mapstructure:"ms"`
	}
	if err := props.Decode(&opts); err != nil {
		return domain.Fail(err)
	}
	if opts.Ms <= 0 {
		return domain.Value(data)
	}

	ctx := step.Context()
	timer := time.NewTimer(time.Duration(opts.Ms) * time.Millisecond)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			done(nil, data)
		case <-ctx.Done():
			done(ctx.Err(), nil)
		}
	}()
	return domain.Pending()
}

func emit(step domain.Step, props domain.Props) {
	for _, arg := range props.Args {
		step.Out(arg)
	}
}

func ticker(step domain.Step, props domain.Props) {
	var opts struct {
		Count      int `mapstructure:"count"`
		IntervalMs int `mapstructure:"interval_ms"`
	}
	if err := props.Decode(&opts); err != nil {
		step.Error(err)
		return
	}
	if opts.Count <= 0 {
		opts.Count = 1
	}

	ctx := step.Context()
	go func() {
		t := time.NewTicker(time.Duration(max(opts.IntervalMs, 1)) * time.Millisecond)
		defer t.Stop()
		for i := 0; i < opts.Count; i++ {
			select {
			case <-t.C:
				step.Out(i)
			case <-ctx.Done():
				return
			}
		}
	}()
}
