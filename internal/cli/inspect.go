package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/frame"
	"github.com/aretw0/frame/internal/validator"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/dsl"
	"github.com/aretw0/frame/pkg/ports"
)

// NewEngine creates an engine the same way the run command does.
func NewEngine(opts RunOptions) (*frame.Engine, func(), error) {
	return createEngine(opts, createLogger(opts.Debug))
}

// Inspect wires the pipelines file onto an engine that is never run and
// returns the resulting nodes. Flows are not built, so FlowLength is zero.
func Inspect(opts RunOptions) ([]frame.NodeSnapshot, error) {
	if opts.File == "" {
		opts.File = findPipelines(opts.RepoPath)
	}
	if opts.File == "" {
		return nil, fmt.Errorf("no pipelines file found in %s", opts.RepoPath)
	}

	engine, release, err := NewEngine(opts)
	if err != nil {
		return nil, err
	}
	defer release()
	defer engine.Close()

	pipelines, err := dsl.LoadFile(opts.File)
	if err != nil {
		return nil, err
	}
	if _, err := engine.Wire(pipelines...); err != nil {
		return nil, err
	}
	return engine.Snapshot(), nil
}

// Validate checks every manifest of the file catalog binds to a registered
// implementation, then wires the pipelines file (if any) to surface
// configuration errors.
func Validate(ctx context.Context, opts RunOptions) error {
	engine, release, err := NewEngine(opts)
	if err != nil {
		return err
	}
	defer release()
	defer engine.Close()

	if opts.File == "" {
		opts.File = findPipelines(opts.RepoPath)
	}

	var problems []error
	if src, ok := engine.Catalog().Source(domain.ProtocolFile); ok {
		catalog := withoutFiles(src, opts.File, findTools(opts.RepoPath))
		if err := validator.ValidateCatalog(ctx, catalog, engine.Registry()); err != nil {
			problems = append(problems, err)
		}
	}

	if opts.File != "" {
		pipelines, err := dsl.LoadFile(opts.File)
		if err == nil {
			_, err = engine.Wire(pipelines...)
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("pipelines: %w", err))
		}
	}
	return errors.Join(problems...)
}

// fileFilter hides configuration files that live in the catalog directory
// from the manifest listing.
type fileFilter struct {
	ports.ManifestSource
	skip map[string]bool
}

func withoutFiles(src ports.ManifestSource, files ...string) ports.ManifestSource {
	skip := make(map[string]bool)
	for _, file := range files {
		if file == "" {
			continue
		}
		base := filepath.Base(file)
		skip[strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))] = true
	}
	if len(skip) == 0 {
		return src
	}
	return &fileFilter{ManifestSource: src, skip: skip}
}

func (f *fileFilter) List(ctx context.Context) ([]string, error) {
	names, err := f.ManifestSource.List(ctx)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, name := range names {
		if !f.skip[name] {
			out = append(out, name)
		}
	}
	return out, nil
}
