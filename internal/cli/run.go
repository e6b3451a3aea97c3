package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	RepoPath string
	// File is the pipelines file. Empty means the first default found in RepoPath.
	File  string
	Debug bool
	// Follow keeps the engine running until interrupted instead of draining.
	Follow bool
	Watch  bool
	// Timeout bounds a drain. Zero means no limit.
	Timeout    time.Duration
	CatalogURL string
	RedisAddr  string
	// CatalogKey decrypts redis:// manifests sealed by Publish.
	CatalogKey []byte
	// Hooks are added to the engine next to the debug log hooks.
	Hooks domain.LifecycleHooks
}

// Execute handles the 'run' command logic, dispatching to a single run or Watch mode.
func Execute(opts RunOptions) error {
	if opts.File == "" {
		opts.File = findPipelines(opts.RepoPath)
		if opts.File == "" {
			return fmt.Errorf("no pipelines file found in %s (tried %v)", opts.RepoPath, pipelineFiles)
		}
	}

	if opts.Watch {
		return RunWatch(opts)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	err := RunFlow(sigCtx, opts)
	logCompletion(opts.File, err, sigCtx.Signal())
	return handleExecutionError(err)
}
