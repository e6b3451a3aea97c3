package cli

import (
	"context"
	"encoding/base64"
	"fmt"

	redisAdapter "github.com/aretw0/frame/pkg/adapters/redis"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/persistence/middleware"
	"github.com/aretw0/frame/pkg/ports"
)

// PublishOptions configures how a local catalog is copied to Redis.
type PublishOptions struct {
	// Redact lists metadata key patterns masked before upload.
	Redact []string
}

// Publish copies every manifest of the file catalog into the redis:// catalog
// and returns the number of manifests written.
func Publish(ctx context.Context, opts RunOptions, popts PublishOptions) (int, error) {
	if opts.RedisAddr == "" {
		return 0, fmt.Errorf("publish needs a redis address")
	}
	logger := createLogger(opts.Debug)

	engine, release, err := createEngine(RunOptions{RepoPath: opts.RepoPath, Debug: opts.Debug}, logger)
	if err != nil {
		return 0, err
	}
	defer release()
	defer engine.Close()

	src, ok := engine.Catalog().Source(domain.ProtocolFile)
	if !ok {
		return 0, fmt.Errorf("no file catalog in %q", opts.RepoPath)
	}
	src = withoutFiles(src, findPipelines(opts.RepoPath), findTools(opts.RepoPath))

	target := redisAdapter.New(opts.RedisAddr, "", 0)
	defer target.Close()
	store := secureStore(target, opts.CatalogKey, popts.Redact)

	names, err := src.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, name := range names {
		m, err := src.Manifest(ctx, name)
		if err != nil {
			return i, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := store.Save(ctx, m); err != nil {
			return i, fmt.Errorf("publishing %s: %w", name, err)
		}
		logger.Debug("Published blueprint", "blueprint", name)
	}
	return len(names), nil
}

// secureStore layers redaction and encryption over store. Either is skipped
// when it has nothing to do.
func secureStore(store ports.ManifestStore, key []byte, redact []string) ports.ManifestStore {
	var mws []middleware.Middleware
	if len(redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(redact))
	}
	if len(key) > 0 {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...)
}

// DecodeKey parses a base64 AES-256 key.
func DecodeKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("catalog key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("catalog key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
