package middleware

import (
	"context"

	"github.com/aretw0/frame/pkg/ports"
)

// Middleware allows wrapping a ManifestStore to add behavior.
type Middleware func(ports.ManifestStore) ports.ManifestStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.ManifestStore, mws ...Middleware) ports.ManifestStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// watch forwards to next when it can report changes. Otherwise the returned
// channel is already closed: nothing will ever change.
func watch(ctx context.Context, next ports.ManifestStore) (<-chan string, error) {
	if w, ok := next.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	ch := make(chan string)
	close(ch)
	return ch, nil
}
