package cli

import (
	"context"

	"github.com/aretw0/frame/internal/presentation/tui"
	"github.com/aretw0/frame/pkg/domain"
)

// Describe renders the manifest behind ref as markdown. With styled set the
// markdown goes through the terminal renderer.
func Describe(ctx context.Context, opts RunOptions, ref string, styled bool) (string, error) {
	engine, release, err := NewEngine(opts)
	if err != nil {
		return "", err
	}
	defer release()
	defer engine.Close()

	m, err := engine.Catalog().Manifest(ctx, domain.ParseRef(ref))
	if err != nil {
		return "", err
	}

	md := tui.ManifestMarkdown(m)
	if !styled {
		return md, nil
	}
	return tui.NewRenderer()(md)
}
