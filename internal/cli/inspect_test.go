package cli

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/frame/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePipelines = `
pipelines:
  - name: loud
    owner: shout
    steps:
      - from_value: hi
      - to: mem://print
`

func TestValidate(t *testing.T) {
	t.Run("Valid catalog", func(t *testing.T) {
		dir := testutils.SetupCatalog(t, map[string]string{
			"shout.md":       testutils.ManifestDoc("std/upper", "Upper-cases its input."),
			"pipelines.yaml": samplePipelines,
		})
		assert.NoError(t, Validate(context.Background(), RunOptions{RepoPath: dir}))
	})

	t.Run("Unknown implementation", func(t *testing.T) {
		dir := testutils.SetupCatalog(t, map[string]string{
			"shout.md": testutils.ManifestDoc("std/ghost", ""),
		})
		err := Validate(context.Background(), RunOptions{RepoPath: dir})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown implementation 'std/ghost'")
	})

	t.Run("Broken pipelines file", func(t *testing.T) {
		dir := testutils.SetupCatalog(t, map[string]string{
			"shout.md":       testutils.ManifestDoc("std/upper", ""),
			"pipelines.yaml": "pipelines:\n  - name: x\n    owner: shout\n    bogus: true\n",
		})
		err := Validate(context.Background(), RunOptions{RepoPath: dir})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipelines:")
	})
}

func TestInspect(t *testing.T) {
	dir := testutils.SetupCatalog(t, map[string]string{
		"shout.md":       testutils.ManifestDoc("std/upper", ""),
		"pipelines.yaml": samplePipelines,
	})

	nodes, err := Inspect(RunOptions{RepoPath: dir})
	require.NoError(t, err)

	names := map[string]int{}
	for _, n := range nodes {
		names[n.Name] = len(n.Pipes)
	}
	assert.Equal(t, 2, names["shout"], "owner keeps both pipes")
	assert.Contains(t, names, "print")
}

func TestServe_StopsOnCancel(t *testing.T) {
	dir := testutils.SetupCatalog(t, map[string]string{
		"shout.md":       testutils.ManifestDoc("std/upper", ""),
		"pipelines.yaml": samplePipelines,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Serve(ctx, RunOptions{RepoPath: dir}, ServeOptions{Addr: "127.0.0.1:0", Pipelines: true})
	assert.NoError(t, err)
}

func TestDescribe(t *testing.T) {
	dir := testutils.SetupCatalog(t, map[string]string{
		"shout.md": testutils.ManifestDoc("std/upper", "Upper-cases its input."),
	})

	md, err := Describe(context.Background(), RunOptions{RepoPath: dir}, "shout", false)
	require.NoError(t, err)
	assert.Contains(t, md, "# shout")
	assert.Contains(t, md, "`std/upper`")
	assert.Contains(t, md, "Upper-cases its input.")

	md, err = Describe(context.Background(), RunOptions{RepoPath: dir}, "mem://delay", false)
	require.NoError(t, err)
	assert.Contains(t, md, "`std/delay`")

	_, err = Describe(context.Background(), RunOptions{RepoPath: dir}, "ghost", false)
	assert.Error(t, err)
}
