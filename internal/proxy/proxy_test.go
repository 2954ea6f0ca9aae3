package proxy_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/proxy"
)

func TestGenerateFailsWithoutConfiguredCommand(t *testing.T) {
	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	g := proxy.New(planner, nil)
	_, err = g.Generate(context.Background(), "/dev/null", "0123012301230123012301230123012301230123012301230123012301230123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no proxy transcode command configured")
}

func TestGenerateRunsConfiguredCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell assumed")
	}
	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	src := filepath.Join(t.TempDir(), "source.mov")
	require.NoError(t, os.WriteFile(src, []byte("fake video"), 0o644))

	g := proxy.New(planner, proxy.Command{"cp", "{input}", "{output}"})
	hash := "4567456745674567456745674567456745674567456745674567456745674567"
	dest, err := g.Generate(context.Background(), src, hash)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "fake video", string(data))
}
