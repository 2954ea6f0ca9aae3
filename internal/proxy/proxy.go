// Package proxy implements the video playback Proxy Generator (spec.md
// §4, the job queue's "proxy" queue). Transcoding needs a real video
// encoder this process doesn't provide, so generation is delegated to a
// configurable external subprocess, the same degraded-capability shape
// internal/webarchive uses for screenshot/PDF capture.
package proxy

import (
	"context"
	"os/exec"
	"strings"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// Command is a configurable subprocess invocation template. "{input}"
// and "{output}" are substituted with the source video and destination
// proxy path.
type Command []string

// Generator runs Command to produce a playback proxy for a source
// video, writing it to the planner's proxy path.
type Generator struct {
	planner *archive.Planner
	cmd     Command
}

// New builds a Generator. A nil/empty cmd makes Generate always fail
// with errs2.ExternalHelperUnavailable, matching an unconfigured
// transcoder rather than a panic.
func New(planner *archive.Planner, cmd Command) *Generator {
	return &Generator{planner: planner, cmd: cmd}
}

// Generate transcodes srcPath into the cached playback proxy for hash
// and returns its path.
func (g *Generator) Generate(ctx context.Context, srcPath, hash string) (string, error) {
	dest, err := g.planner.ProxyPath(hash)
	if err != nil {
		return "", err
	}
	if err := g.planner.EnsureParent(dest); err != nil {
		return "", err
	}
	if len(g.cmd) == 0 {
		return "", errs2.ExternalHelperUnavailable.New("no proxy transcode command configured")
	}

	args := make([]string, len(g.cmd))
	for i, a := range g.cmd {
		a = strings.ReplaceAll(a, "{input}", srcPath)
		a = strings.ReplaceAll(a, "{output}", dest)
		args[i] = a
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		return "", errs2.ExternalHelperUnavailable.Wrap(err)
	}
	return dest, nil
}
