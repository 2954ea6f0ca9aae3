package webarchive

import (
	"context"
	"os/exec"
	"strings"

	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// ExternalCommand is a configurable subprocess invocation template for
// the screenshot/PDF capture steps, which need a real browser engine Go
// cannot provide on its own. "{url}" and "{output}" are substituted with
// the capture target and destination path.
type ExternalCommand []string

// run invokes the command, substituting placeholders. A missing binary
// or non-zero exit is wrapped as errs2.ExternalHelperUnavailable: per
// spec.md §7 this is surfaced as a warning, not a fatal capture failure.
func (c ExternalCommand) run(ctx context.Context, url, output string) error {
	if len(c) == 0 {
		return errs2.ExternalHelperUnavailable.New("no external capture command configured")
	}
	args := make([]string, len(c))
	for i, a := range c {
		a = strings.ReplaceAll(a, "{url}", url)
		a = strings.ReplaceAll(a, "{output}", output)
		args[i] = a
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		return errs2.ExternalHelperUnavailable.Wrap(err)
	}
	return nil
}
