// Package testcontext provides a per-test context.Context bundled with a
// scratch directory and goroutine supervision, so tests can spawn
// background work (workers, job-queue pollers, pipeline phases) and be
// certain it is drained before the test exits.
package testcontext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// Context extends context.Context with test-scoped helpers.
type Context struct {
	context.Context

	t      testing.TB
	cancel context.CancelFunc
	group  *errgroup.Group
	dir    string
}

// New creates a Context for t that is cancelled after five minutes if
// Cleanup has not already been called.
func New(t testing.TB) *Context {
	return NewWithTimeout(t, 5*time.Minute)
}

// NewWithTimeout creates a Context for t that is cancelled after timeout if
// Cleanup has not already been called.
func NewWithTimeout(t testing.TB, timeout time.Duration) *Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	group, groupCtx := errgroup.WithContext(ctx)

	return &Context{
		Context: groupCtx,
		t:       t,
		cancel:  cancel,
		group:   group,
		dir:     t.TempDir(),
	}
}

// Go runs fn in a goroutine tracked by Cleanup; the first non-nil error
// returned by any tracked goroutine fails the test.
func (ctx *Context) Go(fn func() error) {
	ctx.group.Go(fn)
}

// Check runs fn and fails the test immediately if it returns an error.
// Intended for use in defer, e.g. defer ctx.Check(db.Close).
func (ctx *Context) Check(fn func() error) {
	if err := fn(); err != nil {
		ctx.t.Fatal(err)
	}
}

// Dir returns (creating if necessary) a subdirectory of the test's scratch
// directory.
func (ctx *Context) Dir(elem ...string) string {
	dir := filepath.Join(append([]string{ctx.dir}, elem...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		ctx.t.Fatal(err)
	}
	return dir
}

// File returns a path inside the test's scratch directory, creating parent
// directories as needed.
func (ctx *Context) File(elem ...string) string {
	if len(elem) == 0 {
		ctx.t.Fatal("testcontext: File requires at least one path element")
	}
	dir := ctx.Dir(elem[:len(elem)-1]...)
	return filepath.Join(dir, elem[len(elem)-1])
}

// Cleanup waits for all tracked goroutines, then cancels the context, and
// fails the test if any of them returned an error.
func (ctx *Context) Cleanup() {
	err := ctx.group.Wait()
	ctx.cancel()
	if err != nil {
		ctx.t.Fatal(err)
	}
}
