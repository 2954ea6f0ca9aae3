// Copyright (C) 2020 Storj Labs, Inc.
// See LICENSE for copying information.

// Package lifecycle supervises the core's long-lived worker pools and
// background supervisors (job queue workers, janitor, native-helper
// processes) as one ordered set: Run starts every item with a Run
// func concurrently, Close tears every item with a Close func down in
// reverse registration order so consumers shut down before the
// producers they depend on.
package lifecycle

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Item is one supervised component. Run is started as its own
// goroutine when the group runs; it may be nil for a component that
// only needs teardown (e.g. a shared resource opened before the group
// exists). Close is called during group shutdown; it may be nil for a
// component with nothing to release.
type Item struct {
	Name  string
	Run   func(ctx context.Context) error
	Close func() error
}

// Group holds an ordered set of Items and runs/closes them together.
type Group struct {
	log   *zap.Logger
	items []Item
}

// NewGroup returns an empty Group.
func NewGroup(log *zap.Logger) *Group {
	return &Group{log: log}
}

// Add appends item to the group. Items close in the reverse order they
// were added.
func (group *Group) Add(item Item) {
	group.items = append(group.items, item)
}

// Run starts every item with a non-nil Run func as its own goroutine in
// g. It returns once all goroutines have been launched; it does not
// wait for them to finish, that's g.Wait's job.
func (group *Group) Run(ctx context.Context, g *errgroup.Group) {
	for _, item := range group.items {
		item := item
		if item.Run == nil {
			continue
		}
		log := group.log.Named(item.Name)
		g.Go(func() error {
			log.Debug("started")
			err := item.Run(ctx)
			if err != nil {
				log.Error("stopped", zap.Error(err))
			} else {
				log.Debug("stopped")
			}
			return err
		})
	}
}

// Close closes every item with a non-nil Close func, one at a time, in
// reverse registration order, so a consumer always releases before the
// producer it depends on. It keeps closing the rest even after an
// error so a single stuck component can't prevent others from
// releasing their resources, and returns the first error encountered.
func (group *Group) Close() error {
	var firstErr error
	for i := len(group.items) - 1; i >= 0; i-- {
		item := group.items[i]
		if item.Close == nil {
			continue
		}
		if err := item.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DumpStacks writes a condensed dump of every goroutine's stack to the
// group's logger, for diagnosing a shutdown that's taking too long.
func (group *Group) DumpStacks() {
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	group.log.Info("goroutine dump", zap.ByteString("stacks", condenseStack(buf)))
}
