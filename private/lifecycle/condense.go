// Copyright (C) 2024 Storj Labs, Inc.
// See LICENSE for copying information.

package lifecycle

import (
	"bytes"
	"fmt"
	"sort"
)

// condenseStack collapses a runtime.Stack(all=true) dump down to one
// entry per distinct call stack, with a count prefix for stacks shared
// by more than one goroutine. Worker-pool processes tend to park many
// goroutines in the same wait state (idle queue pollers, native-helper
// readers); printing each one in full on a stuck-shutdown timeout makes
// the log useless for finding the one goroutine that actually matters.
func condenseStack(dump []byte) []byte {
	blocks := bytes.Split(bytes.TrimRight(dump, "\n"), []byte("\n\n"))

	counts := make(map[string]int, len(blocks))
	order := make([]string, 0, len(blocks))
	for _, block := range blocks {
		trace := traceBody(block)
		if _, ok := counts[trace]; !ok {
			order = append(order, trace)
		}
		counts[trace]++
	}

	sort.Slice(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	var out bytes.Buffer
	for _, trace := range order {
		n := counts[trace]
		if n > 1 {
			fmt.Fprintf(&out, "%d x goroutines with this stack:\n", n)
		}
		out.WriteString(trace)
		out.WriteString("\n\n")
	}
	return out.Bytes()
}

// traceBody drops a goroutine block's header line (which carries a
// per-goroutine id that would otherwise make every block distinct) and
// returns the remaining call stack.
func traceBody(block []byte) string {
	idx := bytes.IndexByte(block, '\n')
	if idx < 0 {
		return string(block)
	}
	return string(block[idx+1:])
}
