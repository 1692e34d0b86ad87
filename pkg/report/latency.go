package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

// Latencies maps a block Index to the time elapsed since the previous
// timestamped block in the run.
type Latencies map[int]time.Duration

// ComputeLatencies orders every block that has a start time by that time
// (ties broken by Index) and gives block i the gap to block i-1. The first
// timestamped block and blocks without a timestamp get no entry. The result
// does not depend on the order of blocks.
func ComputeLatencies(blocks []*calllog.CallBlock) Latencies {
	timed := make([]*calllog.CallBlock, 0, len(blocks))
	for _, b := range blocks {
		if b != nil && b.StartTime != nil {
			timed = append(timed, b)
		}
	}

	slices.SortFunc(timed, func(a, b *calllog.CallBlock) int {
		if c := a.StartTime.Compare(*b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	out := make(Latencies, len(timed))
	for i := 1; i < len(timed); i++ {
		out[timed[i].Index] = timed[i].StartTime.Sub(*timed[i-1].StartTime)
	}
	return out
}
