package report

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/utils"
)

const (
	// DefaultHintWidth is the display width of hint grouping keys.
	DefaultHintWidth = 40

	// NormalizedHintWidth is the width used by ByNormalizedHint.
	NormalizedHintWidth = 50
)

// Grouping names accepted by GroupingFor.
const (
	GroupHint       = "hint"
	GroupNormalized = "normalized"
	GroupTask       = "task"
	GroupAgent      = "agent"
)

// ErrUnknownGrouping is returned by GroupingFor for an unsupported name.
var ErrUnknownGrouping = errors.New("unknown grouping")

var (
	hintNumberingRe = regexp.MustCompile(`^\d+\.\s*`)
	hintTaskLabelRe = regexp.MustCompile(`^task\s*\d*:\s*`)
	// Bold emphasis labels such as "**critical merging task:**".
	hintCriticalRe = regexp.MustCompile(`\*\*critical[^*]*:\*\*`)
)

// Order is how the rows of a report are sorted.
type Order int

const (
	// OrderFirstStep sorts rows by the first step they contain.
	OrderFirstStep Order = iota

	// OrderKey sorts rows by key.
	OrderKey

	// OrderTokensDesc sorts rows by total tokens, largest first.
	OrderTokensDesc
)

// Grouping assigns blocks to report rows. Key returns false for blocks that
// belong to no row.
type Grouping struct {
	Name  string
	Key   func(b *calllog.CallBlock) (string, bool)
	Order Order
}

// ByHint groups every block by its truncated task hint.
func ByHint(width int) Grouping {
	return Grouping{
		Name: GroupHint,
		Key: func(b *calllog.CallBlock) (string, bool) {
			return TruncateHint(b.TaskHint, width), true
		},
		Order: OrderFirstStep,
	}
}

// ByNormalizedHint groups every block by its normalized, truncated task hint,
// so "1. Task: Analyze" and "analyze" land in the same row.
func ByNormalizedHint(width int) Grouping {
	return Grouping{
		Name: GroupNormalized,
		Key: func(b *calllog.CallBlock) (string, bool) {
			return TruncateHint(NormalizeHint(b.TaskHint), width), true
		},
		Order: OrderFirstStep,
	}
}

// ByTask groups blocks matched to a task, ordered by task id.
func ByTask() Grouping {
	return Grouping{
		Name: GroupTask,
		Key: func(b *calllog.CallBlock) (string, bool) {
			return b.TaskID, b.TaskID != ""
		},
		Order: OrderKey,
	}
}

// ByAgent groups blocks matched to an agent, heaviest token users first.
func ByAgent() Grouping {
	return Grouping{
		Name: GroupAgent,
		Key: func(b *calllog.CallBlock) (string, bool) {
			return b.AgentID, b.AgentID != ""
		},
		Order: OrderTokensDesc,
	}
}

// GroupingFor resolves a grouping by name. width applies to hint groupings; 0
// selects the default width.
func GroupingFor(name string, width int) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", GroupHint:
		if width <= 0 {
			width = DefaultHintWidth
		}
		return ByHint(width), nil
	case GroupNormalized:
		if width <= 0 {
			width = NormalizedHintWidth
		}
		return ByNormalizedHint(width), nil
	case GroupTask:
		return ByTask(), nil
	case GroupAgent:
		return ByAgent(), nil
	default:
		return Grouping{}, fmt.Errorf("%w: %q (valid: %s, %s, %s, %s)",
			ErrUnknownGrouping, name, GroupHint, GroupNormalized, GroupTask, GroupAgent)
	}
}

// TruncateHint trims a hint and shortens it to exactly width runes, ellipsis
// included. An empty hint becomes calllog.UnknownTask.
func TruncateHint(hint string, width int) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return calllog.UnknownTask
	}
	return utils.Truncate(hint, width)
}

// NormalizeHint lowercases a hint, strips leading "1." numbering and "task 2:"
// labels, and drops "**critical ...:**" emphasis labels.
func NormalizeHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	hint = hintNumberingRe.ReplaceAllString(hint, "")
	hint = hintTaskLabelRe.ReplaceAllString(hint, "")
	hint = hintCriticalRe.ReplaceAllString(hint, "")
	return strings.TrimSpace(hint)
}
