package calllog

import (
	"regexp"
	"strings"
)

const (
	// keepAfterMarker is how many lines after a request/response marker are
	// always kept, since they carry the task hint and usage payload.
	keepAfterMarker = 10

	longJSONLine  = 500
	longPlainLine = 300
)

var toolCounterLine = regexp.MustCompile(`Times Used: \d+$`)

// FilterNoise strips tool usage counters and oversized JSON lines from raw log
// text before segmentation. Lines near request and response markers, and lines
// carrying usage, task or model information, are always kept.
func FilterNoise(text string, markers Markers) string {
	markers = markers.withDefaults()

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	keepNext := 0

	for _, line := range lines {
		if strings.Contains(line, markers.Request) || strings.Contains(line, markers.Response) {
			kept = append(kept, line)
			keepNext = keepAfterMarker
			continue
		}

		if keepNext > 0 {
			kept = append(kept, line)
			keepNext--
			continue
		}

		if toolCounterLine.MatchString(line) {
			continue
		}

		if len(line) > longJSONLine && strings.Contains(line, "{") && strings.Contains(line, "}") {
			continue
		}

		if strings.Contains(line, `"usage"`) ||
			strings.Contains(line, `"tokens"`) ||
			strings.Contains(line, "Current Task:") ||
			strings.Contains(line, "model=") ||
			strings.Contains(line, `"model":`) {
			kept = append(kept, line)
			continue
		}

		if len(line) < longPlainLine {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}
