package calllog

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the leading timestamp shape on marker lines.
const TimestampLayout = "2006-01-02 15:04:05"

var leadingTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)

// Markers are the substrings that drive segmentation.
type Markers struct {
	Request  string `json:"request"`
	Response string `json:"response"`
	APIError string `json:"api_error"`
}

// DefaultMarkers returns the markers written by litellm-backed crews.
func DefaultMarkers() Markers {
	return Markers{
		Request:  "Request to litellm:",
		Response: "RAW RESPONSE:",
		APIError: "APIStatusError",
	}
}

// withDefaults fills empty markers from DefaultMarkers.
func (m Markers) withDefaults() Markers {
	d := DefaultMarkers()
	if m.Request == "" {
		m.Request = d.Request
	}
	if m.Response == "" {
		m.Response = d.Response
	}
	if m.APIError == "" {
		m.APIError = d.APIError
	}
	return m
}

type segmentMode int

const (
	modeNone segmentMode = iota
	modeRequest
	modeResponse
)

type segmenter struct {
	markers Markers
	blocks  []*CallBlock
	current *CallBlock
	request strings.Builder
	resp    strings.Builder
	mode    segmentMode
}

// Segment splits log text into CallBlocks, one per line containing the
// request marker, in detection order. Text before the first request marker is
// discarded. Segment never fails: lines that match no marker are appended to
// the active buffer or dropped when no block is open.
func Segment(text string, markers Markers) []*CallBlock {
	s := &segmenter{markers: markers.withDefaults()}

	for _, line := range splitLines(text) {
		s.feed(line)
	}
	s.finalize()

	return s.blocks
}

func (s *segmenter) feed(line string) {
	switch {
	case strings.Contains(line, s.markers.Request):
		s.finalize()
		s.open(line)

	case s.current != nil && strings.Contains(line, s.markers.Response):
		s.mode = modeResponse
		if ts, _, ok := parseLeadingTimestamp(line); ok {
			s.current.EndTime = &ts
		}
		s.resp.WriteString(line)
		s.resp.WriteByte('\n')

	case s.current != nil && strings.Contains(line, s.markers.APIError):
		s.current.APIErrors = append(s.current.APIErrors, strings.TrimSpace(line))

	case s.mode == modeRequest:
		s.request.WriteString(line)
		s.request.WriteByte('\n')

	case s.mode == modeResponse:
		s.resp.WriteString(line)
		s.resp.WriteByte('\n')
	}
}

func (s *segmenter) open(line string) {
	s.current = &CallBlock{
		Index:    len(s.blocks),
		TaskHint: UnknownTask,
		Model:    UnknownModel,
	}

	ts, raw, ok := parseLeadingTimestamp(line)
	s.current.RawStartTime = raw
	if ok {
		s.current.StartTime = &ts
	}

	s.mode = modeRequest
	s.request.Reset()
	s.resp.Reset()
	s.request.WriteString(line)
	s.request.WriteByte('\n')
}

func (s *segmenter) finalize() {
	if s.current == nil {
		return
	}

	s.current.RequestText = s.request.String()
	s.current.ResponseText = s.resp.String()
	s.blocks = append(s.blocks, s.current)

	s.current = nil
	s.mode = modeNone
}

// parseLeadingTimestamp returns the parsed timestamp, the raw matched text,
// and whether the text parsed. A timestamp-shaped prefix that is not a valid
// date is returned raw but reported as absent.
func parseLeadingTimestamp(line string) (time.Time, string, bool) {
	m := leadingTimestamp.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, "", false
	}

	ts, err := time.Parse(TimestampLayout, m[1])
	if err != nil {
		return time.Time{}, m[1], false
	}

	return ts, m[1], true
}

// splitLines splits on \n, trims a trailing \r from each line and drops the
// empty element produced by a trailing newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
