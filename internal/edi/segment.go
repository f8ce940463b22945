package edi

import "strings"

// Segment terminators for the two dialects.
const (
	X12SegmentTerminator     = '~'
	EdifactSegmentTerminator = '\''
)

// ExtractSegment returns the first segment starting with segmentID, up to and
// including the nearest '~' or '\'' after it. It reports false when the id or a
// terminator cannot be found.
//
// The match is a plain substring search; "GS" also matches inside other text.
func ExtractSegment(content, segmentID string) (string, bool) {
	if segmentID == "" {
		return "", false
	}
	start := strings.Index(content, segmentID)
	if start < 0 {
		return "", false
	}
	end := strings.IndexAny(content[start:], string([]rune{X12SegmentTerminator, EdifactSegmentTerminator}))
	if end < 0 {
		return "", false
	}
	return content[start : start+end+1], true
}

