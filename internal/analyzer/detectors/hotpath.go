package detectors

import (
	"finlint/internal/rules"
)

// HotPathDetector looks backwards from a call site for signs that the code
// runs on a request, event or scheduled path.
type HotPathDetector struct {
	markers rules.HotPathMarkers
}

func NewHotPathDetector(markers rules.HotPathMarkers) HotPathDetector {
	return HotPathDetector{markers: markers}
}

// window returns the bounds of the preceding lines inspected for idx.
func (d HotPathDetector) window(idx int) (int, int) {
	start := idx - d.markers.Window
	if start < 0 {
		start = 0
	}
	return start, idx
}

// Annotated reports whether a route, handler or scheduling marker appears
// within the window before idx.
func (d HotPathDetector) Annotated(lines []string, idx int) bool {
	start, end := d.window(idx)
	for i := start; i < end && i < len(lines); i++ {
		if d.MarksLine(lines[i]) {
			return true
		}
	}
	return false
}

// MarksLine reports whether a single line carries an annotation marker.
func (d HotPathDetector) MarksLine(line string) bool {
	for _, re := range d.markers.Annotations {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// EnclosingName returns the name of the nearest function definition within
// the window before idx, or "" if there is none.
func (d HotPathDetector) EnclosingName(lines []string, idx int) string {
	start, end := d.window(idx)
	if end > len(lines) {
		end = len(lines)
	}
	for i := end - 1; i >= start; i-- {
		if isCommentLine(lines[i]) {
			continue
		}
		for _, re := range d.markers.Definitions {
			m := re.FindStringSubmatch(lines[i])
			if m == nil || notCalls[m[1]] {
				continue
			}
			return m[1]
		}
	}
	return ""
}

// HotName reports whether a function name carries a hot-path keyword.
func (d HotPathDetector) HotName(name string) bool {
	return d.markers.HotName(name)
}

// IsHot combines the annotation and enclosing-name checks.
func (d HotPathDetector) IsHot(lines []string, idx int) bool {
	return d.Annotated(lines, idx) || d.HotName(d.EnclosingName(lines, idx))
}
