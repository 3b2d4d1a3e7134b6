package scoring

import (
	"strconv"
	"strings"
)

// ParseClockTimestamp converts a "M:SS" offset into milliseconds.
// Anything unparseable yields 0 rather than an error; a missing timestamp on
// a feedback item is not worth failing the debrief over.
func ParseClockTimestamp(s string) int64 {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0
	}
	mins, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || mins < 0 {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || secs < 0 || secs > 59 {
		return 0
	}
	return int64(mins*60+secs) * 1000
}
