package createdat

import (
	"regexp"
	"strconv"
	"time"
)

var reStamp = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})_`)

// ParseStamp reads the YYYY-MM-DD_ placement stamp at the start of a file
// name. The returned time is midnight in loc.
func ParseStamp(name string, loc *time.Location) (time.Time, bool) {
	m := reStamp.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	y, ok := atoi(m[1])
	if !ok {
		return time.Time{}, false
	}
	mo, ok := atoi(m[2])
	if !ok || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	d, ok := atoi(m[3])
	if !ok || d < 1 || d > 31 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		// 2021-02-30 and friends normalise into the next month.
		return time.Time{}, false
	}
	return t, true
}

// FromStamp returns a result dated by a placement stamp. It bypasses the
// out-of-order checks like a manual override does.
func FromStamp(kind Kind, t time.Time) Result {
	return Result{
		CreatedAt:     t,
		Kind:          kind,
		Source:        SourceFilename,
		BypassWarning: true,
	}
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
