package reconcile

import (
	"regexp"
	"strings"
)

// EditedPrefix marks a device-edited variant of an IMG_NNNN original.
const EditedPrefix = "IMG_E"

var reIdentifier = regexp.MustCompile(`IMG_(E?)(\d{4})`)

// Candidate is a placed file that may be the original of an edited asset.
type Candidate struct {
	Year  string
	Month string
	Name  string
}

// IsEdited reports whether name is an edited variant.
func IsEdited(name string) bool {
	return strings.HasPrefix(name, EditedPrefix)
}

// Identifier returns the 4-digit device identifier in name and whether the
// name carries the edited marker. Placement stamps before the IMG_ prefix are
// ignored.
func Identifier(name string) (id string, edited bool, ok bool) {
	m := reIdentifier.FindStringSubmatch(name)
	if m == nil {
		return "", false, false
	}
	return m[2], m[1] == "E", true
}

// Match finds the original of the edited file among candidates. Candidates
// must be ordered by month key then file name; the first original with the
// same identifier wins, whatever its extension. Edited variants are never
// matched.
func Match(candidates []Candidate, edited string) (Candidate, bool) {
	if !IsEdited(edited) {
		return Candidate{}, false
	}
	target, _, ok := Identifier(edited)
	if !ok {
		return Candidate{}, false
	}

	for _, c := range candidates {
		id, isEdited, ok := Identifier(c.Name)
		if !ok || isEdited || id != target {
			continue
		}
		return c, true
	}
	return Candidate{}, false
}
