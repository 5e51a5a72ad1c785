package ledger

import "sort"

// YearRecord is one year directory.
type YearRecord struct {
	Key string

	// OnDisk is set when the directory existed before the run.
	OnDisk bool

	// Months holds the month containers opened during the run, including the
	// originally-latest one.
	Months map[string]MonthRecord

	// Trusted months are placed into without questions.
	Trusted map[string]bool

	// OriginalLatest is the latest month on disk when the year was loaded.
	OriginalLatest string

	diskMonths []string
}

// MonthRecord is one month directory.
type MonthRecord struct {
	Key    string
	OnDisk bool

	// Existing are the files that were in the directory when it was opened,
	// minus any original replaced by an edited variant.
	Existing []string

	// Placed are the names assigned during the run, in placement order.
	Placed []string
}

// Names returns existing and placed names, sorted.
func (m MonthRecord) Names() []string {
	names := make([]string, 0, len(m.Existing)+len(m.Placed))
	names = append(names, m.Existing...)
	names = append(names, m.Placed...)
	sort.Strings(names)
	return names
}

func (y YearRecord) hasDiskMonth(key string) bool {
	i := sort.SearchStrings(y.diskMonths, key)
	return i < len(y.diskMonths) && y.diskMonths[i] == key
}

func removeName(names []string, name string) ([]string, bool) {
	for i, n := range names {
		if n == name {
			return append(names[:i:i], names[i+1:]...), true
		}
	}
	return names, false
}
