package createdat

import "fmt"

// UnsupportedTypeError is returned for extensions without a resolution rule.
type UnsupportedTypeError struct {
	Path string
	Ext  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: unsupported file type %q", e.Path, e.Ext)
}

// TimezoneShiftError is returned when the MP4 correction would move the
// timestamp into the previous day.
type TimezoneShiftError struct {
	Path  string
	Value string
	Hour  int
	Shift int
}

func (e *TimezoneShiftError) Error() string {
	return fmt.Sprintf("%s: shifting %q by -%dh would change the date (hour %d)", e.Path, e.Value, e.Shift, e.Hour)
}
