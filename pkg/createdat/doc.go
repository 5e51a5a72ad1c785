// Package createdat resolves a single canonical creation timestamp for a
// media file from the metadata fields a gateway returned and the file's
// modification time.
//
// Each supported extension has one primary field. When that field is absent
// or cannot be parsed the modification time is used and the result is marked
// low confidence. MP4-family containers record local time as UTC without an
// offset and are shifted back by a fixed number of hours; a shift that would
// cross midnight is refused with a TimezoneShiftError.
package createdat
