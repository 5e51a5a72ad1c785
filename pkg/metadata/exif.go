package metadata

import (
	"bytes"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// exifFields decodes the EXIF block of a JPEG stream.
func exifFields(r io.Reader) (map[string]string, error) {
	x, err := exif.Decode(r)
	if err != nil {
		// A non-critical error still means the block was unusable.
		return nil, err
	}

	fields := make(map[string]string)
	if s, ok := exifString(x, exif.DateTimeOriginal); ok {
		fields[FieldDateTimeOriginal] = s
	}
	if s, ok := exifString(x, exif.ImageDescription); ok {
		fields[FieldImageDescription] = s
	}
	if s, ok := exifUserComment(x); ok {
		fields[FieldUserComment] = s
	}
	return fields, nil
}

func exifString(x *exif.Exif, tag exif.FieldName) (string, bool) {
	f, err := x.Get(tag)
	if err != nil {
		return "", false
	}
	s, err := f.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	return s, s != ""
}

// exifUserComment handles the UNDEFINED-typed UserComment tag, whose first
// eight bytes name the character code. Only ASCII comments are read.
func exifUserComment(x *exif.Exif) (string, bool) {
	f, err := x.Get(exif.UserComment)
	if err != nil || len(f.Val) <= 8 {
		return "", false
	}
	if !bytes.HasPrefix(f.Val, []byte("ASCII")) {
		return "", false
	}
	s := strings.TrimSpace(strings.TrimRight(string(f.Val[8:]), "\x00"))
	return s, s != ""
}
