package createdat

import (
	"fmt"
	"strings"
	"time"

	"github.com/quidome/media-ledger/pkg/metadata"
)

// Kind classifies an asset by its extension.
type Kind string

const (
	KindPhoto             Kind = "photo"
	KindVideo             Kind = "video"
	KindAdjustmentSidecar Kind = "sidecar"
)

// Source describes where a CreatedAt timestamp was derived from.
type Source string

const (
	SourceMetadata Source = "metadata"
	// SourceFilename is a date taken from a YYYY-MM-DD_ placement stamp.
	SourceFilename Source = "filename"
	SourceMtime    Source = "mtime"
	SourceManual   Source = "manual"
)

// MP4ShiftHours is the correction applied to QuickTime:CreateDate of
// MP4-family files.
const MP4ShiftHours = 4

// Result contains the resolved timestamp and how it was obtained.
type Result struct {
	CreatedAt time.Time
	Kind      Kind
	Source    Source

	// Field is the metadata field the timestamp was read from, if any.
	Field string

	// LowConfidence is set when the modification time was used.
	LowConfidence bool

	// BypassWarning is set only for operator-supplied timestamps.
	BypassWarning bool

	// Malformed holds the raw field value when it was present but could not
	// be parsed.
	Malformed string
}

// Options configures Resolve.
type Options struct {
	// Location is used for metadata timestamps that carry no zone and for
	// the modification time fallback. If nil, time.Local is used.
	Location *time.Location
}

type rule struct {
	kind  Kind
	field string
	parse func(value string, loc *time.Location) (time.Time, error)
}

var rules = map[string]rule{
	".jpg":  {kind: KindPhoto, field: metadata.FieldDateTimeOriginal, parse: parseNaive},
	".jpeg": {kind: KindPhoto, field: metadata.FieldDateTimeOriginal, parse: parseNaive},
	".png":  {kind: KindPhoto, field: metadata.FieldXMPDateCreated, parse: parseNaive},
	".mov":  {kind: KindVideo, field: metadata.FieldCreationDate, parse: parseWithOffset},
	".qt":   {kind: KindVideo, field: metadata.FieldCreationDate, parse: parseWithOffset},
	".mp4":  {kind: KindVideo, field: metadata.FieldCreateDate, parse: parseNaive},
	".m4v":  {kind: KindVideo, field: metadata.FieldCreateDate, parse: parseNaive},
	".aae":  {kind: KindAdjustmentSidecar, field: metadata.FieldAdjustmentTimestamp, parse: parseZulu},
}

// Supported reports whether ext (with leading dot, any case) has a rule.
func Supported(ext string) bool {
	_, ok := rules[strings.ToLower(ext)]
	return ok
}

// KindOf returns the asset kind for ext.
func KindOf(ext string) (Kind, bool) {
	r, ok := rules[strings.ToLower(ext)]
	return r.kind, ok
}

// Resolve picks the canonical timestamp for the file at path.
//
// fields may be nil when the metadata gateway failed; the modification time
// is then used.
func Resolve(path, ext string, fields map[string]string, modTime time.Time, opts Options) (Result, error) {
	ext = strings.ToLower(ext)
	r, ok := rules[ext]
	if !ok {
		return Result{}, &UnsupportedTypeError{Path: path, Ext: ext}
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	result := Result{Kind: r.kind, Field: r.field}

	raw := strings.TrimSpace(fields[r.field])
	if raw != "" {
		t, err := r.parse(raw, loc)
		if err == nil {
			if isMP4(ext) {
				if t, err = shiftMP4(path, raw, t); err != nil {
					return Result{}, err
				}
			}
			result.CreatedAt = t
			result.Source = SourceMetadata
			return result, nil
		}
		result.Malformed = raw
	}

	result.CreatedAt = modTime.In(loc)
	result.Source = SourceMtime
	result.Field = ""
	result.LowConfidence = true
	return result, nil
}

// Manual returns a result for an operator-supplied timestamp.
func Manual(kind Kind, t time.Time) Result {
	return Result{
		CreatedAt:     t,
		Kind:          kind,
		Source:        SourceManual,
		BypassWarning: true,
	}
}

func isMP4(ext string) bool {
	return ext == ".mp4" || ext == ".m4v"
}

func shiftMP4(path, raw string, t time.Time) (time.Time, error) {
	if t.Hour() <= MP4ShiftHours {
		return time.Time{}, &TimezoneShiftError{Path: path, Value: raw, Hour: t.Hour(), Shift: MP4ShiftHours}
	}
	return t.Add(-MP4ShiftHours * time.Hour), nil
}

const exifLayout = "2006:01:02 15:04:05"

func parseNaive(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(exifLayout, value, loc)
}

// parseWithOffset accepts both "-0400" and exiftool's "-04:00".
func parseWithOffset(value string, _ *time.Location) (time.Time, error) {
	t, err := time.Parse(exifLayout+"-07:00", value)
	if err == nil {
		return t, nil
	}
	return time.Parse(exifLayout+"-0700", value)
}

// parseZulu drops the trailing Z and treats the value as naive local time.
func parseZulu(value string, loc *time.Location) (time.Time, error) {
	if !strings.HasSuffix(value, "Z") {
		return time.Time{}, fmt.Errorf("missing Z suffix: %q", value)
	}
	return parseNaive(strings.TrimSuffix(value, "Z"), loc)
}
