// Package metadata reads the embedded date and comment fields of media files.
//
// Field names follow exiftool's "Group:Tag" convention so that the native
// reader and the exiftool adapter are interchangeable.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Field names produced by the gateways.
const (
	FieldDateTimeOriginal    = "EXIF:DateTimeOriginal"
	FieldCreationDate        = "QuickTime:CreationDate"
	FieldCreateDate          = "QuickTime:CreateDate"
	FieldXMPDateCreated      = "XMP:DateCreated"
	FieldAdjustmentTimestamp = "PLIST:AdjustmentTimestamp"

	FieldUserComment      = "EXIF:UserComment"
	FieldXMPUserComment   = "XMP:UserComment"
	FieldImageDescription = "EXIF:ImageDescription"
)

// ErrMetadataUnavailable is returned when a file cannot be read or the
// extraction fails. Callers should continue as if no fields were present.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// Gateway returns the metadata fields of a single file.
type Gateway interface {
	Metadata(ctx context.Context, path string) (map[string]string, error)
}

// Comment returns the first non-empty comment field, if any.
func Comment(fields map[string]string) string {
	for _, key := range []string{FieldUserComment, FieldXMPUserComment, FieldImageDescription} {
		if v := strings.TrimSpace(fields[key]); v != "" {
			return v
		}
	}
	return ""
}

// New returns the gateway registered under kind ("native" or "exiftool").
func New(kind string, exiftoolPath string) (Gateway, error) {
	switch kind {
	case "", "native":
		return NewNative(), nil
	case "exiftool":
		return NewExiftool(exiftoolPath, nil), nil
	default:
		return nil, fmt.Errorf("unknown metadata gateway: %s", kind)
	}
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%s: %w: %v", path, ErrMetadataUnavailable, err)
}
