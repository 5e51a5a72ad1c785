package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Native reads metadata in-process without external tools. It covers the
// fields the date resolver needs and nothing more.
type Native struct {
	// Location is the zone written into QuickTime:CreationDate. Defaults to
	// time.Local.
	Location *time.Location
}

func NewNative() *Native {
	return &Native{}
}

func (n *Native) Metadata(ctx context.Context, path string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	defer f.Close()

	loc := n.Location
	if loc == nil {
		loc = time.Local
	}

	var fields map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		fields, err = exifFields(f)
	case ".mov", ".qt", ".mp4", ".m4v":
		fields, err = quickTimeFields(f, loc)
	case ".png":
		fields, err = pngFields(f)
	case ".aae":
		fields, err = aaeFields(f)
	default:
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, unavailable(path, err)
	}
	return fields, nil
}
