package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quidome/media-ledger/pkg/createdat"
	"github.com/quidome/media-ledger/pkg/metadata"
	"github.com/quidome/media-ledger/pkg/scan"
)

// Dated is the resolved timestamp of one file, or why it has none.
type Dated struct {
	Path    string
	Result  createdat.Result
	Comment string
	Err     error
}

// ResolveDates resolves the timestamp of path, or of every file under it when
// it is a directory, without placing anything.
func ResolveDates(ctx context.Context, gateway metadata.Gateway, path string, loc *time.Location, opts scan.Options) ([]Dated, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var files []scan.Record
	if fi.IsDir() {
		opts.IncludeAll = true
		records, err := scan.ScanRecords(os.DirFS(path), ".", opts)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		for _, rec := range records {
			rec.Path = filepath.Join(path, filepath.FromSlash(rec.Path))
			files = append(files, rec)
		}
	} else {
		files = []scan.Record{{Path: path, FileSizeBytes: fi.Size(), ModTime: fi.ModTime()}}
	}

	dated := make([]Dated, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return dated, err
		}
		d := Dated{Path: f.Path}
		ext := strings.ToLower(filepath.Ext(f.Path))
		if !createdat.Supported(ext) {
			d.Err = &createdat.UnsupportedTypeError{Path: f.Path, Ext: ext}
			dated = append(dated, d)
			continue
		}
		fields, err := gateway.Metadata(ctx, f.Path)
		if err != nil {
			fields = nil
		}
		d.Comment = metadata.Comment(fields)
		d.Result, d.Err = createdat.Resolve(f.Path, ext, fields, f.ModTime, createdat.Options{Location: loc})
		dated = append(dated, d)
	}
	return dated, nil
}
