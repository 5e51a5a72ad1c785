// Package scan lists the media files of a source tree in the order they are
// organized: lexicographic by slash-separated relative path.
package scan

import (
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

type Options struct {
	// MaxDepth limits recursion; 0 lists only root, -1 is unlimited.
	MaxDepth int

	PhotoExtensions   []string
	VideoExtensions   []string
	SidecarExtensions []string

	// IncludeAll returns every regular file regardless of extension, so the
	// caller can report unsupported types instead of silently ignoring them.
	IncludeAll bool

	// SkipDirs are relative directory paths that are not descended into.
	SkipDirs []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		PhotoExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".tif", ".tiff", ".bmp",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".m4v", ".qt", ".mkv", ".avi", ".webm", ".mts", ".3gp",
		},
		SidecarExtensions: []string{
			".aae",
		},
	}
}

type Record struct {
	Path          string    `json:"path"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
}

// ScanRecords walks root and returns the matching files. Hidden files and
// directories (leading dot) are skipped.
func ScanRecords(fsys fs.FS, root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}
	f := newFilter(opts)

	var records []Record
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := relative(root, p)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if !f.descend(rel, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !f.keep(rel, d) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		records = append(records, Record{Path: rel, FileSizeBytes: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.Path, b.Path) })
	return records, nil
}

// filter decides which entries of the walk are kept.
type filter struct {
	maxDepth int
	all      bool
	exts     map[string]bool
	skip     map[string]bool
}

func newFilter(opts Options) filter {
	f := filter{
		maxDepth: opts.MaxDepth,
		all:      opts.IncludeAll,
		exts:     make(map[string]bool),
		skip:     make(map[string]bool, len(opts.SkipDirs)),
	}
	for _, list := range [][]string{opts.PhotoExtensions, opts.VideoExtensions, opts.SidecarExtensions} {
		for _, ext := range list {
			if e := normalizeExt(ext); e != "" {
				f.exts[e] = true
			}
		}
	}
	for _, d := range opts.SkipDirs {
		f.skip[path.Clean(strings.ReplaceAll(d, `\`, "/"))] = true
	}
	return f
}

func (f filter) descend(rel, name string) bool {
	return !hidden(name) && !f.skip[rel] && f.withinDepth(rel)
}

func (f filter) keep(rel string, d fs.DirEntry) bool {
	if hidden(d.Name()) || !d.Type().IsRegular() || !f.withinDepth(rel) {
		return false
	}
	return f.all || f.exts[strings.ToLower(path.Ext(rel))]
}

// withinDepth reports whether rel is at most maxDepth directories below root.
func (f filter) withinDepth(rel string) bool {
	return f.maxDepth < 0 || strings.Count(rel, "/") <= f.maxDepth
}

// relative returns p relative to root; fs.FS paths are always slash-separated.
func relative(root, p string) string {
	if root == "." {
		return p
	}
	if p == root {
		return "."
	}
	return strings.TrimPrefix(p, root+"/")
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func normalizeExt(ext string) string {
	e := strings.ToLower(strings.TrimSpace(ext))
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
