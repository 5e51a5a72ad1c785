package scan

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"
	"testing/fstest"
	"time"
)

func media(data string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(data)}
}

// offload is a device dump as it arrives in the staging area.
var offload = fstest.MapFS{
	"offload/IMG_0001.JPG":                 media("a"),
	"offload/IMG_0001.AAE":                 media("b"),
	"offload/notes.txt":                    media("c"),
	"offload/.DS_Store":                    media("d"),
	"offload/100APPLE/IMG_0101.HEIC":       media("e"),
	"offload/100APPLE/IMG_0102.MOV":        media("f"),
	"offload/100APPLE/edits/IMG_E0101.JPG": media("g"),
	"offload/.trash/IMG_0009.JPG":          media("h"),
	"offload/Organized/2021/2021-03/x.jpg": media("i"),
}

func TestScanRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   []string
	}{
		{
			name:   "unlimited depth",
			mutate: func(*Options) {},
			want: []string{
				"100APPLE/IMG_0101.HEIC", "100APPLE/IMG_0102.MOV", "100APPLE/edits/IMG_E0101.JPG",
				"IMG_0001.AAE", "IMG_0001.JPG", "Organized/2021/2021-03/x.jpg",
			},
		},
		{
			name:   "depth 0 lists only the root",
			mutate: func(o *Options) { o.MaxDepth = 0 },
			want:   []string{"IMG_0001.AAE", "IMG_0001.JPG"},
		},
		{
			name:   "depth 1 includes one subdirectory",
			mutate: func(o *Options) { o.MaxDepth = 1 },
			want:   []string{"100APPLE/IMG_0101.HEIC", "100APPLE/IMG_0102.MOV", "IMG_0001.AAE", "IMG_0001.JPG"},
		},
		{
			name:   "skip dirs",
			mutate: func(o *Options) { o.SkipDirs = []string{"Organized", "100APPLE/edits"} },
			want:   []string{"100APPLE/IMG_0101.HEIC", "100APPLE/IMG_0102.MOV", "IMG_0001.AAE", "IMG_0001.JPG"},
		},
		{
			name: "include all keeps unknown types but not hidden files",
			mutate: func(o *Options) {
				o.MaxDepth = 0
				o.IncludeAll = true
			},
			want: []string{"IMG_0001.AAE", "IMG_0001.JPG", "notes.txt"},
		},
		{
			name: "extensions are normalized",
			mutate: func(o *Options) {
				o.MaxDepth = 0
				o.PhotoExtensions = []string{"JPG", " "}
				o.VideoExtensions = nil
				o.SidecarExtensions = nil
			},
			want: []string{"IMG_0001.JPG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			records, err := ScanRecords(offload, "offload", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := paths(records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

func TestScanRecords_SizeAndModTime(t *testing.T) {
	mtime := time.Date(2021, 3, 4, 18, 22, 10, 0, time.UTC)
	fsys := fstest.MapFS{
		"IMG_0001.JPG": &fstest.MapFile{Data: []byte("12345"), ModTime: mtime},
	}

	got, err := ScanRecords(fsys, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Record{{Path: "IMG_0001.JPG", FileSizeBytes: 5, ModTime: mtime}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, want)
	}
}

func TestScanRecords_InvalidMaxDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = -2

	if _, err := ScanRecords(fstest.MapFS{}, "root", opts); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("expected fs.ErrInvalid, got %v", err)
	}
}

func paths(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}
