package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quidome/media-ledger/pkg/plan"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		wantID     string
		wantEdited bool
		wantOK     bool
	}{
		{name: "IMG_0101.JPG", wantID: "0101", wantOK: true},
		{name: "IMG_E0101.JPG", wantID: "0101", wantEdited: true, wantOK: true},
		{name: "2021-03-04_IMG_0101.JPG", wantID: "0101", wantOK: true},
		{name: "2021-03-04_IMG_0101_beach.JPG", wantID: "0101", wantOK: true},
		{name: "2021-03-04_IMG_E0101.JPG", wantID: "0101", wantEdited: true, wantOK: true},
		{name: "holiday.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, edited, ok := Identifier(tt.name)
			if ok != tt.wantOK || id != tt.wantID || edited != tt.wantEdited {
				t.Fatalf("Identifier(%q) = %q, %v, %v", tt.name, id, edited, ok)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	candidates := []Candidate{
		{Year: "2021", Month: "2021-02", Name: "2021-02-28_IMG_0099.JPG"},
		{Year: "2021", Month: "2021-03", Name: "2021-03-04_IMG_0101.JPG"},
		{Year: "2021", Month: "2021-03", Name: "2021-03-04_IMG_0101.MOV"},
		{Year: "2021", Month: "2021-03", Name: "2021-03-05_IMG_E0102.JPG"},
		{Year: "2021", Month: "2021-04", Name: "2021-04-01_IMG_0101.JPG"},
	}

	tests := []struct {
		name   string
		edited string
		want   Candidate
		wantOK bool
	}{
		{
			name:   "first in month then filename order",
			edited: "IMG_E0101.JPG",
			want:   candidates[1],
			wantOK: true,
		},
		{
			name:   "extension is ignored",
			edited: "IMG_E0101.HEIC",
			want:   candidates[1],
			wantOK: true,
		},
		{
			name:   "edited variants are not originals",
			edited: "IMG_E0102.JPG",
		},
		{
			name:   "no match",
			edited: "IMG_E0500.JPG",
		},
		{
			name:   "not an edited name",
			edited: "IMG_0101.JPG",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(candidates, tt.edited)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("Match() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAgainstDisk(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "IMG_0101.JPG")
	if err := os.WriteFile(src, []byte("photo"), 0o644); err != nil {
		t.Fatal(err)
	}

	monthDir := filepath.Join(tmp, "Organized", "2021", "2021-03")
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, content string) string {
		p := filepath.Join(monthDir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	identical := write("2021-03-04_IMG_0101.JPG", "photo")
	different := write("2021-03-05_IMG_0101.JPG", "other")
	write("2021-03-07_IMG_0101.JPG", "other")
	renamedIdentical := write("2021-03-07_IMG_0101_1.JPG", "photo")

	tests := []struct {
		name   string
		dest   string
		action Action
		target string
	}{
		{name: "identical", dest: identical, action: ActionSkippedIdentical, target: identical},
		{name: "different", dest: different, action: ActionCopyRenamed, target: filepath.Join(monthDir, "2021-03-05_IMG_0101_1.JPG")},
		{name: "free", dest: filepath.Join(monthDir, "2021-03-06_IMG_0101.JPG"), action: ActionCopy, target: filepath.Join(monthDir, "2021-03-06_IMG_0101.JPG")},
		{name: "identical under suffix", dest: filepath.Join(monthDir, "2021-03-07_IMG_0101.JPG"), action: ActionSkippedIdentical, target: renamedIdentical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := AgainstDisk(plan.Operation{SourcePath: src, DestinationPath: tt.dest})
			if err != nil {
				t.Fatalf("AgainstDisk: %v", err)
			}
			if d.Action != tt.action || d.Target != tt.target {
				t.Fatalf("decision = %s %q, want %s %q", d.Action, d.Target, tt.action, tt.target)
			}
		})
	}
}

func TestSameContent(t *testing.T) {
	tmp := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(tmp, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	data := make([]byte, 2*chunkBytes+1024)
	for i := range data {
		data[i] = byte(i)
	}
	a := write("a", data)
	same := write("same", data)
	data[len(data)-1] ^= 0xff
	tail := write("tail", data)
	exact := write("exact", data[:chunkBytes])
	exactCopy := write("exact-copy", data[:chunkBytes])
	shorter := write("short", data[:100])

	tests := []struct {
		name string
		x, y string
		want bool
	}{
		{name: "identical multi-chunk", x: a, y: same, want: true},
		{name: "differs in last chunk", x: a, y: tail, want: false},
		{name: "exact chunk size", x: exact, y: exactCopy, want: true},
		{name: "different size", x: a, y: shorter, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sameContent(tt.x, tt.y)
			if err != nil {
				t.Fatalf("sameContent: %v", err)
			}
			if got != tt.want {
				t.Fatalf("sameContent() = %v, want %v", got, tt.want)
			}
		})
	}
}
