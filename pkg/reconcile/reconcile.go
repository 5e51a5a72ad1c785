// Package reconcile matches edited variants with their placed originals and
// checks planned copies against what already exists on disk.
package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quidome/media-ledger/pkg/plan"
)

const chunkBytes = 64 * 1024

// Action describes what should happen for a planned copy.
type Action string

const (
	ActionCopy             Action = "copy"
	ActionCopyRenamed      Action = "copy_renamed"
	ActionSkippedIdentical Action = "skipped_identical"
)

// Decision is the outcome of checking one planned copy against the disk.
type Decision struct {
	Operation plan.Operation

	// Target is where the file should be copied to, or where an identical
	// copy already lives.
	Target string
	Action Action
}

// AgainstDisk checks the destination of op. Identical content already there
// needs no copy; different content moves the copy to the first free
// plan.Suffixed name.
func AgainstDisk(op plan.Operation) (Decision, error) {
	dir, name := filepath.Split(op.DestinationPath)

	for n := 0; ; n++ {
		candidate := op.DestinationPath
		if n > 0 {
			candidate = filepath.Join(dir, plan.Suffixed(name, n))
		}

		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			d := Decision{Operation: op, Target: candidate, Action: ActionCopy}
			if n > 0 {
				d.Action = ActionCopyRenamed
			}
			return d, nil
		}
		if err != nil {
			return Decision{}, fmt.Errorf("stat %s: %w", candidate, err)
		}

		same, err := sameContent(op.SourcePath, candidate)
		if err != nil {
			return Decision{}, err
		}
		if same {
			return Decision{Operation: op, Target: candidate, Action: ActionSkippedIdentical}, nil
		}
	}
}

// sameContent compares two files chunk by chunk, stopping at the first
// difference.
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", a, err)
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", b, err)
	}
	defer fb.Close()

	ia, err := fa.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	ib, err := fb.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	bufA := make([]byte, chunkBytes)
	bufB := make([]byte, chunkBytes)
	for {
		na, doneA, err := readChunk(fa, bufA)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", a, err)
		}
		nb, doneB, err := readChunk(fb, bufB)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", b, err)
		}
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if doneA || doneB {
			return doneA && doneB, nil
		}
	}
}

// readChunk fills buf and reports whether the end of r was reached.
func readChunk(r io.Reader, buf []byte) (int, bool, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, true, nil
	}
	return n, false, err
}
