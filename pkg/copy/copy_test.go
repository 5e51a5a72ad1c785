package copy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quidome/media-ledger/pkg/plan"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func TestExecute_CopiesFileAndCreatesDirs(t *testing.T) {
	tmpSrc := t.TempDir()
	tmpDst := t.TempDir()

	srcPath := writeSource(t, tmpSrc, "IMG_0101.JPG", "test content")
	mtime := time.Date(2021, 3, 4, 18, 0, 0, 0, time.UTC)
	if err := os.Chtimes(srcPath, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	destPath := filepath.Join(tmpDst, "2021", "2021-03", "2021-03-04_IMG_0101.JPG")
	ops := []plan.Operation{{SourcePath: srcPath, DestinationPath: destPath}}

	results, err := Execute(context.Background(), ops, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Success {
		t.Fatalf("expected success, got %v", results[0].Error)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "test content" {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(destPath)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestExecute_DoesNotOverwrite(t *testing.T) {
	tmpSrc := t.TempDir()
	tmpDst := t.TempDir()

	srcPath := writeSource(t, tmpSrc, "test.jpg", "new")
	destPath := writeSource(t, tmpDst, "test.jpg", "old")

	op := plan.Operation{SourcePath: srcPath, DestinationPath: destPath}
	results, err := Execute(context.Background(), []plan.Operation{op}, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if results[0].Success {
		t.Fatalf("expected failure when destination exists")
	}
	if !errors.Is(results[0].Error, ErrDestinationExists) {
		t.Fatalf("error = %v, want ErrDestinationExists", results[0].Error)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "old" {
		t.Fatalf("destination was overwritten: %q", got)
	}
}

func TestExecute_OverwriteWhenEnabled(t *testing.T) {
	tmpSrc := t.TempDir()
	tmpDst := t.TempDir()

	srcPath := writeSource(t, tmpSrc, "test.jpg", "new")
	destPath := writeSource(t, tmpDst, "test.jpg", "old")

	op := plan.Operation{SourcePath: srcPath, DestinationPath: destPath}
	results, err := Execute(context.Background(), []plan.Operation{op}, Options{Overwrite: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !results[0].Success {
		t.Fatalf("expected success, got %v", results[0].Error)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("expected overwritten content, got %q", got)
	}
}

func TestExecute_MonthAndBuffer(t *testing.T) {
	tmpSrc := t.TempDir()
	organized := filepath.Join(t.TempDir(), "Organized")
	buffer := filepath.Join(t.TempDir(), "buffer")

	src := writeSource(t, tmpSrc, "IMG_0101.JPG", "a")
	at := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	ops := plan.Placement(organized, buffer, src, at, "2021-03-04_IMG_0101.JPG")

	results, err := Execute(context.Background(), ops, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("result %d failed: %v", i, r.Error)
		}
		if _, err := os.Stat(r.Operation.DestinationPath); err != nil {
			t.Fatalf("result %d missing: %v", i, err)
		}
	}
}

func TestExecute_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ops := []plan.Operation{{SourcePath: "a", DestinationPath: filepath.Join(t.TempDir(), "a")}}
	results, err := Execute(ctx, ops, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.jpg", "a")
	missing := filepath.Join(dir, "missing.jpg")

	if err := Remove(a, missing); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", a, err)
	}
}

func TestExecute_LeavesNothingBehindOnFailure(t *testing.T) {
	tmpSrc := t.TempDir()
	tmpDst := t.TempDir()

	srcPath := writeSource(t, tmpSrc, "IMG_0001.JPG", "x")
	taken := writeSource(t, tmpDst, "2021-03-04_IMG_0001.JPG", "old")
	ops := []plan.Operation{
		{SourcePath: filepath.Join(tmpSrc, "missing.JPG"), DestinationPath: filepath.Join(tmpDst, "missing.JPG")},
		{SourcePath: srcPath, DestinationPath: taken},
	}

	results, err := Execute(context.Background(), ops, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i, r := range results {
		if r.Success {
			t.Fatalf("operation %d unexpectedly succeeded", i)
		}
	}

	entries, err := os.ReadDir(tmpDst)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "2021-03-04_IMG_0001.JPG" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("destination holds %v, want only the existing file", names)
	}
}
