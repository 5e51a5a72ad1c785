// Package plan derives container keys, stamped file names and destination
// paths for placed assets.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxNameLength is the longest file name most POSIX filesystems accept.
const MaxNameLength = 255

// Operation represents a planned copy from source to destination.
type Operation struct {
	SourcePath      string
	DestinationPath string
}

// YearKey returns the 4-digit year container key.
func YearKey(t time.Time) string {
	return fmt.Sprintf("%04d", t.Year())
}

// MonthKey returns the "YYYY-MM" month container key.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), t.Month())
}

// StampedName prefixes filename with the YYYY-MM-DD_ date stamp. A non-empty
// comment is sanitized and inserted before the extension.
func StampedName(t time.Time, filename, comment string) string {
	stamped := t.Format("2006-01-02") + "_" + filename
	if comment == "" {
		return stamped
	}
	ext := filepath.Ext(stamped)
	return strings.TrimSuffix(stamped, ext) + "_" + SanitizeComment(comment) + ext
}

// SanitizeComment replaces path separators and whitespace with underscores.
func SanitizeComment(comment string) string {
	comment = strings.TrimSpace(comment)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ' ', '\t', '\n', '\r':
			return '_'
		case 0:
			return -1
		}
		return r
	}, comment)
}

// CommentFits reports whether comment may be appended to stampedName. URLs
// are never appended, and the result must stay within MaxNameLength.
func CommentFits(stampedName, comment string) bool {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return false
	}
	if strings.Contains(comment, "https://") || strings.Contains(comment, "http://") {
		return false
	}
	return len(comment) < MaxNameLength-len(stampedName)-1
}

// Destination returns <root>/YYYY/YYYY-MM/<name>.
func Destination(root string, t time.Time, name string) string {
	return filepath.Join(root, YearKey(t), MonthKey(t), name)
}

// Unique returns name, or the first free Suffixed variant when name is
// already taken. The chosen name is marked as taken.
func Unique(name string, taken map[string]bool) string {
	candidate := name
	for i := 1; taken[candidate]; i++ {
		candidate = Suffixed(name, i)
	}
	taken[candidate] = true
	return candidate
}

// Suffixed inserts "_n" before the extension of name.
func Suffixed(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// Placement returns the copy operations for one placed asset: into its month
// directory and, when bufferDir is set, into the categorization buffer.
func Placement(organizedRoot, bufferDir, source string, t time.Time, name string) []Operation {
	ops := []Operation{{
		SourcePath:      source,
		DestinationPath: Destination(organizedRoot, t, name),
	}}
	if bufferDir != "" {
		ops = append(ops, Operation{
			SourcePath:      source,
			DestinationPath: filepath.Join(bufferDir, name),
		})
	}
	return ops
}
