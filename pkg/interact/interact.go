// Package interact decides what happens when an asset's timestamp looks out
// of order, and whether a metadata comment is appended to its name.
//
// The insertion ledger never reads a terminal itself; it asks a Policy.
// Terminal prompts an operator, Static always answers the same way and
// Scripted replays answers from a file.
package interact

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// QuestionKind identifies what is being confirmed.
type QuestionKind string

const (
	// QuestionYear is asked when an asset is older than the trusted years.
	QuestionYear QuestionKind = "year"
	// QuestionMonth is asked when an asset is older than the latest month.
	QuestionMonth QuestionKind = "month"
	// QuestionComment is asked before a comment is appended to a file name.
	QuestionComment QuestionKind = "comment"
)

// Question is a single confirmation request.
type Question struct {
	Kind QuestionKind

	// Asset is the source file name.
	Asset string

	// Key is the year or month container the asset would land in, and
	// Latest the most recent existing key it was compared with.
	Key    string
	Latest string

	CreatedAt time.Time

	// Comment is the sanitized comment for QuestionComment.
	Comment string

	// AllowSilence is set when the answer may silence future questions for
	// the same key.
	AllowSilence bool
}

// Response is the answer to a Question.
type Response struct {
	// Accepted places the asset (or appends the comment) as proposed.
	Accepted bool

	// ManualDate replaces the asset's timestamp. It takes precedence over
	// Accepted.
	ManualDate *time.Time

	// PersistSilence trusts the questioned month for the rest of the run.
	PersistSilence bool
}

// Policy answers questions. Implementations may block.
type Policy interface {
	Confirm(ctx context.Context, q Question) (Response, error)
}

// Manual date layouts accepted at prompts and in scripts.
var manualLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02 15:04:05",
	"2006-01-02",
}

// ParseManualDate parses an operator-entered date in loc.
func ParseManualDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range manualLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", s)
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Policy names accepted by FromName.
const (
	PolicyAuto   = "auto"
	PolicyPrompt = "prompt"
	PolicyTrust  = "trust"
	PolicyReject = "reject"
	PolicyScript = "script"
)

// Options configures FromName.
type Options struct {
	In         *os.File
	Out        io.Writer
	ScriptPath string
	Location   *time.Location
}

// FromName builds the policy registered under name. "auto" prompts when In is
// a terminal and trusts every placement otherwise.
func FromName(name string, opts Options) (Policy, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}

	switch name {
	case "", PolicyAuto:
		if IsInteractive(opts.In) {
			return NewTerminal(opts.In, opts.Out, opts.Location), nil
		}
		return Static{Accept: true}, nil
	case PolicyPrompt:
		return NewTerminal(opts.In, opts.Out, opts.Location), nil
	case PolicyTrust:
		return Static{Accept: true}, nil
	case PolicyReject:
		return Static{}, nil
	case PolicyScript:
		if opts.ScriptPath == "" {
			return nil, fmt.Errorf("policy %q needs a script path", name)
		}
		return LoadScript(opts.ScriptPath, opts.Location)
	default:
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
}
