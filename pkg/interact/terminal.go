package interact

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Terminal prompts an operator on a reader/writer pair.
type Terminal struct {
	reader *bufio.Reader
	writer io.Writer
	loc    *time.Location
}

// NewTerminal creates a Terminal. Use os.Stdin and os.Stderr for normal
// operation, or buffers for testing.
func NewTerminal(reader io.Reader, writer io.Writer, loc *time.Location) *Terminal {
	if loc == nil {
		loc = time.Local
	}
	return &Terminal{
		reader: bufio.NewReader(reader),
		writer: writer,
		loc:    loc,
	}
}

func (t *Terminal) Confirm(ctx context.Context, q Question) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if q.Kind == QuestionComment {
		return t.confirmComment(q)
	}
	return t.confirmPlacement(q)
}

func (t *Terminal) confirmComment(q Question) (Response, error) {
	fmt.Fprintf(t.writer, "\nComment found in %s:\n\t%s\n", q.Asset, q.Comment)
	answer, err := t.ask("Append to filename? [y/N]: ")
	if errors.Is(err, io.EOF) {
		return Response{}, nil
	}
	if err != nil {
		return Response{}, err
	}
	return Response{Accepted: yes(answer)}, nil
}

func (t *Terminal) confirmPlacement(q Question) (Response, error) {
	fmt.Fprintf(t.writer, "\n%s is dated %s, but a more recent %s exists (%s); the timestamp may be wrong.\n",
		q.Asset, q.CreatedAt.Format("2006-01-02 15:04:05"), q.Kind, q.Latest)

	for {
		answer, err := t.ask("Enter a date (YYYY-MM-DD[ HH:MM:SS]) to override, [y] to place in " + q.Key + " anyway, [s] to skip: ")
		if errors.Is(err, io.EOF) {
			// No operator left; skip rather than guess.
			return Response{}, nil
		}
		if err != nil {
			return Response{}, err
		}

		switch strings.ToLower(answer) {
		case "", "y", "yes":
			resp := Response{Accepted: true}
			if q.AllowSilence {
				silence, err := t.ask("Ignore future warnings for " + q.Key + "? [y/N]: ")
				if err != nil && !errors.Is(err, io.EOF) {
					return Response{}, err
				}
				resp.PersistSilence = yes(silence)
			}
			return resp, nil
		case "s", "skip", "n", "no":
			return Response{}, nil
		}

		manual, err := ParseManualDate(answer, t.loc)
		if err != nil {
			fmt.Fprintf(t.writer, "%v\n", err)
			continue
		}
		return Response{ManualDate: &manual}, nil
	}
}

// ask writes prompt and reads one trimmed line. A final line without a
// newline is still returned; io.EOF is only reported when nothing was read.
func (t *Terminal) ask(prompt string) (string, error) {
	fmt.Fprint(t.writer, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
