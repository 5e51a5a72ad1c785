package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Exiftool reads metadata by running `exiftool -json -G`.
type Exiftool struct {
	path   string
	runner Runner
}

// NewExiftool returns an exiftool-backed gateway. An empty path uses
// "exiftool" from $PATH; a nil runner executes the real binary.
func NewExiftool(path string, runner Runner) *Exiftool {
	if path == "" {
		path = "exiftool"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &Exiftool{path: path, runner: runner}
}

func (e *Exiftool) Metadata(ctx context.Context, path string) (map[string]string, error) {
	out, err := e.runner.Output(ctx, e.path, "-json", "-G", path)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, unavailable(path, fmt.Errorf("%w: %s", err, exitErr.Stderr))
		}
		return nil, unavailable(path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, unavailable(path, fmt.Errorf("decode exiftool output: %w", err))
	}
	if len(records) == 0 {
		return nil, unavailable(path, errors.New("exiftool returned no records"))
	}

	fields := make(map[string]string, len(records[0]))
	for key, value := range records[0] {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
		default:
			fields[key] = fmt.Sprint(v)
		}
	}
	return fields, nil
}
