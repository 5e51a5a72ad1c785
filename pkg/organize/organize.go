// Package organize runs the placement of a source tree into the organized
// Year/Month hierarchy: resolve each file's date, insert it into the ledger,
// then copy it into its month directory and the categorization buffer.
package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/quidome/media-ledger/pkg/copy"
	"github.com/quidome/media-ledger/pkg/createdat"
	"github.com/quidome/media-ledger/pkg/interact"
	"github.com/quidome/media-ledger/pkg/journal"
	"github.com/quidome/media-ledger/pkg/ledger"
	"github.com/quidome/media-ledger/pkg/logging"
	"github.com/quidome/media-ledger/pkg/metadata"
	"github.com/quidome/media-ledger/pkg/plan"
	"github.com/quidome/media-ledger/pkg/reconcile"
	"github.com/quidome/media-ledger/pkg/scan"
)

const (
	// OrganizedDir is the directory under the root holding the year tree.
	OrganizedDir = "Organized"
	lockFile     = ".media-organizer.lock"
)

// Recorder stores runs and their entries. *journal.Journal implements it.
type Recorder interface {
	StartRun(ctx context.Context, r journal.Run) error
	FinishRun(ctx context.Context, r journal.Run) error
	Record(ctx context.Context, e journal.Entry) error
}

// Options configures a run.
type Options struct {
	// Root contains the Organized directory.
	Root string
	// BufferDir receives a copy of every placed file. Empty disables it.
	BufferDir string
	// DryRun makes every decision without touching the filesystem.
	DryRun bool
	// Location is used for naive timestamps and placement stamps.
	Location *time.Location
	// RunID identifies the run in the journal. Empty generates one.
	RunID string
	// Scan selects the source files. IncludeAll is forced on so unsupported
	// files are reported.
	Scan scan.Options
}

// Deps are the collaborators of an Organizer. Journal, Logger, Clock and IDs
// are optional.
type Deps struct {
	Gateway metadata.Gateway
	Policy  interact.Policy
	Journal Recorder
	Logger  *slog.Logger
	Clock   Clock
	IDs     IDGenerator
}

// Organizer places source files into the organized tree.
type Organizer struct {
	gateway metadata.Gateway
	policy  interact.Policy
	journal Recorder
	logger  *slog.Logger
	clock   Clock
	ids     IDGenerator
}

func New(d Deps) *Organizer {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	if d.IDs == nil {
		d.IDs = UUIDGenerator{}
	}
	return &Organizer{
		gateway: d.Gateway,
		policy:  d.Policy,
		journal: d.Journal,
		logger:  d.Logger,
		clock:   d.Clock,
		ids:     d.IDs,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID     string
	Placed    int
	Unchanged int
	Skipped   int
	Failed    int
	Entries   []journal.Entry
}

// run holds the state of one Run call.
type run struct {
	*Organizer
	opts      Options
	organized string
	ledger    *ledger.Ledger
	recorder  Recorder
	id        string
}

// Run organizes every file under source. Per-file problems are logged,
// journaled and skipped; the returned error is reserved for problems that
// stop the run.
func (o *Organizer) Run(ctx context.Context, source string, opts Options) (Summary, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	organized := filepath.Join(opts.Root, OrganizedDir)
	if fi, err := os.Stat(organized); err != nil || !fi.IsDir() {
		return Summary{}, &OrganizeFolderError{Path: organized}
	}

	if !opts.DryRun {
		lock := flock.New(filepath.Join(organized, lockFile))
		ok, err := lock.TryLock()
		if err != nil {
			return Summary{}, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return Summary{}, ErrLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				o.logger.Warn("failed to release lock", "error", err)
			}
		}()

		if opts.BufferDir != "" {
			if err := os.MkdirAll(opts.BufferDir, 0o755); err != nil {
				return Summary{}, fmt.Errorf("create buffer directory: %w", err)
			}
		}
	}

	records, err := o.sources(source, organized, opts)
	if err != nil {
		return Summary{}, err
	}

	l, err := ledger.Load(os.DirFS(organized), o.policy, ledger.Options{Logger: o.logger, Location: opts.Location})
	if err != nil {
		return Summary{}, fmt.Errorf("load organized tree: %w", err)
	}

	id := opts.RunID
	if id == "" {
		id = o.ids.New()
	}
	r := &run{Organizer: o, opts: opts, organized: organized, ledger: l, recorder: o.journal, id: id}
	meta := journal.Run{ID: r.id, StartedAt: o.clock.Now(), Root: opts.Root, DryRun: opts.DryRun}
	if r.recorder != nil {
		if err := r.recorder.StartRun(ctx, meta); err != nil {
			o.logger.Warn("journal unavailable", "error", err)
			r.recorder = nil
		}
	}
	o.logger.Info("organizing", "source", source, "organized", organized, "files", len(records), "dry_run", opts.DryRun)

	summary := Summary{RunID: r.id}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		e, err := r.process(ctx, filepath.Join(source, filepath.FromSlash(rec.Path)), rec)
		if err != nil {
			return summary, err
		}
		summary.add(e)
		if r.recorder != nil {
			if err := r.recorder.Record(ctx, e); err != nil {
				o.logger.Warn("failed to journal entry", "file", e.Source, "error", err)
			}
		}
	}

	meta.FinishedAt = o.clock.Now()
	meta.Placed = summary.Placed
	meta.Skipped = summary.Skipped + summary.Unchanged
	meta.Failed = summary.Failed
	if r.recorder != nil {
		if err := r.recorder.FinishRun(ctx, meta); err != nil {
			o.logger.Warn("failed to finish journal run", "error", err)
		}
	}
	o.logger.Info("done", "placed", summary.Placed, "unchanged", summary.Unchanged,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

func (s *Summary) add(e journal.Entry) {
	switch e.Action {
	case journal.ActionPlaced, journal.ActionReplaced:
		s.Placed++
	case journal.ActionUnchanged:
		s.Unchanged++
	case journal.ActionSkipped:
		s.Skipped++
	case journal.ActionFailed:
		s.Failed++
	}
	s.Entries = append(s.Entries, e)
}

// sources lists the files to organize, leaving out the organized tree and the
// buffer when they live inside source.
func (o *Organizer) sources(source, organized string, opts Options) ([]scan.Record, error) {
	so := opts.Scan
	so.IncludeAll = true
	for _, dir := range []string{organized, opts.BufferDir} {
		if dir == "" {
			continue
		}
		if rel, err := filepath.Rel(source, dir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			so.SkipDirs = append(so.SkipDirs, rel)
		}
	}
	records, err := scan.ScanRecords(os.DirFS(source), ".", so)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", source, err)
	}
	return records, nil
}

// process handles a single source file. Only cancellation is returned as an
// error; everything else ends up in the entry.
func (r *run) process(ctx context.Context, src string, rec scan.Record) (journal.Entry, error) {
	name := filepath.Base(src)
	e := journal.Entry{RunID: r.id, Source: src, RecordedAt: r.clock.Now()}
	log := r.logger.With("file", name)

	ext := strings.ToLower(filepath.Ext(name))
	if !createdat.Supported(ext) {
		err := &createdat.UnsupportedTypeError{Path: src, Ext: ext}
		log.Warn("skipping", "reason", err)
		return skipped(e, err.Error()), nil
	}

	fields, err := r.gateway.Metadata(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return e, ctx.Err()
		}
		log.Warn("metadata unavailable, falling back to modification time", "error", err)
		fields = nil
	}

	date, err := createdat.Resolve(src, ext, fields, rec.ModTime, createdat.Options{Location: r.opts.Location})
	if err != nil {
		var shift *createdat.TimezoneShiftError
		if errors.As(err, &shift) {
			log.Error("cannot place file", "reason", err)
			e.Action = journal.ActionFailed
			e.Reason = err.Error()
			return e, nil
		}
		log.Warn("skipping", "reason", err)
		return skipped(e, err.Error()), nil
	}
	e.CreatedAt = date.CreatedAt
	e.DateSource = string(date.Source)
	e.Field = date.Field
	e.LowConfidence = date.LowConfidence
	if date.Malformed != "" {
		log.Warn("unparseable date field, using modification time", "value", date.Malformed)
	} else if date.LowConfidence {
		log.Warn("no date field, using modification time", "created_at", date.CreatedAt)
	}

	p, err := r.ledger.Insert(ctx, ledger.Asset{Path: src, Name: name, Date: date, Comment: metadata.Comment(fields)})
	if err != nil {
		if ctx.Err() != nil {
			return e, ctx.Err()
		}
		if errors.Is(err, ledger.ErrDeclined) {
			log.Warn("skipping", "reason", "placement declined")
			return skipped(e, "declined"), nil
		}
		log.Error("cannot place file", "error", err)
		e.Action = journal.ActionFailed
		e.Reason = err.Error()
		return e, nil
	}
	e.CreatedAt = p.CreatedAt
	e.DateSource = string(p.Source)
	e.Bypassed = p.Bypassed
	if p.Skipped {
		log.Debug("skipping", "reason", p.Reason)
		return skipped(e, p.Reason), nil
	}

	if p.Replaced != nil {
		e.Reason = "replaces " + p.Replaced.Name
	}
	return r.place(ctx, log, e, p)
}

// removeReplaced deletes the original an edited file stands in for, once the
// edited file is in its month directory.
func (r *run) removeReplaced(log *slog.Logger, p ledger.Placement) {
	if p.Replaced == nil || r.opts.DryRun {
		return
	}
	paths := []string{filepath.Join(r.organized, p.Replaced.Year, p.Replaced.Month, p.Replaced.Name)}
	if r.opts.BufferDir != "" {
		paths = append(paths, filepath.Join(r.opts.BufferDir, p.Replaced.Name))
	}
	if err := copy.Remove(paths...); err != nil {
		log.Warn("failed to remove replaced original", "error", err)
	}
}

// place checks the planned copies against the disk and performs them. The
// month copy decides the final name; the buffer copy follows it.
func (r *run) place(ctx context.Context, log *slog.Logger, e journal.Entry, p ledger.Placement) (journal.Entry, error) {
	month, err := reconcile.AgainstDisk(plan.Placement(r.organized, "", e.Source, p.CreatedAt, p.Name)[0])
	if err != nil {
		r.ledger.Remove(p)
		log.Error("cannot check destination", "error", err)
		e.Action = journal.ActionFailed
		e.Reason = err.Error()
		return e, nil
	}
	e.Target = month.Target
	if month.Action == reconcile.ActionSkippedIdentical {
		log.Info("identical file already organized", "target", e.Target)
		e.Action = journal.ActionUnchanged
		r.removeReplaced(log, p)
		return e, nil
	}
	if month.Action == reconcile.ActionCopyRenamed {
		p = r.ledger.Rename(p, filepath.Base(month.Target))
		log.Info("name taken, renaming", "name", p.Name)
	}

	pending := []plan.Operation{{SourcePath: e.Source, DestinationPath: month.Target}}
	if r.opts.BufferDir != "" {
		ops := plan.Placement(r.organized, r.opts.BufferDir, e.Source, p.CreatedAt, p.Name)
		buffered, err := reconcile.AgainstDisk(ops[1])
		switch {
		case err != nil:
			log.Warn("cannot check buffer", "error", err)
		case buffered.Action != reconcile.ActionSkippedIdentical:
			pending = append(pending, plan.Operation{SourcePath: e.Source, DestinationPath: buffered.Target})
		}
	}

	e.Action = journal.ActionPlaced
	if p.Replaced != nil {
		e.Action = journal.ActionReplaced
	}
	if p.Bypassed {
		log.Warn("placed out of order", "month", p.Month, "source", p.Source)
	}

	if r.opts.DryRun {
		log.Info("would place", "target", e.Target)
		return e, nil
	}

	results, err := copy.Execute(ctx, pending, copy.Options{})
	if err != nil {
		return e, err
	}
	for _, res := range results {
		if res.Success {
			continue
		}
		if res.Operation.DestinationPath == month.Target {
			r.ledger.Remove(p)
			log.Error("copy failed", "error", res.Error)
			e.Action = journal.ActionFailed
			e.Reason = res.Error.Error()
			return e, nil
		}
		log.Warn("buffer copy failed", "error", res.Error)
	}
	r.removeReplaced(log, p)
	log.Info("placed", "target", e.Target)
	return e, nil
}

func skipped(e journal.Entry, reason string) journal.Entry {
	e.Action = journal.ActionSkipped
	e.Reason = reason
	return e
}
