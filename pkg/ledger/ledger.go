package ledger

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/quidome/media-ledger/pkg/createdat"
	"github.com/quidome/media-ledger/pkg/interact"
	"github.com/quidome/media-ledger/pkg/logging"
	"github.com/quidome/media-ledger/pkg/plan"
	"github.com/quidome/media-ledger/pkg/reconcile"
)

// TrustedYears is the number of most recent years placed into without
// questions.
const TrustedYears = 2

var (
	reYearDir  = regexp.MustCompile(`^\d{4}$`)
	reMonthDir = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Asset is a resolved source file.
type Asset struct {
	// Path is the source path; Name defaults to its base name.
	Path string
	Name string

	Date createdat.Result

	// Comment is the raw metadata comment, if any.
	Comment string
}

// Removal names a file dropped from a month container.
type Removal struct {
	Year  string
	Month string
	Name  string
}

// Placement is where an asset was put.
type Placement struct {
	Year  string
	Month string
	Name  string

	CreatedAt time.Time
	Source    createdat.Source

	// Bypassed is set when the asset skipped the out-of-order checks.
	Bypassed bool
	// Prompted is set when the policy was consulted about the date.
	Prompted bool

	CreatedYear  bool
	CreatedMonth bool

	// Replaced is the original removed in favour of an edited variant.
	Replaced *Removal

	// Skipped is set for assets that are never placed, with the reason.
	Skipped bool
	Reason  string
}

// Options configures Load.
type Options struct {
	Logger *slog.Logger

	// Location is used for dates read from placement stamps.
	Location *time.Location
}

// Ledger is the in-memory view of an organized tree for one run.
type Ledger struct {
	fsys   fs.FS
	years  map[string]YearRecord
	policy interact.Policy
	logger *slog.Logger
	loc    *time.Location
}

// Load reads the year and month directories at the root of fsys. Every year
// is opened with its latest month, which is pre-trusted.
func Load(fsys fs.FS, policy interact.Policy, opts Options) (*Ledger, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	l := &Ledger{
		fsys:   fsys,
		years:  make(map[string]YearRecord),
		policy: policy,
		logger: opts.Logger,
		loc:    opts.Location,
	}

	years, err := listDirs(fsys, ".", reYearDir)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	for _, yk := range years {
		if err := l.loadYear(yk); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) loadYear(yk string) error {
	months, err := listDirs(l.fsys, yk, reMonthDir)
	if err != nil {
		return fmt.Errorf("list months of %s: %w", yk, err)
	}
	y := l.makeYear(yk)
	y.OnDisk = true
	y.diskMonths = months
	l.years[yk] = y

	if len(months) == 0 {
		return nil
	}
	latest := months[len(months)-1]
	if _, err := l.makeMonth(yk, latest); err != nil {
		return err
	}
	y = l.years[yk]
	y.OriginalLatest = latest
	y.Trusted[latest] = true
	l.years[yk] = y
	return nil
}

// Insert places asset and returns where it went. Adjustment sidecars are
// never placed. ErrDeclined is returned when the policy skipped the asset.
func (l *Ledger) Insert(ctx context.Context, a Asset) (Placement, error) {
	if a.Name == "" {
		a.Name = filepath.Base(a.Path)
	}
	if a.Date.Kind == createdat.KindAdjustmentSidecar {
		l.logger.Debug("sidecar not placed", "asset", a.Name)
		return Placement{CreatedAt: a.Date.CreatedAt, Source: a.Date.Source, Skipped: true, Reason: "adjustment sidecar"}, nil
	}

	var replaced *Removal
	if reconcile.IsEdited(a.Name) {
		if c, ok := reconcile.Match(l.candidates(), a.Name); ok {
			if stamp, ok := createdat.ParseStamp(c.Name, l.loc); ok {
				replaced = &Removal{Year: c.Year, Month: c.Month, Name: c.Name}
				a.Date = createdat.FromStamp(a.Date.Kind, stamp)
				l.logger.Info("keeping edited file and removing original",
					"asset", a.Name, "original", c.Name, "month", c.Month)
			}
		}
	}

	p, err := l.insertYear(ctx, a)
	if err != nil {
		return Placement{}, err
	}
	if replaced != nil {
		l.removeFromMonth(replaced.Year, replaced.Month, replaced.Name)
		p.Replaced = replaced
	}
	return p, nil
}

func (l *Ledger) insertYear(ctx context.Context, a Asset) (Placement, error) {
	t := a.Date.CreatedAt
	yk := plan.YearKey(t)
	keys := l.yearKeys()

	switch {
	case contains(latestN(keys, TrustedYears), yk):
		return l.insertMonth(ctx, yk, a, a.Date.BypassWarning, placementState{})
	case len(keys) == 0 || yk > keys[len(keys)-1]:
		l.years[yk] = l.makeYear(yk)
		return l.insertMonth(ctx, yk, a, a.Date.BypassWarning, placementState{createdYear: true})
	case a.Date.BypassWarning:
		state := placementState{bypassed: true}
		if _, ok := l.years[yk]; !ok {
			l.years[yk] = l.makeYear(yk)
			state.createdYear = true
		}
		l.logger.Info("placing outside the trusted years",
			"asset", a.Name, "year", yk, "source", a.Date.Source)
		return l.insertMonth(ctx, yk, a, true, state)
	}

	latest := keys[len(keys)-1]
	l.logger.Warn("out-of-order year: a more recent year exists, timestamp may be wrong",
		"asset", a.Name, "year", yk, "latest", latest, "source", a.Date.Source)

	resp, err := l.policy.Confirm(ctx, interact.Question{
		Kind:      interact.QuestionYear,
		Asset:     a.Name,
		Key:       yk,
		Latest:    latest,
		CreatedAt: t,
	})
	if err != nil {
		return Placement{}, fmt.Errorf("confirm %s: %w", a.Name, err)
	}

	if resp.ManualDate != nil {
		l.logger.Info("manual date supplied", "asset", a.Name, "date", resp.ManualDate.Format(time.DateTime))
		return l.restartManual(ctx, a, *resp.ManualDate)
	}
	if !resp.Accepted {
		l.logger.Warn("skipping out-of-order asset", "asset", a.Name, "year", yk)
		return Placement{}, fmt.Errorf("%s in %s: %w", a.Name, yk, ErrDeclined)
	}

	state := placementState{bypassed: true, prompted: true}
	if _, ok := l.years[yk]; !ok {
		l.years[yk] = l.makeYear(yk)
		state.createdYear = true
	}
	l.logger.Info("bypassing year warning", "asset", a.Name, "year", yk)
	return l.insertMonth(ctx, yk, a, true, state)
}

type placementState struct {
	bypassed    bool
	prompted    bool
	createdYear bool
}

func (l *Ledger) insertMonth(ctx context.Context, yk string, a Asset, bypass bool, state placementState) (Placement, error) {
	t := a.Date.CreatedAt
	mk := plan.MonthKey(t)
	y := l.years[yk]

	if y.Trusted[mk] {
		return l.place(ctx, yk, mk, a, state, false)
	}

	// Months past the year's original latest are created freely, even when
	// this run already opened a later one.
	latest := y.OriginalLatest
	if latest == "" || mk > latest {
		created, err := l.openMonth(yk, mk)
		if err != nil {
			return Placement{}, err
		}
		l.years[yk].Trusted[mk] = true
		return l.place(ctx, yk, mk, a, state, created)
	}

	if bypass {
		created, err := l.openMonth(yk, mk)
		if err != nil {
			return Placement{}, err
		}
		state.bypassed = true
		l.logger.Info("placing into older month without warning",
			"asset", a.Name, "month", mk, "latest", latest)
		return l.place(ctx, yk, mk, a, state, created)
	}

	l.logger.Warn("out-of-order month: a more recent month exists, timestamp may be wrong",
		"asset", a.Name, "month", mk, "latest", latest, "source", a.Date.Source)

	resp, err := l.policy.Confirm(ctx, interact.Question{
		Kind:         interact.QuestionMonth,
		Asset:        a.Name,
		Key:          mk,
		Latest:       latest,
		CreatedAt:    t,
		AllowSilence: true,
	})
	if err != nil {
		return Placement{}, fmt.Errorf("confirm %s: %w", a.Name, err)
	}

	if resp.ManualDate != nil {
		l.logger.Info("manual date supplied", "asset", a.Name, "date", resp.ManualDate.Format(time.DateTime))
		return l.restartManual(ctx, a, *resp.ManualDate)
	}
	if !resp.Accepted {
		l.logger.Warn("skipping out-of-order asset", "asset", a.Name, "month", mk)
		return Placement{}, fmt.Errorf("%s in %s: %w", a.Name, mk, ErrDeclined)
	}

	created, err := l.openMonth(yk, mk)
	if err != nil {
		return Placement{}, err
	}
	if resp.PersistSilence {
		l.years[yk].Trusted[mk] = true
		l.logger.Info("silencing warnings for month", "month", mk)
	}
	state.bypassed = true
	state.prompted = true
	l.logger.Info("bypassing month warning", "asset", a.Name, "month", mk)
	return l.place(ctx, yk, mk, a, state, created)
}

// restartManual re-runs year-level insertion with an operator-supplied date.
func (l *Ledger) restartManual(ctx context.Context, a Asset, when time.Time) (Placement, error) {
	a.Date = createdat.Manual(a.Date.Kind, when)
	p, err := l.insertYear(ctx, a)
	if err != nil {
		return Placement{}, err
	}
	p.Prompted = true
	return p, nil
}

func (l *Ledger) place(ctx context.Context, yk, mk string, a Asset, state placementState, createdMonth bool) (Placement, error) {
	t := a.Date.CreatedAt
	name := plan.StampedName(t, a.Name, "")

	if a.Comment != "" && plan.CommentFits(name, a.Comment) {
		comment := plan.SanitizeComment(a.Comment)
		resp, err := l.policy.Confirm(ctx, interact.Question{
			Kind:      interact.QuestionComment,
			Asset:     a.Name,
			Key:       mk,
			CreatedAt: t,
			Comment:   comment,
		})
		if err != nil {
			return Placement{}, fmt.Errorf("confirm comment for %s: %w", a.Name, err)
		}
		if resp.Accepted {
			name = plan.StampedName(t, a.Name, a.Comment)
		}
	}

	m := l.years[yk].Months[mk]
	taken := make(map[string]bool, len(m.Placed))
	for _, n := range m.Placed {
		taken[n] = true
	}
	name = plan.Unique(name, taken)
	m.Placed = append(m.Placed, name)
	l.years[yk].Months[mk] = m

	return Placement{
		Year:         yk,
		Month:        mk,
		Name:         name,
		CreatedAt:    t,
		Source:       a.Date.Source,
		Bypassed:     state.bypassed,
		Prompted:     state.prompted,
		CreatedYear:  state.createdYear,
		CreatedMonth: createdMonth,
	}, nil
}

// Rename changes the name recorded for a placement, for instance after a
// different file was found at the destination.
func (l *Ledger) Rename(p Placement, name string) Placement {
	y, ok := l.years[p.Year]
	if !ok {
		return p
	}
	m, ok := y.Months[p.Month]
	if !ok {
		return p
	}
	for i, n := range m.Placed {
		if n == p.Name {
			m.Placed[i] = name
			p.Name = name
			break
		}
	}
	y.Months[p.Month] = m
	return p
}

// Remove drops a placement, for instance when copying it failed. An original
// the placement replaced is listed in its month again.
func (l *Ledger) Remove(p Placement) {
	l.removeFromMonth(p.Year, p.Month, p.Name)
	if r := p.Replaced; r != nil {
		if m, ok := l.years[r.Year].Months[r.Month]; ok {
			m.Existing = append(m.Existing, r.Name)
			l.years[r.Year].Months[r.Month] = m
		}
	}
}

func (l *Ledger) removeFromMonth(yk, mk, name string) {
	y, ok := l.years[yk]
	if !ok {
		return
	}
	m, ok := y.Months[mk]
	if !ok {
		return
	}
	var removed bool
	if m.Placed, removed = removeName(m.Placed, name); !removed {
		m.Existing, _ = removeName(m.Existing, name)
	}
	y.Months[mk] = m
}

// candidates lists every name in every opened month, ordered by month key
// then name.
func (l *Ledger) candidates() []reconcile.Candidate {
	type ref struct{ year, month string }
	var months []ref
	for yk, y := range l.years {
		for mk := range y.Months {
			months = append(months, ref{year: yk, month: mk})
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].month < months[j].month })

	var out []reconcile.Candidate
	for _, r := range months {
		for _, name := range l.years[r.year].Months[r.month].Names() {
			out = append(out, reconcile.Candidate{Year: r.year, Month: r.month, Name: name})
		}
	}
	return out
}

// makeYear returns a new record for yk. It panics when yk is already known.
func (l *Ledger) makeYear(yk string) YearRecord {
	if _, ok := l.years[yk]; ok {
		panic(&DuplicateContainerError{Kind: "year", Key: yk})
	}
	return YearRecord{
		Key:     yk,
		Months:  make(map[string]MonthRecord),
		Trusted: make(map[string]bool),
	}
}

// makeMonth opens mk inside yk, reading its files when it exists on disk. It
// reports whether the month is new. It panics when mk is already open.
func (l *Ledger) makeMonth(yk, mk string) (bool, error) {
	y := l.years[yk]
	if _, ok := y.Months[mk]; ok {
		panic(&DuplicateContainerError{Kind: "month", Key: mk})
	}

	m := MonthRecord{Key: mk}
	if y.hasDiskMonth(mk) {
		files, err := listFiles(l.fsys, path.Join(yk, mk))
		if err != nil {
			return false, fmt.Errorf("list files of %s: %w", mk, err)
		}
		m.OnDisk = true
		m.Existing = files
	}
	y.Months[mk] = m
	return !m.OnDisk, nil
}

// openMonth returns the open month mk, making it if needed.
func (l *Ledger) openMonth(yk, mk string) (bool, error) {
	if _, ok := l.years[yk].Months[mk]; ok {
		return false, nil
	}
	return l.makeMonth(yk, mk)
}

// Years returns every known year key, sorted.
func (l *Ledger) Years() []string {
	return l.yearKeys()
}

// Year returns the record for yk.
func (l *Ledger) Year(yk string) (YearRecord, bool) {
	y, ok := l.years[yk]
	return y, ok
}

// Month returns the open month record for a "YYYY-MM" key.
func (l *Ledger) Month(mk string) (MonthRecord, bool) {
	if len(mk) < 4 {
		return MonthRecord{}, false
	}
	m, ok := l.years[mk[:4]].Months[mk]
	return m, ok
}

// Trusted reports whether mk is placed into without questions.
func (l *Ledger) Trusted(mk string) bool {
	if len(mk) < 4 {
		return false
	}
	return l.years[mk[:4]].Trusted[mk]
}

func (l *Ledger) yearKeys() []string {
	keys := make([]string, 0, len(l.years))
	for k := range l.years {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func latestN(sorted []string, n int) []string {
	if len(sorted) <= n {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

func contains(keys []string, k string) bool {
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}

func listDirs(fsys fs.FS, dir string, re *regexp.Regexp) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && re.MatchString(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func listFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
