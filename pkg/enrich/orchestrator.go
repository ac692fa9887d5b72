package enrich

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/curator/pkg/catalog"
	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/observability"
	"github.com/matzehuels/curator/pkg/refresh"
)

const (
	// DefaultBatchSize is the number of records fetched concurrently.
	DefaultBatchSize = 5
	// DefaultBatchDelay is the pause between batches.
	DefaultBatchDelay = 500 * time.Millisecond
)

// Outcomes reported per record.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// StateStore persists the refresh-state document.
type StateStore interface {
	Load(ctx context.Context) (*refresh.State, error)
	Save(ctx context.Context, st *refresh.State) error
}

// Config wires an [Orchestrator].
type Config struct {
	Store   catalog.Store
	State   StateStore
	Clients Clients
	// BatchSize and BatchDelay control dispatch. Zero uses the defaults;
	// a negative delay disables the pause.
	BatchSize  int
	BatchDelay time.Duration
	Logger     *log.Logger
	Now        func() time.Time
}

// Options controls one run.
type Options struct {
	// Force ignores the refresh policy.
	Force bool
	// Kinds limits the run to these record kinds. Empty means all.
	Kinds []catalog.Kind
	// DryRun fetches and merges but saves neither records nor state.
	DryRun bool
	// Target names the refresh clock of a run limited by Kinds. Empty
	// with Kinds set uses the sorted kind list.
	Target string
}

// target returns the refresh clock key; empty for a full run.
func (o Options) target() string {
	if len(o.Kinds) == 0 {
		return ""
	}
	if o.Target != "" {
		return o.Target
	}
	names := make([]string, len(o.Kinds))
	for i, k := range o.Kinds {
		names[i] = string(k)
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}

// Stats summarizes a run. Idle is set when the refresh policy said no
// refresh was due and nothing was fetched.
type Stats struct {
	RunID     string `json:"runId"`
	Total     int    `json:"total"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Idle      bool   `json:"idle,omitempty"`
}

// Orchestrator drives an enrichment run:
//
//	load catalog -> check refresh due -> route -> fetch in batches
//	-> merge and save each record -> update refresh state -> report
type Orchestrator struct {
	store      catalog.Store
	state      StateStore
	clients    Clients
	batchSize  int
	batchDelay time.Duration
	logger     *log.Logger
	now        func() time.Time
}

// New creates an Orchestrator. Store is required; a nil State runs
// without a refresh policy and never records timestamps.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		store:      cfg.Store,
		state:      cfg.State,
		clients:    cfg.Clients,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if o.batchSize <= 0 {
		o.batchSize = DefaultBatchSize
	}
	if o.batchDelay == 0 {
		o.batchDelay = DefaultBatchDelay
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// job is a routed record.
type job struct {
	entry *catalog.Entry
	route route
}

// run holds the mutable state of one Run call.
type run struct {
	mu      sync.Mutex
	stats   Stats
	touched map[refresh.Class]bool
}

func (r *run) record(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case OutcomeUpdated:
		r.stats.Updated++
	case OutcomeUnchanged:
		r.stats.Unchanged++
	case OutcomeFailed:
		r.stats.Failed++
	case OutcomeSkipped:
		r.stats.Skipped++
	}
}

func (r *run) touch(class refresh.Class) {
	r.mu.Lock()
	r.touched[class] = true
	r.mu.Unlock()
}

// Run performs one enrichment pass. Per-record failures are counted, never
// returned. The error is non-nil only when the catalog cannot be loaded,
// the refresh state cannot be saved, or ctx is cancelled; the returned
// stats are valid in every case.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := o.now()
	r := &run{stats: Stats{RunID: uuid.NewString()}, touched: map[refresh.Class]bool{}}
	logger := o.logger.With("run", r.stats.RunID[:8])

	entries, err := o.store.LoadAll(ctx)
	if err != nil {
		return &r.stats, err
	}
	entries = filterKinds(entries, opts.Kinds)
	r.stats.Total = len(entries)

	target := opts.target()
	state := o.loadState(ctx, logger)
	due, reason := refresh.DecideTarget(state, target, opts.Force, start)
	if !due {
		logger.Info("refresh not due", "reason", reason, "target", target, "records", len(entries))
		r.stats.Idle = true
		return &r.stats, nil
	}
	images := refresh.ShouldRefresh(state, refresh.ClassScreenshots, opts.Force, start)
	logger.Debug("refresh due", "reason", reason, "target", target, "images", images, "records", len(entries))

	observability.Enrich().OnRunStart(ctx, r.stats.RunID, len(entries))

	jobs := o.partition(ctx, logger, r, entries)
	err = o.dispatch(ctx, logger, r, jobs, images, opts.DryRun)

	if err == nil && !opts.DryRun {
		err = o.saveState(ctx, state, target, r.touched, start)
	}

	s := r.stats
	observability.Enrich().OnRunComplete(ctx, s.RunID, observability.RunSummary{
		Total:     s.Total,
		Updated:   s.Updated,
		Unchanged: s.Unchanged,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
	}, o.now().Sub(start))
	logger.Info("enrichment finished",
		"total", s.Total, "updated", s.Updated, "unchanged", s.Unchanged,
		"failed", s.Failed, "skipped", s.Skipped, "dry_run", opts.DryRun)
	return &s, err
}

// loadState degrades a broken state document to "no state", which the
// policy treats as due.
func (o *Orchestrator) loadState(ctx context.Context, logger *log.Logger) *refresh.State {
	if o.state == nil {
		return nil
	}
	st, err := o.state.Load(ctx)
	if err != nil {
		logger.Warn("refresh state unreadable, refreshing everything", "err", err)
		return nil
	}
	return st
}

func (o *Orchestrator) saveState(ctx context.Context, st *refresh.State, target string, touched map[refresh.Class]bool, now time.Time) error {
	if o.state == nil || len(touched) == 0 {
		return nil
	}
	if st == nil {
		st = refresh.NewState()
	}
	if touched[refresh.ClassMetadata] {
		st.TouchTarget(target, now)
	}
	for _, class := range []refresh.Class{refresh.ClassScreenshots, refresh.ClassAI} {
		if touched[class] {
			st.Touch(class, now)
		}
	}
	return o.state.Save(ctx, st)
}

// partition routes every entry. Records without a usable identifier or
// without a configured client are counted as skipped.
func (o *Orchestrator) partition(ctx context.Context, logger *log.Logger, r *run, entries []*catalog.Entry) []job {
	jobs := make([]job, 0, len(entries))
	for _, e := range entries {
		rt, err := o.clients.resolve(e.Record)
		if err != nil {
			switch {
			case errors.Is(err, errNotConfigured), cerrors.IsIdentifierMissing(err):
				logger.Debug("skipping record", "id", e.ID(), "type", e.Kind(), "reason", err)
			default:
				logger.Warn("skipping record", "id", e.ID(), "type", e.Kind(), "err", err)
			}
			r.record(OutcomeSkipped)
			observability.Enrich().OnRecordComplete(ctx, string(e.Kind()), "", OutcomeSkipped, 0, err)
			continue
		}
		jobs = append(jobs, job{entry: e, route: rt})
	}
	return jobs
}

// dispatch processes jobs in sequential batches of concurrent fetches.
func (o *Orchestrator) dispatch(ctx context.Context, logger *log.Logger, r *run, jobs []job, images, dryRun bool) error {
	for start := 0; start < len(jobs); start += o.batchSize {
		if start > 0 && o.batchDelay > 0 {
			t := time.NewTimer(o.batchDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+o.batchSize, len(jobs))
		var g errgroup.Group
		for _, j := range jobs[start:end] {
			g.Go(func() error {
				o.process(ctx, logger, r, j, images, dryRun)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}

// process fetches, merges and saves one record.
func (o *Orchestrator) process(ctx context.Context, logger *log.Logger, r *run, j job, images, dryRun bool) {
	e := j.entry
	source := j.route.fetcher.Name()
	began := time.Now()
	done := func(outcome string, err error) {
		r.record(outcome)
		observability.Enrich().OnRecordComplete(ctx, string(e.Kind()), source, outcome, time.Since(began), err)
	}

	md, err := j.route.fetcher.Fetch(ctx, j.route.id)
	if err != nil || md == nil {
		msg := "fetch failed"
		if cerrors.IsParse(err) {
			msg = "malformed upstream response"
		}
		logger.Warn(msg, "source", source, "id", e.ID(), "upstream_id", j.route.id, "err", err)
		done(OutcomeFailed, err)
		return
	}

	res := merge(e.Record, md, images)
	r.touch(refresh.ClassMetadata)
	if res.image {
		r.touch(refresh.ClassScreenshots)
	}
	if !res.changed {
		done(OutcomeUnchanged, nil)
		return
	}
	if !dryRun {
		if err := o.store.Save(ctx, e); err != nil {
			logger.Error("save failed", "id", e.ID(), "err", err)
			done(OutcomeFailed, err)
			return
		}
	}
	logger.Debug("record updated", "source", source, "id", e.ID())
	done(OutcomeUpdated, nil)
}

func filterKinds(entries []*catalog.Entry, kinds []catalog.Kind) []*catalog.Entry {
	if len(kinds) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if slices.Contains(kinds, e.Kind()) {
			out = append(out, e)
		}
	}
	return out
}
