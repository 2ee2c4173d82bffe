// Package runner orchestrates a validation run: it expands inputs into
// documents, fans them out over a bounded worker pool, and aggregates the
// per-document outcomes into a summary.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/aggregate"
	"github.com/xmlvalid/validator/discovery"
	"github.com/xmlvalid/validator/engine"
	"github.com/xmlvalid/validator/locator"
	"github.com/xmlvalid/validator/schemacache"
	"github.com/xmlvalid/validator/store"
)

// Runner wires the engine, the raw schema store and the compiled schema
// cache together and drives validation runs. A Runner is safe for concurrent
// use; schema caches are shared across runs until Close.
type Runner struct {
	opts    *xmlvalidator.Options
	engine  *engine.Engine
	store   *store.Store
	schemas *schemacache.Cache
	metrics *xmlvalidator.Metrics
	log     *slog.Logger
}

// New creates a Runner from opts. Pass nil for defaults.
func New(opts *xmlvalidator.Options, log *slog.Logger) (*Runner, error) {
	if opts == nil {
		opts = xmlvalidator.DefaultOptions()
	}
	if log == nil {
		log = slog.Default()
	}

	metrics := xmlvalidator.NewMetrics()
	st, err := store.New(opts, metrics, log)
	if err != nil {
		return nil, err
	}
	eng := engine.New()

	return &Runner{
		opts:    opts,
		engine:  eng,
		store:   st,
		schemas: schemacache.New(eng, st, opts, metrics, log),
		metrics: metrics,
		log:     log,
	}, nil
}

// Close releases compiled schemas and the persistent store.
func (r *Runner) Close() error {
	r.schemas.Close()
	return r.store.Close()
}

// Metrics returns the run metrics collector.
func (r *Runner) Metrics() *xmlvalidator.Metrics {
	return r.metrics
}

// Run expands inputs (files and directories) and validates the resulting
// documents. The summary is complete even when ctx is cancelled mid-run;
// unstarted documents simply do not appear in it.
func (r *Runner) Run(ctx context.Context, inputs []string) (aggregate.Summary, error) {
	docs, err := discovery.ExpandWith(inputs, discovery.Filter{
		Extensions: r.opts.Extensions,
		Include:    r.opts.IncludeGlobs,
		Exclude:    r.opts.ExcludeGlobs,
	})
	if err != nil {
		return aggregate.Summary{}, err
	}
	return r.RunFiles(ctx, docs)
}

// RunFiles validates the given documents over a pool of worker goroutines.
// With FailFast set, the first invalid or errored document cancels the rest
// of the run; in-flight validations still finish and are recorded.
func (r *Runner) RunFiles(ctx context.Context, docs []string) (aggregate.Summary, error) {
	workers := r.opts.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(docs) && len(docs) > 0 {
		workers = len(docs)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	agg := aggregate.New()
	r.log.Debug("starting run", "run_id", agg.RunID(), "documents", len(docs), "workers", workers)

	jobs := make(chan string)
	go func() {
		defer close(jobs)
		for _, doc := range docs {
			select {
			case <-ctx.Done():
				return
			case jobs <- doc:
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for doc := range jobs {
				out := r.validateOne(ctx, doc)
				agg.Add(out)
				if r.opts.FailFast && (out.Status == xmlvalidator.StatusInvalid || out.Status == xmlvalidator.StatusError) {
					cancel()
				}
			}
		}()
	}
	wg.Wait()

	summary := agg.Summary()
	snap := r.metrics.Snapshot()
	summary.Metrics = &snap
	r.log.Info("run finished",
		"run_id", summary.RunID,
		"total", summary.Total,
		"valid", summary.Valid,
		"invalid", summary.Invalid,
		"errors", summary.Errors,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)
	return summary, nil
}

// validateOne runs the full pipeline for a single document: locate the
// declared schema, obtain its compiled handle, validate the document.
func (r *Runner) validateOne(ctx context.Context, doc string) xmlvalidator.Outcome {
	start := time.Now()

	if r.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.TaskTimeout)
		defer cancel()
	}

	identity, err := locator.Locate(doc)
	if err != nil {
		if errors.Is(err, xmlvalidator.ErrNoSchemaDeclared) {
			r.log.Debug("skipping document", "file", doc, "reason", "no schema declared")
			return xmlvalidator.Skipped(doc, "no schema declared", time.Since(start))
		}
		return xmlvalidator.SystemError(doc, "", err, time.Since(start))
	}

	handle, err := r.schemas.Get(ctx, identity)
	if err != nil {
		r.log.Warn("schema unavailable", "file", doc, "schema", identity, "error", err)
		return xmlvalidator.SystemError(doc, identity, err, time.Since(start))
	}
	defer handle.Release()

	diags, err := r.engine.ValidateFile(handle, doc)
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.RecordValidation(elapsed, false)
		return xmlvalidator.SystemError(doc, identity, err, elapsed)
	}

	if len(diags) > 0 {
		r.metrics.RecordValidation(elapsed, false)
		return xmlvalidator.Invalid(doc, identity, diags, elapsed)
	}
	r.metrics.RecordValidation(elapsed, true)
	return xmlvalidator.Valid(doc, identity, elapsed)
}

// Stats reports cache statistics for both schema tiers.
func (r *Runner) Stats(ctx context.Context) (store.Stats, error) {
	return r.store.Stats(ctx)
}
