package xmlvalidator

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Option configures a validation run.
type Option func(*Options)

// Options holds all tunables for a validation run. Zero values are replaced
// by defaults in DefaultOptions; the runner treats the struct as plain data.
type Options struct {
	// Concurrency is the number of parallel validation workers.
	Concurrency int

	// FailFast stops the run after the first invalid or errored outcome.
	FailFast bool

	// Extensions lists file extensions (without dot) treated as documents.
	Extensions []string
	// IncludeGlobs and ExcludeGlobs narrow directory walks by base name
	// pattern; exclude wins, empty include admits everything.
	IncludeGlobs []string
	ExcludeGlobs []string

	// CacheDir is the root of the persistent schema cache.
	CacheDir string
	// DiskCache toggles the persistent tier; the memory tier is always on.
	DiskCache bool
	// DiskTTL bounds freshness of persisted raw schemas.
	DiskTTL time.Duration
	// MemoryTTL bounds freshness of the run-scoped raw byte cache.
	MemoryTTL time.Duration
	// MemoryEntries bounds the raw byte cache entry count.
	MemoryEntries int

	// ParsedEntries bounds the compiled schema cache entry count.
	ParsedEntries int
	// ParsedTTL bounds freshness of compiled schema cache entries.
	ParsedTTL time.Duration
	// FailureGrace is how long a failed compile or fetch is remembered
	// before a retry is permitted.
	FailureGrace time.Duration

	// FetchTimeout is the per-request timeout for remote schema downloads.
	FetchTimeout time.Duration
	// FetchRetries is the retry budget for retryable download failures.
	FetchRetries int
	// RetryDelay is the initial backoff between retries; it doubles per
	// attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// TaskTimeout bounds a single document's validation end to end.
	TaskTimeout time.Duration
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Concurrency:   runtime.NumCPU(),
		Extensions:    []string{"xml"},
		CacheDir:      defaultCacheDir(),
		DiskCache:     true,
		DiskTTL:       24 * time.Hour,
		MemoryTTL:     5 * time.Minute,
		MemoryEntries: 100,
		ParsedEntries: 100,
		ParsedTTL:     10 * time.Minute,
		FailureGrace:  30 * time.Second,
		FetchTimeout:  30 * time.Second,
		FetchRetries:  3,
		RetryDelay:    time.Second,
		MaxRetryDelay: 30 * time.Second,
		TaskTimeout:   30 * time.Second,
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "validate-xml")
}

// WithConcurrency sets the worker count. Values <= 0 select NumCPU.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.Concurrency = n
	}
}

// WithFailFast enables fail-fast mode.
func WithFailFast(v bool) Option {
	return func(o *Options) { o.FailFast = v }
}

// WithExtensions replaces the document extension set.
func WithExtensions(exts ...string) Option {
	return func(o *Options) { o.Extensions = exts }
}

// WithIncludeGlobs restricts directory walks to matching base names.
func WithIncludeGlobs(patterns ...string) Option {
	return func(o *Options) { o.IncludeGlobs = patterns }
}

// WithExcludeGlobs drops matching base names from directory walks.
func WithExcludeGlobs(patterns ...string) Option {
	return func(o *Options) { o.ExcludeGlobs = patterns }
}

// WithCacheDir sets the persistent cache location.
func WithCacheDir(dir string) Option {
	return func(o *Options) { o.CacheDir = dir }
}

// WithDiskCache toggles the persistent cache tier.
func WithDiskCache(v bool) Option {
	return func(o *Options) { o.DiskCache = v }
}

// WithDiskTTL sets the persistent tier's freshness bound.
func WithDiskTTL(d time.Duration) Option {
	return func(o *Options) { o.DiskTTL = d }
}

// WithFetchTimeout sets the per-request schema download timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Options) { o.FetchTimeout = d }
}

// WithFetchRetries sets the download retry budget.
func WithFetchRetries(n int) Option {
	return func(o *Options) { o.FetchRetries = n }
}

// WithTaskTimeout bounds a single document's validation.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Options) { o.TaskTimeout = d }
}

// Apply returns a copy of DefaultOptions with opts applied.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
