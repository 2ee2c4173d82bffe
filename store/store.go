// Package store is the raw schema byte store: a run-scoped memory tier, a
// persistent SQLite tier shared across runs, and a retrying HTTP fetcher for
// remote identities. Only successful resolutions are cached; fetch failures
// are always retried by later requests.
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jacoelho/xsd"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/cache"
)

// Record holds undecoded schema source. Records are never mutated in place;
// a refetch creates a replacement.
type Record struct {
	Identity  string
	Data      []byte
	FetchedAt time.Time
}

// Store resolves schema identities to raw bytes through the tier chain
// memory -> disk -> network/filesystem, backfilling the tiers it missed.
type Store struct {
	memory  *cache.Cache[string, Record]
	disk    *Disk // nil when the persistent tier is disabled
	fetcher *Fetcher
	metrics *xmlvalidator.Metrics
	log     *slog.Logger
}

// New creates a Store from opts. The disk tier is opened lazily-enough that
// a broken cache directory disables persistence instead of failing the run.
func New(opts *xmlvalidator.Options, metrics *xmlvalidator.Metrics, log *slog.Logger) (*Store, error) {
	if opts == nil {
		opts = xmlvalidator.DefaultOptions()
	}
	if metrics == nil {
		metrics = xmlvalidator.NewMetrics()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Store{
		memory:  cache.NewWithTTL[string, Record](opts.MemoryEntries, opts.MemoryTTL),
		fetcher: NewFetcher(opts),
		metrics: metrics,
		log:     log,
	}

	if opts.DiskCache {
		disk, err := OpenDisk(filepath.Join(opts.CacheDir, "schemas.db"), opts.DiskTTL)
		if err != nil {
			// Persistence is an optimization; a corrupt cache directory
			// must not stop validation.
			log.Warn("disk schema cache unavailable", "dir", opts.CacheDir, "error", err)
		} else {
			s.disk = disk
		}
	}

	return s, nil
}

// Close flushes and closes the persistent tier.
func (s *Store) Close() error {
	if s.disk != nil {
		return s.disk.Close()
	}
	return nil
}

// IsRemote reports whether identity is fetched over HTTP(S) rather than read
// from the local filesystem.
func IsRemote(identity string) bool {
	return strings.HasPrefix(identity, "http://") || strings.HasPrefix(identity, "https://")
}

// Get resolves identity to raw schema bytes. Misses fall through
// memory -> disk -> origin; each successful resolution backfills the tiers
// it missed. Failures are returned as ErrSchemaUnavailable and never cached.
func (s *Store) Get(ctx context.Context, identity string) (Record, error) {
	if rec, ok := s.memory.Get(identity); ok {
		s.metrics.RecordRawCache(true)
		return rec, nil
	}
	s.metrics.RecordRawCache(false)

	if s.disk != nil {
		if rec, ok, err := s.disk.Get(ctx, identity); err != nil {
			s.log.Warn("disk cache read failed", "identity", identity, "error", err)
		} else if ok {
			s.memory.Set(identity, rec)
			return rec, nil
		}
	}

	rec, err := s.fetchOrigin(ctx, identity)
	if err != nil {
		return Record{}, err
	}

	s.memory.Set(identity, rec)
	if s.disk != nil {
		if err := s.disk.Put(ctx, rec); err != nil {
			s.log.Warn("disk cache write failed", "identity", identity, "error", err)
		}
	}
	return rec, nil
}

func (s *Store) fetchOrigin(ctx context.Context, identity string) (Record, error) {
	var data []byte
	var err error

	if IsRemote(identity) {
		s.metrics.RecordFetch()
		s.log.Debug("fetching remote schema", "url", identity)
		data, err = s.fetcher.Fetch(ctx, identity)
	} else {
		data, err = os.ReadFile(identity)
	}
	if err != nil {
		return Record{}, xmlvalidator.Unavailable(identity, err)
	}

	if err := checkSchemaSource(data); err != nil {
		return Record{}, xmlvalidator.Malformed(identity, err)
	}

	return Record{Identity: identity, Data: data, FetchedAt: time.Now()}, nil
}

// Resolver returns an xsd.Resolver that routes nested xs:include/xs:import
// locations through this store, so imports of remote schemas hit the same
// tiers and fetch policy as root schemas. ctx bounds all resolutions made
// through the returned resolver.
func (s *Store) Resolver(ctx context.Context) xsd.Resolver {
	return &storeResolver{ctx: ctx, store: s}
}

// Clear drops both tiers. Used by the cache management commands.
func (s *Store) Clear(ctx context.Context) error {
	s.memory.Clear()
	if s.disk != nil {
		return s.disk.Clear(ctx)
	}
	return nil
}

// Stats describes both tiers.
type Stats struct {
	Memory cache.Stats
	Disk   DiskStats
}

// Stats returns cache statistics for both tiers.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Memory: s.memory.Stats()}
	if s.disk != nil {
		ds, err := s.disk.Stats(ctx)
		if err != nil {
			return st, err
		}
		st.Disk = ds
	}
	return st, nil
}

type storeResolver struct {
	ctx   context.Context
	store *Store
}

func (r *storeResolver) Resolve(req xsd.ResolveRequest) (io.ReadCloser, string, error) {
	systemID, err := resolveLocation(req.BaseSystemID, req.SchemaLocation)
	if err != nil {
		return nil, "", err
	}
	rec, err := r.store.Get(r.ctx, systemID)
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewReader(rec.Data)), systemID, nil
}

// resolveLocation joins a schema location against its base identity,
// producing the canonical identity of the referenced schema.
func resolveLocation(base, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("empty schema location")
	}
	if IsRemote(location) {
		return location, nil
	}
	if IsRemote(base) {
		bu, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("bad base identity %q: %w", base, err)
		}
		lu, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("bad schema location %q: %w", location, err)
		}
		return bu.ResolveReference(lu).String(), nil
	}
	if filepath.IsAbs(location) {
		return location, nil
	}
	if base == "" {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	return filepath.Join(filepath.Dir(base), location), nil
}

// checkSchemaSource is a cheap sanity check that bytes look like an XSD
// before they are cached or handed to the compiler.
func checkSchemaSource(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("schema source is not valid UTF-8")
	}
	body := strings.TrimSpace(string(data))
	if !strings.HasPrefix(body, "<") {
		return fmt.Errorf("schema source does not appear to be XML")
	}
	if !strings.Contains(body, "<xs:schema") &&
		!strings.Contains(body, "<xsd:schema") &&
		!strings.Contains(body, "<schema") {
		return fmt.Errorf("schema source does not appear to be an XML Schema")
	}
	return nil
}
