// Package xmlvalidator provides high-throughput validation of XML documents
// against XML Schema definitions (XSDs), including schemas referenced by
// remote URL.
//
// The package is built around three guarantees:
//
//   - Any distinct schema is compiled at most once per process, no matter how
//     many documents reference it concurrently (thundering-herd collapse).
//   - The schema compiler, which is not safe for concurrent invocation, is
//     multiplexed safely across workers; validation against a compiled schema
//     runs fully in parallel.
//   - Resource usage stays bounded under arbitrarily large input sets: a
//     fixed worker pool, capacity- and TTL-bounded caches, and a two-tier
//     (memory + on-disk) raw schema store that survives process restarts.
//
// # Quick Start
//
//	import (
//	    xv "github.com/xmlvalid/validator"
//	    "github.com/xmlvalid/validator/runner"
//	)
//
//	r, err := runner.New(xv.DefaultOptions(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	summary, err := r.Run(ctx, documents)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, outcome := range summary.Outcomes {
//	    if outcome.Status != xv.StatusValid {
//	        fmt.Println(outcome)
//	    }
//	}
//
// # Architecture
//
//   - engine: adapter around the XSD compiler/validator, enforcing its
//     concurrency contract (serialized compile, concurrent validate) and
//     reference-counted handle lifetime
//   - schemacache: identity-keyed cache of compiled schema handles with
//     single-flight miss coalescing
//   - store: two-tier raw schema byte store (memory LRU + SQLite on disk)
//     with retrying HTTP fetch for remote identities
//   - runner: bounded worker pool orchestrating schema resolution and
//     validation with optional fail-fast
//   - aggregate: concurrent-safe result accumulation into an immutable
//     run summary
package xmlvalidator
