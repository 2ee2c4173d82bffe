// Package engine adapts the XSD compiler/validator to the concurrency
// contract this tool needs: schema compilation is serialized process-wide,
// validation against a compiled schema runs fully in parallel, and compiled
// schemas are reference-counted so cache eviction can never invalidate a
// handle that a validation task still holds.
package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jacoelho/xsd"

	xmlvalidator "github.com/xmlvalid/validator"
)

// Engine compiles schemas and hands out shared, reference-counted handles.
// The zero value is not usable; create one with New.
type Engine struct {
	// compileMu serializes every call into the compiler. The compile
	// surface is not safe for concurrent invocation; validation sessions
	// are, and bypass this lock entirely.
	compileMu sync.Mutex

	limits xsd.CompileLimits
}

// New creates an Engine with default compile limits.
func New() *Engine {
	return &Engine{}
}

// NewWithLimits creates an Engine with explicit compile limits.
func NewWithLimits(limits xsd.CompileLimits) *Engine {
	return &Engine{limits: limits}
}

// Parse compiles raw schema bytes into a shared handle. identity is the
// schema's canonical key and becomes the base system ID for resolving
// nested xs:include/xs:import locations through resolver (which may be nil
// for self-contained schemas).
//
// The returned handle starts with one reference owned by the caller.
// Compile failures never leak a handle: on error the result is discarded
// before returning.
func (e *Engine) Parse(identity string, data []byte, resolver xsd.Resolver) (h *Handle, err error) {
	if len(data) == 0 {
		return nil, xmlvalidator.Malformed(identity, fmt.Errorf("empty schema source"))
	}

	e.compileMu.Lock()
	defer e.compileMu.Unlock()

	// The compiler is third-party code fed with remote bytes; a panic here
	// must surface as an engine fault, not kill the worker.
	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = xmlvalidator.Fault(identity, "parse", fmt.Errorf("panic: %v", r))
		}
	}()

	opts := []xsd.CompileOption{
		xsd.WithBaseSystemID(identity),
		xsd.WithCompileLimits(e.limits),
	}
	if resolver != nil {
		opts = append(opts, xsd.WithResolver(resolver))
	}

	compiled, cerr := xsd.CompileSchema(bytes.NewReader(data), opts...)
	if cerr != nil {
		return nil, xmlvalidator.Malformed(identity, cerr)
	}
	if compiled == nil {
		return nil, xmlvalidator.Fault(identity, "parse", fmt.Errorf("compiler returned nil schema"))
	}

	return newHandle(identity, compiled), nil
}

// Validate runs a document against the handle's compiled schema.
// It is safe to call concurrently from any number of goroutines, including
// while another schema is being compiled.
//
// A conforming document returns (nil, nil). Schema violations return the
// diagnostics with a nil error. Anything else (released handle, unreadable
// input) returns an error.
func (e *Engine) Validate(h *Handle, r io.Reader) ([]xmlvalidator.Diagnostic, error) {
	if h == nil {
		return nil, xmlvalidator.Fault("", "validate", fmt.Errorf("nil handle"))
	}
	return h.validate(r)
}

// ValidateFile validates the document at path against the handle's schema.
func (e *Engine) ValidateFile(h *Handle, path string) ([]xmlvalidator.Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	defer f.Close()
	return e.Validate(h, f)
}
