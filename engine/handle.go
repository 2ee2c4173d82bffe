package engine

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/xsderrors"

	xmlvalidator "github.com/xmlvalid/validator"
)

// Handle is a shared reference to a compiled schema. Every holder must pair
// Retain with Release; when the last reference drops, the compiled schema is
// discarded. The compiled schema itself is immutable and safe for concurrent
// validation.
type Handle struct {
	identity string
	refs     atomic.Int64
	compiled atomic.Pointer[xsd.Engine]
}

func newHandle(identity string, compiled *xsd.Engine) *Handle {
	h := &Handle{identity: identity}
	h.refs.Store(1)
	h.compiled.Store(compiled)
	return h
}

// Identity returns the schema's canonical key.
func (h *Handle) Identity() string {
	return h.identity
}

// Retain adds a reference and returns the handle for chaining.
// It must not be called after the last reference has been released.
func (h *Handle) Retain() *Handle {
	if h.refs.Add(1) <= 1 {
		panic("engine: Retain on released handle")
	}
	return h
}

// Release drops one reference. On the last drop the compiled schema is
// discarded; any later validate call fails with an engine fault instead of
// touching freed state.
func (h *Handle) Release() {
	if n := h.refs.Add(-1); n == 0 {
		h.compiled.Store(nil)
	} else if n < 0 {
		panic("engine: Release without matching Retain")
	}
}

// Refs reports the current reference count. Intended for tests.
func (h *Handle) Refs() int64 {
	return h.refs.Load()
}

func (h *Handle) validate(r io.Reader) ([]xmlvalidator.Diagnostic, error) {
	compiled := h.compiled.Load()
	if compiled == nil {
		return nil, xmlvalidator.Fault(h.identity, "validate", fmt.Errorf("handle released"))
	}

	err := compiled.Validate(r)
	if err == nil {
		return nil, nil
	}

	if list, ok := err.(xsderrors.ValidationList); ok {
		return toDiagnostics(list), nil
	}
	return nil, xmlvalidator.Fault(h.identity, "validate", err)
}

func toDiagnostics(list xsderrors.ValidationList) []xmlvalidator.Diagnostic {
	diags := make([]xmlvalidator.Diagnostic, 0, len(list))
	for _, v := range list {
		diags = append(diags, xmlvalidator.Diagnostic{
			Line:    v.Line,
			Column:  v.Column,
			Code:    v.Code,
			Path:    v.Path,
			Message: v.Message,
		})
	}
	return diags
}
