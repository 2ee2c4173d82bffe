package xmlvalidator

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching across packages.
var (
	// ErrSchemaUnavailable indicates a schema could not be fetched or read.
	// Recoverable per document; a later run retries the fetch.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	// ErrSchemaMalformed indicates the engine rejected the schema source.
	// Remembered briefly so repeated documents fail fast without re-parsing.
	ErrSchemaMalformed = errors.New("schema malformed")

	// ErrEngineFault indicates an unexpected failure inside the validation
	// engine (nil handle, panic during compile).
	ErrEngineFault = errors.New("engine fault")

	// ErrNoSchemaDeclared indicates a document carries no schema location.
	ErrNoSchemaDeclared = errors.New("no schema declared")
)

// SchemaError carries the schema identity and phase for any failure on the
// schema side of validation. It wraps one of the sentinels above.
type SchemaError struct {
	Identity string
	Phase    string // "fetch", "parse", "resolve"
	Kind     error  // one of the sentinel errors
	Err      error
}

// Error implements error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s: %v", e.Identity, e.Phase, e.Err)
}

// Unwrap supports errors.Is against both the sentinel kind and the cause.
func (e *SchemaError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Unavailable wraps err as a fetch/read failure for identity.
func Unavailable(identity string, err error) *SchemaError {
	return &SchemaError{Identity: identity, Phase: "fetch", Kind: ErrSchemaUnavailable, Err: err}
}

// Malformed wraps err as an engine parse rejection for identity.
func Malformed(identity string, err error) *SchemaError {
	return &SchemaError{Identity: identity, Phase: "parse", Kind: ErrSchemaMalformed, Err: err}
}

// Fault wraps err as an unexpected engine failure for identity.
func Fault(identity, phase string, err error) *SchemaError {
	return &SchemaError{Identity: identity, Phase: phase, Kind: ErrEngineFault, Err: err}
}
