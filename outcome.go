package xmlvalidator

import (
	"fmt"
	"strings"
	"time"
)

// Status classifies the result of validating one document.
type Status string

const (
	// StatusValid means the schema was applied and the document conforms.
	StatusValid Status = "valid"
	// StatusInvalid means the schema was applied and the document violates it.
	StatusInvalid Status = "invalid"
	// StatusError means validation could not be performed (unreachable or
	// malformed schema, I/O failure, engine fault).
	StatusError Status = "error"
	// StatusSkipped means the document declares no schema.
	StatusSkipped Status = "skipped"
)

// Diagnostic is a single schema violation with source position context.
type Diagnostic struct {
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// String renders the diagnostic in file:line:column style.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&b, "%d:%d: ", d.Line, d.Column)
	}
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}
	b.WriteString(d.Message)
	if d.Path != "" {
		fmt.Fprintf(&b, " at %s", d.Path)
	}
	return b.String()
}

// Outcome is the immutable result of validating a single document.
// Exactly one is produced per document; it is never reused or mutated.
type Outcome struct {
	File        string        `json:"file" yaml:"file"`
	Status      Status        `json:"status" yaml:"status"`
	Schema      string        `json:"schema,omitempty" yaml:"schema,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Err         string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Valid creates an outcome for a conforming document.
func Valid(file, schema string, d time.Duration) Outcome {
	return Outcome{File: file, Status: StatusValid, Schema: schema, Duration: d}
}

// Invalid creates an outcome for a document that violates its schema.
func Invalid(file, schema string, diags []Diagnostic, d time.Duration) Outcome {
	return Outcome{File: file, Status: StatusInvalid, Schema: schema, Diagnostics: diags, Duration: d}
}

// SystemError creates an outcome for a document whose validation failed for
// reasons unrelated to document conformance.
func SystemError(file, schema string, err error, d time.Duration) Outcome {
	o := Outcome{File: file, Status: StatusError, Schema: schema, Duration: d}
	if err != nil {
		o.Err = err.Error()
	}
	return o
}

// Skipped creates an outcome for a document that declares no schema.
func Skipped(file, reason string, d time.Duration) Outcome {
	return Outcome{File: file, Status: StatusSkipped, Err: reason, Duration: d}
}

// String returns a one-line human-readable summary of the outcome.
func (o Outcome) String() string {
	switch o.Status {
	case StatusValid:
		return fmt.Sprintf("%s: valid", o.File)
	case StatusInvalid:
		return fmt.Sprintf("%s: invalid (%d violations)", o.File, len(o.Diagnostics))
	case StatusSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.File, o.Err)
	default:
		return fmt.Sprintf("%s: error (%s)", o.File, o.Err)
	}
}
