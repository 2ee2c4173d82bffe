// Package report renders a run summary for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/aggregate"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (text, json, yaml)", s)
	}
}

// Config controls rendering.
type Config struct {
	Format Format
	// Color enables ANSI styling in text output.
	Color bool
	// Verbose lists valid and skipped documents too.
	Verbose bool
	// Quiet suppresses everything except invalid and errored documents.
	Quiet bool
}

// Write renders s to w according to cfg.
func Write(w io.Writer, s aggregate.Summary, cfg Config) error {
	switch cfg.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(s)
	default:
		return writeText(w, s, cfg)
	}
}

func writeText(w io.Writer, s aggregate.Summary, cfg Config) error {
	st := newStyles(cfg.Color)

	for _, out := range s.Outcomes {
		switch out.Status {
		case xmlvalidator.StatusValid:
			if cfg.Verbose && !cfg.Quiet {
				fmt.Fprintf(w, "%s %s\n", st.valid.Render("valid"), out.File)
			}
		case xmlvalidator.StatusSkipped:
			if cfg.Verbose && !cfg.Quiet {
				fmt.Fprintf(w, "%s %s: %s\n", st.skipped.Render("skipped"), out.File, out.Err)
			}
		case xmlvalidator.StatusInvalid:
			fmt.Fprintf(w, "%s %s\n", st.invalid.Render("INVALID"), out.File)
			for _, d := range out.Diagnostics {
				fmt.Fprintf(w, "  %s\n", d)
			}
		case xmlvalidator.StatusError:
			fmt.Fprintf(w, "%s %s: %s\n", st.errored.Render("ERROR"), out.File, out.Err)
		}
	}

	if !cfg.Quiet {
		line := fmt.Sprintf("%d documents: %d valid, %d invalid, %d errors, %d skipped (%s)",
			s.Total, s.Valid, s.Invalid, s.Errors, s.Skipped, s.Duration.Round(timeUnit(s)))
		fmt.Fprintln(w, st.footer.Render(line))
	}
	return nil
}
