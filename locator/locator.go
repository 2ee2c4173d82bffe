// Package locator discovers which schema an XML document declares for
// itself, by scanning the document head for xsi:schemaLocation and
// xsi:noNamespaceSchemaLocation hints.
package locator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/store"
)

// xsi:schemaLocation pairs a namespace with a location; the location is the
// second token. xsi:noNamespaceSchemaLocation is the location alone.
var (
	schemaLocationRe = regexp.MustCompile(`xsi:schemaLocation\s*=\s*["']([^"']+)["']`)
	noNamespaceRe    = regexp.MustCompile(`xsi:noNamespaceSchemaLocation\s*=\s*["']([^"']+)["']`)
)

// headLimit bounds how much of a document is read looking for the root
// element's declarations.
const headLimit = 4 * 1024 * 1024

// Locate returns the schema identity declared by the document at path: a URL
// for remote locations, an absolute path otherwise. Relative locations
// resolve against the document's directory. A document that declares no
// schema yields ErrNoSchemaDeclared.
func Locate(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	location, ok, err := Extract(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", path, xmlvalidator.ErrNoSchemaDeclared)
	}
	return Resolve(path, location)
}

// Extract reads the head of an XML document and looks for a schema location
// hint. The search stops at the first closing tag, since declarations live
// on the root element. Line structure does not matter, so minified
// single-line documents work the same as formatted ones.
func Extract(r io.Reader) (string, bool, error) {
	head, err := io.ReadAll(io.LimitReader(r, headLimit))
	if err != nil {
		return "", false, err
	}
	if i := bytes.Index(head, []byte("</")); i >= 0 {
		head = head[:i]
	}

	if m := noNamespaceRe.FindSubmatch(head); m != nil {
		if loc := strings.TrimSpace(string(m[1])); loc != "" {
			return loc, true, nil
		}
	}
	if m := schemaLocationRe.FindSubmatch(head); m != nil {
		// Namespace and location alternate; the first pair wins.
		if fields := strings.Fields(string(m[1])); len(fields) >= 2 {
			return fields[1], true, nil
		}
	}
	return "", false, nil
}

// Resolve turns a raw schema location into a canonical identity, resolving
// relative paths against the declaring document's directory.
func Resolve(docPath, location string) (string, error) {
	if store.IsRemote(location) {
		return location, nil
	}
	if filepath.IsAbs(location) {
		return location, nil
	}
	dir := filepath.Dir(docPath)
	abs, err := filepath.Abs(filepath.Join(dir, location))
	if err != nil {
		return "", fmt.Errorf("resolve schema location %q: %w", location, err)
	}
	return abs, nil
}
