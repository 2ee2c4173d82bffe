package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const noteSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="note" type="xs:string"/>
</xs:schema>`

func noteDoc(schemaRef, body string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<note xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation=%q>%s</note>`,
		schemaRef, body)
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI executes the root command in-process and returns stdout and the
// exit code.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()

	args = append([]string{"--no-disk-cache", "--no-color", "--cache-dir", t.TempDir()}, args...)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	code := 0
	if err := cmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			code = exit.code
		} else {
			t.Fatalf("Execute() error = %v (stderr: %s)", err, errOut.String())
		}
	}
	return out.String(), code
}

func TestCLI_AllValid(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "note.xsd", noteSchema)
	doc := write(t, dir, "ok.xml", noteDoc("note.xsd", "hello"))

	out, code := runCLI(t, doc)
	if code != 0 {
		t.Errorf("exit code = %d; want 0", code)
	}
	if !strings.Contains(out, "1 valid") {
		t.Errorf("output missing summary:\n%s", out)
	}
}

func TestCLI_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "note.xsd", noteSchema)
	doc := write(t, dir, "bad.xml", noteDoc("note.xsd", "<unexpected/>"))

	out, code := runCLI(t, doc)
	if code != 1 {
		t.Errorf("exit code = %d; want 1", code)
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("output missing invalid marker:\n%s", out)
	}
}

func TestCLI_SystemError(t *testing.T) {
	dir := t.TempDir()
	doc := write(t, dir, "orphan.xml", noteDoc("missing.xsd", "hello"))

	out, code := runCLI(t, doc)
	if code != 2 {
		t.Errorf("exit code = %d; want 2", code)
	}
	if !strings.Contains(out, "ERROR") {
		t.Errorf("output missing error marker:\n%s", out)
	}
}

func TestCLI_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "note.xsd", noteSchema)
	write(t, dir, "ok.xml", noteDoc("note.xsd", "hello"))

	out, code := runCLI(t, "-o", "json", dir)
	if code != 0 {
		t.Fatalf("exit code = %d; want 0", code)
	}

	var decoded struct {
		Total int `json:"total"`
		Valid int `json:"valid"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if decoded.Total != 1 || decoded.Valid != 1 {
		t.Errorf("decoded = %+v; want total 1, valid 1", decoded)
	}
}

func TestCLI_DirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "note.xsd", noteSchema)
	write(t, dir, "a.xml", noteDoc("note.xsd", "one"))
	write(t, dir, "b.xml", noteDoc("note.xsd", "two"))
	write(t, dir, "ignored.txt", "not xml")

	out, code := runCLI(t, "--verbose", dir)
	if code != 0 {
		t.Fatalf("exit code = %d; want 0", code)
	}
	if !strings.Contains(out, "2 documents") {
		t.Errorf("output missing document count:\n%s", out)
	}
}

func TestCLI_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	doc := write(t, dir, "a.xml", "<note>hi</note>")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--no-disk-cache", "-o", "csv", doc})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() error = nil; want unknown format error")
	}
}
