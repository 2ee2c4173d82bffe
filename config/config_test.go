package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	xmlvalidator "github.com/xmlvalid/validator"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := xmlvalidator.DefaultOptions()
	if c.Threads != def.Concurrency {
		t.Errorf("Threads = %d; want %d", c.Threads, def.Concurrency)
	}
	if c.CacheTTL != def.DiskTTL {
		t.Errorf("CacheTTL = %v; want %v", c.CacheTTL, def.DiskTTL)
	}
	if c.Format != "text" {
		t.Errorf("Format = %q; want text", c.Format)
	}
	if c.NoDiskCache {
		t.Error("NoDiskCache = true; want false by default")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("VALIDATE_XML_THREADS", "3")
	t.Setenv("VALIDATE_XML_FAIL_FAST", "true")
	t.Setenv("VALIDATE_XML_CACHE_TTL", "2h")
	t.Setenv("VALIDATE_XML_RETRY_ATTEMPTS", "7")
	t.Setenv("VALIDATE_XML_QUIET", "1")

	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Threads != 3 {
		t.Errorf("Threads = %d; want 3", c.Threads)
	}
	if !c.FailFast {
		t.Error("FailFast = false; want true")
	}
	if c.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL = %v; want 2h", c.CacheTTL)
	}
	if c.RetryAttempts != 7 {
		t.Errorf("RetryAttempts = %d; want 7", c.RetryAttempts)
	}
	if !c.Quiet {
		t.Error("Quiet = false; want true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "threads: 9\nfail_fast: true\nextensions:\n  - xml\n  - xhtml\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Threads != 9 {
		t.Errorf("Threads = %d; want 9", c.Threads)
	}
	if len(c.Extensions) != 2 {
		t.Errorf("Extensions = %v; want two entries", c.Extensions)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Load() error = nil; want error for missing explicit config file")
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("VALIDATE_XML_THREADS", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("threads", 0, "")
	if err := flags.Parse([]string{"--threads=5"}); err != nil {
		t.Fatal(err)
	}

	c, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Threads != 5 {
		t.Errorf("Threads = %d; want 5 (flag beats environment)", c.Threads)
	}
}

func TestConfig_Options(t *testing.T) {
	c := &Config{
		Threads:       4,
		FailFast:      true,
		Extensions:    []string{"xml"},
		CacheDir:      "/tmp/cache",
		CacheTTL:      time.Hour,
		NoDiskCache:   true,
		Timeout:       10 * time.Second,
		RetryAttempts: 2,
	}

	opts := c.Options()
	if opts.Concurrency != 4 || !opts.FailFast {
		t.Errorf("Options() concurrency = %d, failFast = %v; want 4, true", opts.Concurrency, opts.FailFast)
	}
	if opts.DiskTTL != time.Hour {
		t.Errorf("Options().DiskTTL = %v; want 1h", opts.DiskTTL)
	}
	if opts.DiskCache {
		t.Error("Options().DiskCache = true; want false")
	}
	if opts.FetchTimeout != 10*time.Second || opts.FetchRetries != 2 {
		t.Errorf("Options() fetch = %v/%d; want 10s/2", opts.FetchTimeout, opts.FetchRetries)
	}
}
