package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDisk(t *testing.T, dir string, ttl time.Duration) *Disk {
	t.Helper()
	d, err := OpenDisk(filepath.Join(dir, "schemas.db"), ttl)
	if err != nil {
		t.Fatalf("OpenDisk() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDisk_PutGet(t *testing.T) {
	ctx := context.Background()
	d := openTestDisk(t, t.TempDir(), time.Hour)

	rec := Record{Identity: "https://example.com/a.xsd", Data: []byte("<schema/>"), FetchedAt: time.Now()}
	if err := d.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := d.Get(ctx, rec.Identity)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want hit", ok, err)
	}
	if string(got.Data) != string(rec.Data) {
		t.Errorf("Get() data = %q; want %q", got.Data, rec.Data)
	}

	if _, ok, _ := d.Get(ctx, "https://example.com/missing.xsd"); ok {
		t.Error("Get(missing) = hit; want miss")
	}
}

func TestDisk_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	d := openTestDisk(t, dir, time.Hour)
	rec := Record{Identity: "https://example.com/b.xsd", Data: []byte("<schema/>"), FetchedAt: time.Now()}
	if err := d.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := openTestDisk(t, dir, time.Hour)
	if _, ok, err := reopened.Get(ctx, rec.Identity); err != nil || !ok {
		t.Errorf("Get() after reopen = %v, %v; want hit", ok, err)
	}
}

func TestDisk_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	d := openTestDisk(t, t.TempDir(), time.Hour)

	// Fetched two hours ago with a one hour TTL, so already expired.
	rec := Record{
		Identity:  "https://example.com/c.xsd",
		Data:      []byte("<schema/>"),
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	if err := d.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok, err := d.Get(ctx, rec.Identity); err != nil || ok {
		t.Errorf("Get() after expiry = %v, %v; want miss", ok, err)
	}

	stats, err := d.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Stats().Entries = %d; want 0 after expired row removal", stats.Entries)
	}
}

func TestDisk_EmptyDataTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	d := openTestDisk(t, t.TempDir(), time.Hour)

	rec := Record{Identity: "https://example.com/d.xsd", Data: []byte{}, FetchedAt: time.Now()}
	if err := d.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok, err := d.Get(ctx, rec.Identity); err != nil || ok {
		t.Errorf("Get() of empty record = %v, %v; want miss", ok, err)
	}
}

func TestDisk_Clear(t *testing.T) {
	ctx := context.Background()
	d := openTestDisk(t, t.TempDir(), time.Hour)

	for _, id := range []string{"a", "b", "c"} {
		rec := Record{Identity: id, Data: []byte("<schema/>"), FetchedAt: time.Now()}
		if err := d.Put(ctx, rec); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}
	if err := d.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	stats, err := d.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Stats().Entries = %d; want 0", stats.Entries)
	}
}
