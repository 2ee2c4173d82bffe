package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	xmlvalidator "github.com/xmlvalid/validator"
)

func fastFetchOptions() *xmlvalidator.Options {
	opts := xmlvalidator.DefaultOptions()
	opts.FetchTimeout = 5 * time.Second
	opts.FetchRetries = 3
	opts.RetryDelay = time.Millisecond
	opts.MaxRetryDelay = 5 * time.Millisecond
	return opts
}

func TestFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != xmlvalidator.UserAgent {
			t.Errorf("User-Agent = %q; want %q", got, xmlvalidator.UserAgent)
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := NewFetcher(fastFetchOptions())
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Fetch() = %q; want %q", data, "hello")
	}
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(fastFetchOptions())
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Fetch() = %q; want %q", data, "ok")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d; want 3", got)
	}
}

func TestFetcher_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(fastFetchOptions())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch() error = nil; want error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d; want 1", got)
	}
}

func TestFetcher_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(fastFetchOptions())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch() error = nil; want error")
	}
	// Initial attempt plus three retries.
	if got := calls.Load(); got != 4 {
		t.Errorf("server calls = %d; want 4", got)
	}
}

func TestFetcher_ContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(fastFetchOptions())
	_, err := f.Fetch(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v; want context.Canceled", err)
	}
}
