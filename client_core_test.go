package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/shardqueue"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
)

type stubExec struct{ stops int }

func (s *stubExec) Submit(context.Context, string, shardqueue.Job) error { return nil }
func (s *stubExec) Stop()                                                { s.stops++ }

// newTestClient wires a Client against a manual monitor and throwaway
// storage so tests never touch the network unless given a server URL.
func newTestClient(t *testing.T, baseURL string, online bool) (*Client, *reachability.Manual) {
	t.Helper()
	mon := reachability.NewManual(online)
	c, err := New(
		WithBaseURL(baseURL),
		WithDataDir(t.TempDir()),
		WithMonitor(mon),
		WithTokenStore(tokenstore.NewMemStore()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mon
}

func TestIsBackPressure(t *testing.T) {
	if !IsBackPressure(ErrBackPressure) {
		t.Fatalf("expected back pressure")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected back pressure detection")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := &stubExec{}
	c := &Client{exec: s}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.stops != 1 {
		t.Fatalf("executor stop called %d times", s.stops)
	}
}

func TestNew_BadDataDirFailsBeforeSpawningWorkers(t *testing.T) {
	// The data dir nests under a regular file, so opening the store fails.
	// New must fail before it creates the probe monitor or the executor,
	// since those start goroutines nobody would stop.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := New(
		WithBaseURL("http://example.com"),
		WithDataDir(filepath.Join(blocker, "data")),
	)
	if err == nil {
		_ = c.Close()
		t.Fatalf("expected error for unusable data dir")
	}
	if c != nil {
		t.Fatalf("failed New must return a nil client")
	}
}

func TestNew_DefaultsAndOptionValidation(t *testing.T) {
	c, _ := newTestClient(t, "http://example.com", true)
	if c == nil {
		t.Fatalf("expected client")
	}
	if c.baseURL != "http://example.com" {
		t.Fatalf("base url = %q", c.baseURL)
	}

	if _, err := New(WithBaseURL("")); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := New(WithHTTPTimeout(0)); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
	if _, err := New(WithTokenStore(nil)); err == nil {
		t.Fatalf("expected error for nil token store")
	}
}
