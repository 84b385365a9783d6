package client

import (
	"context"
	"net/http"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestWithEnvironment_ResolvesBaseURL(t *testing.T) {
	c := &Client{}
	if err := WithEnvironment("dev")(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.resolveBaseURL(); got != "http://localhost:8080/api" {
		t.Fatalf("resolved = %q", got)
	}

	// explicit base URL wins over environment
	if err := WithBaseURL("http://10.0.0.1/api")(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.resolveBaseURL(); got != "http://10.0.0.1/api" {
		t.Fatalf("resolved = %q", got)
	}
}

func TestWithHTTPTimeout_Validation(t *testing.T) {
	c := &Client{}
	if err := WithHTTPTimeout(5 * time.Second)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.httpTimeout != 5*time.Second {
		t.Fatalf("timeout not set")
	}
	if err := WithHTTPTimeout(0)(c); err == nil {
		t.Fatalf("expected error for non-positive timeout")
	}
}

func TestDebugTransport_ForwardsToBase(t *testing.T) {
	var called bool
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	dt := &debugTransport{base: rt}
	hc := &http.Client{Transport: dt}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := hc.Do(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !called {
		t.Fatalf("base transport not invoked")
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	dt := &debugTransport{base: rt}
	hc := &http.Client{Transport: dt}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := hc.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	t.Setenv("VOXSTORY_DEBUG", "true")
	c, _ := newTestClient(t, "http://example.com", true)
	if !c.debug {
		t.Fatalf("expected debug enabled when VOXSTORY_DEBUG=true")
	}
}
