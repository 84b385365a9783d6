package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"time"

	"github.com/voxstory/voxstory-client/internal/clock"
	"github.com/voxstory/voxstory-client/internal/config"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
)

// Option configures a Client during construction in New.
//
// Options are applied before any dependency is wired, so overrides (token
// store, monitor, clock) replace the defaults wholesale. Options must be
// deterministic and side-effect free.
type Option func(*Client) error

// WithEnvironment selects the API environment ("dev", "staging", "prod").
// An explicit WithBaseURL takes precedence.
func WithEnvironment(env string) Option {
	return func(c *Client) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.env = env
		return nil
	}
}

// WithBaseURL overrides the API root resolved from the environment.
func WithBaseURL(url string) Option {
	return func(c *Client) error {
		if url == "" {
			return fmt.Errorf("base url cannot be empty")
		}
		c.baseURL = url
		return nil
	}
}

// WithDataDir sets the directory holding the local database, token file,
// and downloaded audio.
func WithDataDir(dir string) Option {
	return func(c *Client) error {
		if dir == "" {
			return fmt.Errorf("data dir cannot be empty")
		}
		c.dataDir = dir
		return nil
	}
}

// WithHTTPTimeout sets the per-request timeout used by the gateway.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net that bounds the total time spent on a single HTTP
// request. Streaming downloads and uploads are exempt and run under the
// caller's context alone. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.httpTimeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true.
//
// Do not enable this option in production environments as it increases
// verbosity and may include headers and method/URL metadata in logs.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

// WithTokenStore replaces the default file-backed token store. Platforms
// with a keychain supply their own implementation.
func WithTokenStore(s tokenstore.Store) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("token store cannot be nil")
		}
		c.tokens = s
		return nil
	}
}

// WithMonitor replaces the default probe-based reachability monitor.
func WithMonitor(m reachability.Monitor) Option {
	return func(c *Client) error {
		if m == nil {
			return fmt.Errorf("monitor cannot be nil")
		}
		c.monitor = m
		c.ownMonitor = false
		return nil
	}
}

// WithClock injects the time source used by polling and expiry logic.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) error {
		if clk == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.clk = clk
		return nil
	}
}

// WithExecutor replaces the default shard executor. Mainly for tests.
func WithExecutor(e executor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("executor cannot be nil")
		}
		c.exec = e
		return nil
	}
}

// resolveBaseURL applies environment selection when no explicit URL is set.
func (c *Client) resolveBaseURL() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return config.BaseURLFor(c.env)
}
