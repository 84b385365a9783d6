package main

import (
	"testing"
	"time"
)

func TestRootCmd_FlagDefaultsComeFromEnvironment(t *testing.T) {
	t.Setenv("VOXSTORY_ENV", "staging")
	t.Setenv("VOXSTORY_DATA_DIR", "/tmp/vox-cli-test")
	t.Setenv("VOXSTORY_HTTP_TIMEOUT", "45s")
	t.Setenv("VOXSTORY_BASE_URL", "")

	cmd := NewRootCmd()

	if got := cmd.PersistentFlags().Lookup("env").DefValue; got != "staging" {
		t.Fatalf("env default = %q, want staging", got)
	}
	if got := cmd.PersistentFlags().Lookup("data-dir").DefValue; got != "/tmp/vox-cli-test" {
		t.Fatalf("data-dir default = %q", got)
	}
	if settings.HTTPTimeout != 45*time.Second {
		t.Fatalf("http timeout = %v, want 45s", settings.HTTPTimeout)
	}
	// --base-url stays a pure override; the resolved URL lives in settings.
	if got := cmd.PersistentFlags().Lookup("base-url").DefValue; got != "" {
		t.Fatalf("base-url default = %q, want empty", got)
	}
}

func TestRootCmd_InvalidEnvironmentDegradesToDefaults(t *testing.T) {
	t.Setenv("VOXSTORY_HTTP_TIMEOUT", "soon")

	cmd := NewRootCmd()

	if settings.Env != "prod" || settings.HTTPTimeout != 30*time.Second {
		t.Fatalf("expected default settings, got %+v", settings)
	}
	if got := cmd.PersistentFlags().Lookup("data-dir").DefValue; got != "./data/voxstory" {
		t.Fatalf("data-dir default = %q", got)
	}
}
