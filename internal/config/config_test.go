package config

import (
	"testing"
	"time"
)

func TestBaseURLFor(t *testing.T) {
	cases := map[string]string{
		"dev":     devBaseURL,
		"local":   devBaseURL,
		"staging": stagingBaseURL,
		"prod":    prodBaseURL,
		"":        prodBaseURL,
		"unknown": prodBaseURL,
	}
	for env, want := range cases {
		if got := BaseURLFor(env); got != want {
			t.Errorf("BaseURLFor(%q) = %q, want %q", env, got, want)
		}
	}
}

func TestLoad_ExplicitBaseURLWins(t *testing.T) {
	t.Setenv("VOXSTORY_ENV", "dev")
	t.Setenv("VOXSTORY_BASE_URL", "http://127.0.0.1:9999/api")

	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.BaseURL != "http://127.0.0.1:9999/api" {
		t.Fatalf("base url = %q", s.BaseURL)
	}
}

func TestLoad_BadValueReturnsDefaults(t *testing.T) {
	t.Setenv("VOXSTORY_HTTP_TIMEOUT", "not-a-duration")

	s, err := Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if s != Default() {
		t.Fatalf("expected defaults on error, got %+v", s)
	}
	if s.HTTPTimeout != 30*time.Second || s.BaseURL != prodBaseURL {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestLoad_EnvSelectsBaseURL(t *testing.T) {
	t.Setenv("VOXSTORY_ENV", "staging")
	t.Setenv("VOXSTORY_BASE_URL", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.BaseURL != stagingBaseURL {
		t.Fatalf("base url = %q", s.BaseURL)
	}
}
