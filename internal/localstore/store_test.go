package localstore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "voxstory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSettings_RoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	v, err := s.GetSetting(KeyCurrentVoiceID)
	if err != nil || v != "" {
		t.Fatalf("expected empty setting, got %q err %v", v, err)
	}

	if err := s.SetSetting(KeyCurrentVoiceID, "v123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting(KeyCurrentVoiceID, "v456"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err = s.GetSetting(KeyCurrentVoiceID)
	if err != nil || v != "v456" {
		t.Fatalf("expected v456, got %q err %v", v, err)
	}

	if err := s.DeleteSetting(KeyCurrentVoiceID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteSetting(KeyCurrentVoiceID); err != nil {
		t.Fatalf("delete missing key should not fail: %v", err)
	}
	v, _ = s.GetSetting(KeyCurrentVoiceID)
	if v != "" {
		t.Fatalf("expected empty after delete, got %q", v)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "deeper", "app.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()
}
