package audiocache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/gateway"
	"github.com/voxstory/voxstory-client/internal/localstore"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
	"github.com/voxstory/voxstory-client/internal/types"
)

func newTestManager(t *testing.T, handler http.Handler, online bool) (*Manager, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var gw *gateway.Gateway
	mon := reachability.NewManual(online)
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		gw = gateway.New(srv.URL, srv.Client(), tokenstore.NewMemStore(), mon)
	} else {
		gw = gateway.New("http://127.0.0.1:0", &http.Client{}, tokenstore.NewMemStore(), mon)
	}
	return New(store, gw, mon, filepath.Join(t.TempDir(), "audio")), store
}

func seedEntry(t *testing.T, store *localstore.Store, voiceID, storyID, path string) {
	t.Helper()
	err := store.DB().Save(&localstore.AudioEntry{
		VoiceID: voiceID, StoryID: storyID, LocalPath: path, CreatedAt: time.Now(),
	}).Error
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("mp3-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCheckExists_VerifiedLocalHit(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, nil, false)
	path := filepath.Join(t.TempDir(), "v123_42.mp3")
	writeFile(t, path)
	seedEntry(t, store, "v123", "42", path)

	res, err := m.CheckExists(context.Background(), "v123", "42")
	if err != nil {
		t.Fatalf("checkExists: %v", err)
	}
	if !res.Exists || res.LocalURI != path || !res.Verified {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCheckExists_PrunesDanglingEntryOffline(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, nil, false)
	seedEntry(t, store, "v123", "42", filepath.Join(t.TempDir(), "gone.mp3"))

	res, err := m.CheckExists(context.Background(), "v123", "42")
	if err != nil {
		t.Fatalf("checkExists: %v", err)
	}
	if res.Exists {
		t.Fatalf("dangling entry must not report exists: %+v", res)
	}

	var n int64
	store.DB().Model(&localstore.AudioEntry{}).Count(&n)
	if n != 0 {
		t.Fatalf("stale entry not pruned, %d rows remain", n)
	}
}

func TestCheckExists_FallsThroughToServer(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/voices/v123/stories/42/audio" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}), true)

	res, err := m.CheckExists(context.Background(), "v123", "42")
	if err != nil || !res.Exists || res.LocalURI != "" {
		t.Fatalf("expected remote-only existence, got %+v err %v", res, err)
	}
}

func TestDownload_StoresAndServesFromCache(t *testing.T) {
	t.Parallel()
	payload := strings.Repeat("x", 200_000)
	var serverHits int
	m, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		_, _ = w.Write([]byte(payload))
	}), true)

	var fractions []float64
	res, err := m.Download(context.Background(), "v123", "42", func(f float64) { fractions = append(fractions, f) })
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if res.FromCache {
		t.Fatal("first download must not be fromCache")
	}
	data, err := os.ReadFile(res.URI)
	if err != nil || string(data) != payload {
		t.Fatalf("file content mismatch: %v", err)
	}
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("expected progress ending at 1, got %v", fractions)
	}
	base := filepath.Base(res.URI)
	if !strings.HasPrefix(base, "v123_42_") || !strings.HasSuffix(base, ".mp3") {
		t.Fatalf("filename must embed voice and story ids: %s", base)
	}

	// Second call is a verified cache hit.
	res2, err := m.Download(context.Background(), "v123", "42", nil)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	if !res2.FromCache || res2.URI != res.URI {
		t.Fatalf("expected cache hit, got %+v", res2)
	}
	if serverHits != 1 {
		t.Fatalf("expected one server hit, got %d", serverHits)
	}
}

func TestDownload_OfflineFails(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, nil, false)
	_, err := m.Download(context.Background(), "v1", "1", nil)
	if apierr.CodeOf(err) != apierr.CodeOffline {
		t.Fatalf("expected OFFLINE, got %v", err)
	}
}

func TestDownload_CancelDiscardsPartialFile(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	m, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		flusher := w.(http.Flusher)
		for i := 0; i < 100; i++ {
			_, _ = w.Write(make([]byte, 10_000))
			flusher.Flush()
			if i == 2 {
				cancel()
			}
			time.Sleep(time.Millisecond)
		}
	}), true)

	_, err := m.Download(ctx, "v1", "1", nil)
	if apierr.CodeOf(err) != apierr.CodeDownloadCancelled {
		t.Fatalf("expected DOWNLOAD_CANCELLED, got %v", err)
	}

	// No partial file, no registry row.
	var n int64
	store.DB().Model(&localstore.AudioEntry{}).Count(&n)
	if n != 0 {
		t.Fatalf("cancelled download must not register an entry, %d rows", n)
	}
}

func TestDownload_DeadlineMidStreamIsTimeout(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		flusher := w.(http.Flusher)
		for i := 0; i < 100; i++ {
			_, _ = w.Write(make([]byte, 10_000))
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	}), true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.Download(ctx, "v1", "1", nil)
	if apierr.CodeOf(err) != apierr.CodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if apierr.IsIrrecoverable(err) {
		t.Fatalf("a timed-out download must be recoverable: %v", err)
	}

	var n int64
	store.DB().Model(&localstore.AudioEntry{}).Count(&n)
	if n != 0 {
		t.Fatalf("timed-out download must not register an entry, %d rows", n)
	}
}

func TestClearForVoice_Idempotent(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, nil, false)
	ctx := context.Background()

	p1 := filepath.Join(t.TempDir(), "a.mp3")
	writeFile(t, p1)
	seedEntry(t, store, "v1", "1", p1)
	seedEntry(t, store, "v1", "2", filepath.Join(t.TempDir(), "missing.mp3"))
	seedEntry(t, store, "v2", "1", filepath.Join(t.TempDir(), "other.mp3"))

	if err := m.ClearForVoice(ctx, "v1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(p1); !os.IsNotExist(err) {
		t.Fatal("backing file should be deleted")
	}
	if err := m.ClearForVoice(ctx, "v1"); err != nil {
		t.Fatalf("second clear must be a no-op: %v", err)
	}

	var n int64
	store.DB().Model(&localstore.AudioEntry{}).Where("voice_id = ?", "v2").Count(&n)
	if n != 1 {
		t.Fatal("other voices must be untouched")
	}
}

func TestMarkLocal(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, nil, false)
	path := filepath.Join(t.TempDir(), "v1_1.mp3")
	writeFile(t, path)
	seedEntry(t, store, "v1", "1", path)

	stories := []types.Story{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	marked := m.MarkLocal(context.Background(), "v1", stories)
	if !marked[0].HasLocalAudio || marked[0].LocalURI != path {
		t.Fatalf("story 1 should be marked local: %+v", marked[0])
	}
	if marked[1].HasLocalAudio {
		t.Fatalf("story 2 must not be marked local: %+v", marked[1])
	}
}

func TestRecoverCorrupt_DeletesAndRedownloads(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh-bytes"))
	}), true)
	ctx := context.Background()

	corrupt := filepath.Join(t.TempDir(), "corrupt.mp3")
	writeFile(t, corrupt)
	seedEntry(t, store, "v1", "1", corrupt)

	res, err := m.RecoverCorrupt(ctx, "v1", "1", nil)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if res.FromCache {
		t.Fatal("recovery must force a fresh download")
	}
	if _, err := os.Stat(corrupt); !os.IsNotExist(err) {
		t.Fatal("corrupt file should be deleted")
	}
	data, _ := os.ReadFile(res.URI)
	if string(data) != "fresh-bytes" {
		t.Fatalf("unexpected recovered content %q", data)
	}
}
