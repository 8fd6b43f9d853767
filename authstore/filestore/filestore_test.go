package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/authstore"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestStore(t *testing.T, content string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authorities.json")
	writeFile(t, path, content)
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestLookup(t *testing.T) {
	s, _ := newTestStore(t, `{"user-123": ["message:read", "ACTUATOR"]}`)
	got, err := s.Lookup(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !got.Equal(authority.NewSet("message:read", "ACTUATOR")) {
		t.Fatalf("got %v", got.Slice())
	}
}

func TestLookup_UnknownIdentity(t *testing.T) {
	s, _ := newTestStore(t, `{}`)
	got, err := s.Lookup(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("got %v, want empty", got.Slice())
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNew_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorities.json")
	writeFile(t, path, `{not json`)
	if _, err := New(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestReload_PicksUpChanges(t *testing.T) {
	s, path := newTestStore(t, `{"user-123": ["a"]}`)
	writeFile(t, path, `{"user-123": ["a", "b"]}`)
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	got, _ := s.Lookup(context.Background(), "user-123")
	if !got.Equal(authority.NewSet("a", "b")) {
		t.Fatalf("got %v", got.Slice())
	}
}

func TestReload_MalformedKeepsPreviousSnapshot(t *testing.T) {
	s, path := newTestStore(t, `{"user-123": ["a"]}`)
	writeFile(t, path, `{broken`)
	if err := s.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	got, err := s.Lookup(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !got.Equal(authority.NewSet("a")) {
		t.Fatalf("got %v, want previous snapshot", got.Slice())
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	s, path := newTestStore(t, `{"user-123": ["a"]}`)
	writeFile(t, path, `{"user-123": ["a", "fresh"]}`)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err := s.Lookup(context.Background(), "user-123")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if got.Has("fresh") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not pick up file change")
}

var _ authstore.Store = (*Store)(nil)
