// Package filestore provides an authority store backed by a JSON file on
// disk, hot-reloaded when the file changes. The document maps identities to
// authority lists:
//
//	{
//	  "user-123": ["message:read", "message:write"],
//	  "svc-billing": ["billing:charge"]
//	}
//
// Lookups are served from an in-memory snapshot; a reload never blocks
// readers, and a malformed rewrite keeps the previous snapshot in place.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/authstore"
)

// Store implements authstore.Store over a watched JSON file.
type Store struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu     sync.RWMutex
	grants map[string]authority.Set

	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report reload failures. Defaults to
// slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New loads the file and starts watching it for changes. The watch is placed
// on the containing directory so atomic replace-by-rename (the usual way
// config files are rewritten) is observed.
func New(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path: path,
		log:  slog.Default(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	grants, err := load(path)
	if err != nil {
		return nil, err
	}
	s.grants = grants

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filestore: watcher init: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("filestore: watch %s: %w", filepath.Dir(path), err)
	}
	s.watcher = watcher
	go s.run()

	return s, nil
}

// Lookup implements authstore.Store.
func (s *Store) Lookup(_ context.Context, identity string) (authority.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.grants[identity]
	if !ok {
		return authority.Set{}, nil
	}
	return set.Copy(), nil
}

// Reload re-reads the file immediately, outside the watcher.
func (s *Store) Reload() error {
	grants, err := load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.grants = grants
	s.mu.Unlock()
	return nil
}

// Close stops the file watcher. Lookups keep serving the last snapshot.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func (s *Store) run() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				// Keep the previous snapshot; an editor mid-save or a bad
				// deploy must not wipe grants.
				s.log.Warn("authority file reload failed", "path", s.path, "error", err)
			}
		case watchErr, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("authority file watch error", "path", s.path, "error", watchErr)
		}
	}
}

func load(path string) (map[string]authority.Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", authstore.ErrUnavailable, path, err)
	}
	var doc map[string][]string
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("filestore: parse %s: %w", path, err)
	}
	grants := make(map[string]authority.Set, len(doc))
	for identity, authorities := range doc {
		grants[identity] = authority.NewSet(authorities...)
	}
	return grants, nil
}

var _ authstore.Store = (*Store)(nil)
