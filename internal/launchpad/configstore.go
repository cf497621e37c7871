package launchpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/history"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/hay-kot/battle/internal/store/jsonfile"
	"github.com/hay-kot/battle/pkg/kv"
	"github.com/rs/zerolog"
)

// stamp identifies one on-disk version of a file.
type stamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func (s stamp) same(o stamp) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

func statStamp(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{exists: true, modTime: info.ModTime(), size: info.Size()}
}

type cacheEntry struct {
	stamp  stamp
	config battle.Config
}

// Status describes the document at the resolved location.
type Status struct {
	Location Location
	Exists   bool
	Valid    bool
	Err      error
}

// DeleteResult reports what Delete removed.
type DeleteResult struct {
	Deleted bool
	Paths   []string
}

// Location is a human readable list of the removed files.
func (r DeleteResult) Location() string {
	return strings.Join(r.Paths, ", ")
}

// ConfigStore owns the launchpad document: cached reads, history-backed
// writes, and change notification.
type ConfigStore struct {
	resolver    *Resolver
	openHistory HistoryOpener
	bus         *eventbus.EventBus
	log         zerolog.Logger
	debounce    time.Duration

	cache *kv.Cache[string, cacheEntry]

	// mu serialises every mutation of the document.
	mu sync.Mutex

	watchMu   sync.Mutex
	watchCtx  context.Context
	watcher   *jsonfile.FileWatcher
	stopWatch context.CancelFunc

	stampMu   sync.Mutex
	lastStamp map[string]stamp
}

// NewConfigStore creates a store. debounce is the watcher event window.
func NewConfigStore(
	resolver *Resolver,
	openHistory HistoryOpener,
	bus *eventbus.EventBus,
	debounce time.Duration,
	log zerolog.Logger,
) *ConfigStore {
	return &ConfigStore{
		resolver:    resolver,
		openHistory: openHistory,
		bus:         bus,
		log:         logging.For(log, "config-store"),
		debounce:    debounce,
		cache:       kv.New[string, cacheEntry](),
		lastStamp:   make(map[string]stamp),
	}
}

// Resolver returns the location resolver backing the store.
func (s *ConfigStore) Resolver() *Resolver { return s.resolver }

// Location resolves the current document location.
func (s *ConfigStore) Location(ctx context.Context) (Location, error) {
	return s.resolver.Resolve(ctx)
}

// Path resolves the current document path.
func (s *ConfigStore) Path(ctx context.Context) (string, error) {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return loc.Path, nil
}

// Read returns the document, or an empty one when there is no workspace, no
// file, or the file is invalid. The result is a copy the caller may mutate.
func (s *ConfigStore) Read(ctx context.Context) battle.Config {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return battle.Empty()
	}

	cfg, err := s.load(loc.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Debug().Err(err).Str("path", loc.Path).Msg("unusable config, using empty")
		}
		return battle.Empty()
	}
	return cfg.Clone()
}

// Inspect reports whether the document exists and parses.
func (s *ConfigStore) Inspect(ctx context.Context) Status {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return Status{Err: err}
	}

	_, err = s.load(loc.Path)
	switch {
	case err == nil:
		return Status{Location: loc, Exists: true, Valid: true}
	case errors.Is(err, os.ErrNotExist):
		return Status{Location: loc}
	default:
		return Status{Location: loc, Exists: true, Err: err}
	}
}

// load returns the cached document while the file's stamp is unchanged.
func (s *ConfigStore) load(path string) (battle.Config, error) {
	st := statStamp(path)
	if !st.exists {
		s.cache.Forget(path)
		return battle.Config{}, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}

	if e, ok := s.cache.Lookup(path, func(e cacheEntry) bool { return e.stamp.same(st) }); ok {
		return e.config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return battle.Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := battle.Parse(data)
	if err != nil {
		return battle.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	s.cache.Put(path, cacheEntry{stamp: st, config: cfg})
	return cfg, nil
}

// Write replaces the document with cfg, recording the previous document in
// history first.
func (s *ConfigStore) Write(ctx context.Context, cfg battle.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeLocked(ctx, cfg, history.LabelBeforeSave, eventbus.ReasonWrite)
}

// Update applies fn to the current document and writes the result. Nothing
// is written when fn returns an error or the current document is invalid.
func (s *ConfigStore) Update(ctx context.Context, fn func(cfg *battle.Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	cfg, err := s.load(loc.Path)
	switch {
	case err == nil:
		cfg = cfg.Clone()
	case errors.Is(err, os.ErrNotExist):
		cfg = battle.Empty()
	default:
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := fn(&cfg); err != nil {
		return err
	}
	return s.writeLocked(ctx, cfg, history.LabelBeforeSave, eventbus.ReasonWrite)
}

func (s *ConfigStore) writeLocked(ctx context.Context, cfg battle.Config, label string, reason eventbus.ChangeReason) error {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(loc.Dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	s.snapshot(ctx, loc, loc.Path, label)

	data, err := json.MarshalIndent(cfg.Compact(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	tmp := loc.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, loc.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}

	s.cache.Forget(loc.Path)

	st := statStamp(loc.Path)
	if !st.exists {
		return &WriteVerificationError{Path: loc.Path, Err: os.ErrNotExist}
	}
	s.remember(loc.Path, st)

	s.log.Debug().Str("path", loc.Path).Str("reason", string(reason)).Int("actions", len(cfg.Actions)).Msg("config written")
	s.bus.PublishConfigChanged(eventbus.ConfigChangedPayload{Path: loc.Path, Reason: reason})
	return nil
}

// snapshot appends the document at path to the history log. Failures are
// logged and never returned.
func (s *ConfigStore) snapshot(ctx context.Context, loc Location, path, label string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", path).Msg("history snapshot: read")
		}
		return
	}

	cfg, err := battle.Parse(data)
	if err != nil {
		s.backupInvalid(path, data, err)
		return
	}

	entry, err := s.openHistory(loc.HistoryPath()).Append(ctx, history.Entry{Label: label, Config: cfg})
	if err != nil {
		s.log.Warn().Err(err).Msg("history snapshot: append")
		return
	}
	s.log.Debug().Int64("timestamp", entry.Timestamp).Str("label", label).Msg("history snapshot")
}

// backupInvalid keeps the raw bytes of a document the history log cannot
// hold, next to it as <name>.invalid-<unix millis>.
func (s *ConfigStore) backupInvalid(path string, data []byte, cause error) {
	backup := fmt.Sprintf("%s.invalid-%d", path, time.Now().UnixMilli())
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("history snapshot: back up invalid document")
		return
	}
	s.log.Warn().Err(cause).Str("path", path).Str("backup", backup).Msg("history snapshot: current document is invalid, kept a raw copy")
}

// Delete snapshots the document and removes it from the current and every
// legacy location.
func (s *ConfigStore) Delete(ctx context.Context) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return DeleteResult{}, err
	}

	candidates, err := s.resolver.Candidates(ctx)
	if err != nil {
		return DeleteResult{}, err
	}

	var (
		result   DeleteResult
		errs     []error
		snapshot bool
	)
	for _, path := range candidates {
		if !fileExists(path) {
			continue
		}
		if !snapshot {
			s.snapshot(ctx, loc, path, history.LabelDeleted)
			snapshot = true
		}

		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
			continue
		}
		s.cache.Forget(path)
		result.Paths = append(result.Paths, path)
	}

	result.Deleted = len(result.Paths) > 0
	if result.Deleted {
		s.remember(loc.Path, stamp{})
		s.bus.PublishConfigChanged(eventbus.ConfigChangedPayload{Path: loc.Path, Reason: eventbus.ReasonDelete})
	}

	return result, errors.Join(errs...)
}

// ListVersions returns the history entries, newest first.
func (s *ConfigStore) ListVersions(ctx context.Context) ([]history.Entry, error) {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return s.openHistory(loc.HistoryPath()).List(ctx)
}

// Version returns a single history entry.
func (s *ConfigStore) Version(ctx context.Context, timestamp int64) (history.Entry, error) {
	loc, err := s.resolver.Resolve(ctx)
	if err != nil {
		return history.Entry{}, err
	}
	return s.openHistory(loc.HistoryPath()).Get(ctx, timestamp)
}

// RestoreVersion replaces the document with the history entry at timestamp,
// snapshotting the current document first.
func (s *ConfigStore) RestoreVersion(ctx context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.Version(ctx, timestamp)
	if err != nil {
		return fmt.Errorf("restore version %d: %w", timestamp, err)
	}
	return s.writeLocked(ctx, entry.Config, history.LabelBeforeRestore, eventbus.ReasonRestore)
}

// SetCustomDir moves document resolution to dir. The document itself is not
// copied; the previous location is simply no longer consulted.
func (s *ConfigStore) SetCustomDir(ctx context.Context, dir string) error {
	if err := s.resolver.SetCustomDir(ctx, dir); err != nil {
		return fmt.Errorf("set custom dir: %w", err)
	}
	return s.relocated(ctx)
}

// ClearCustomDir returns resolution to the workspace default.
func (s *ConfigStore) ClearCustomDir(ctx context.Context) error {
	if err := s.resolver.ClearCustomDir(ctx); err != nil {
		return fmt.Errorf("clear custom dir: %w", err)
	}
	return s.relocated(ctx)
}

func (s *ConfigStore) relocated(ctx context.Context) error {
	s.cache.Reset()

	s.watchMu.Lock()
	err := s.armLocked()
	s.watchMu.Unlock()
	if err != nil {
		return err
	}

	path, err := s.Path(ctx)
	if err != nil {
		return err
	}
	s.bus.PublishConfigChanged(eventbus.ConfigChangedPayload{Path: path, Reason: eventbus.ReasonRelocate})
	return nil
}

// Watch starts publishing external changes to the document until ctx ends
// or Close is called. The watch follows custom directory changes.
func (s *ConfigStore) Watch(ctx context.Context) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.watchCtx = ctx
	return s.armLocked()
}

// armLocked (re)creates the file watcher for the resolved path. It is a no-op
// until Watch has been called.
func (s *ConfigStore) armLocked() error {
	if s.watchCtx == nil {
		return nil
	}
	s.disarmLocked()

	loc, err := s.resolver.Resolve(s.watchCtx)
	if err != nil {
		return err
	}

	w, err := jsonfile.NewFileWatcher(loc.Path, s.debounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", loc.Path, err)
	}

	ctx, cancel := context.WithCancel(s.watchCtx)
	events := w.Watch(ctx)
	s.watcher = w
	s.stopWatch = cancel

	go func() {
		for ev := range events {
			s.handleFileEvent(ev)
		}
	}()

	s.log.Debug().Str("path", loc.Path).Msg("watching config")
	return nil
}

func (s *ConfigStore) disarmLocked() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close watcher")
		}
		s.watcher = nil
	}
}

// handleFileEvent evicts the cache and publishes the change unless the file
// is exactly as this store last left it.
func (s *ConfigStore) handleFileEvent(ev jsonfile.FileEvent) {
	s.cache.Forget(ev.Path)

	st := statStamp(ev.Path)
	if s.isOwn(ev.Path, st) {
		s.log.Debug().Str("path", ev.Path).Str("op", string(ev.Op)).Msg("ignoring own change")
		return
	}

	s.remember(ev.Path, st)
	s.log.Debug().Str("path", ev.Path).Str("op", string(ev.Op)).Msg("external config change")
	s.bus.PublishConfigChanged(eventbus.ConfigChangedPayload{Path: ev.Path, Reason: eventbus.ReasonExternal})
}

func (s *ConfigStore) remember(path string, st stamp) {
	s.stampMu.Lock()
	s.lastStamp[filepath.Clean(path)] = st
	s.stampMu.Unlock()
}

func (s *ConfigStore) isOwn(path string, st stamp) bool {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	last, ok := s.lastStamp[filepath.Clean(path)]
	return ok && last.same(st)
}

// Close stops watching.
func (s *ConfigStore) Close() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.disarmLocked()
	s.watchCtx = nil

	st := s.cache.Stats()
	s.log.Debug().Uint64("hits", st.Hits).Uint64("misses", st.Misses).Msg("config cache closed")
	return nil
}
