package jsonfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/history"
	"github.com/rs/zerolog/log"
)

// maxLineSize bounds a single history line; snapshots are whole documents.
const maxLineSize = 32 << 20

// historyLine mirrors history.Entry but keeps the document raw so a line
// whose config no longer normalizes can be skipped on its own.
type historyLine struct {
	Timestamp int64           `json:"timestamp"`
	Label     string          `json:"label"`
	Config    json.RawMessage `json:"config"`
}

// HistoryLog implements history.Log as a JSON-lines file. Each line is one
// entry; corrupt lines are skipped on read.
type HistoryLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewHistoryLog creates a log backed by the file at path. The file is
// created on first append.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path, now: time.Now}
}

// Path returns the backing file.
func (l *HistoryLog) Path() string { return l.path }

// Append records e with a timestamp strictly greater than every existing entry.
func (l *HistoryLog) Append(ctx context.Context, e history.Entry) (history.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return history.Entry{}, err
	}

	if e.Timestamp == 0 {
		e.Timestamp = l.now().UnixMilli()
	}
	for _, existing := range entries {
		if existing.Timestamp >= e.Timestamp {
			e.Timestamp = existing.Timestamp + 1
		}
	}

	return e, l.append(e)
}

// Import records e, bumping its timestamp only to avoid a collision.
func (l *HistoryLog) Import(ctx context.Context, e history.Entry) (history.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return history.Entry{}, err
	}

	used := make(map[int64]bool, len(entries))
	for _, existing := range entries {
		used[existing.Timestamp] = true
	}
	for used[e.Timestamp] {
		e.Timestamp++
	}

	return e, l.append(e)
}

// List returns all readable entries, newest first.
func (l *HistoryLog) List(ctx context.Context) ([]history.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// Get returns the entry with the given timestamp. Returns history.ErrNotFound
// if no readable entry has it.
func (l *HistoryLog) Get(ctx context.Context, timestamp int64) (history.Entry, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return history.Entry{}, err
	}

	for _, e := range entries {
		if e.Timestamp == timestamp {
			return e, nil
		}
	}
	return history.Entry{}, history.ErrNotFound
}

// load reads every line of the log. A missing file is an empty log.
func (l *HistoryLog) load() ([]history.Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []history.Entry

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		entry, err := decodeHistoryLine(line)
		if err != nil {
			log.Debug().Err(err).Str("path", l.path).Int("line", lineNo).Msg("skipping corrupt history line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read history: %w", err)
	}

	return entries, nil
}

func decodeHistoryLine(line []byte) (history.Entry, error) {
	var raw historyLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return history.Entry{}, err
	}

	cfg, err := battle.Parse(raw.Config)
	if err != nil {
		return history.Entry{}, err
	}

	return history.Entry{Timestamp: raw.Timestamp, Label: raw.Label, Config: cfg}, nil
}

// append writes one line. The file is opened in append mode so a partial
// write never corrupts earlier entries.
func (l *HistoryLog) append(e history.Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	return f.Close()
}
