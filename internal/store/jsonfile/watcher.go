package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hay-kot/battle/pkg/debounce"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDebounce is the window bursts of filesystem events collapse into.
	DefaultDebounce = 50 * time.Millisecond
	eventBufferSize = 100
)

// FileOp describes what happened to the watched file.
type FileOp string

const (
	FileCreated FileOp = "created"
	FileChanged FileOp = "changed"
	FileRemoved FileOp = "removed"
)

// FileEvent is delivered to subscribers after a debounced burst of changes.
// Op is the last operation observed in the burst.
type FileEvent struct {
	Path      string
	Op        FileOp
	Timestamp time.Time
}

// FileWatcher watches a single file. fsnotify watches the parent directory
// so the file may be created, replaced by rename, or removed.
type FileWatcher struct {
	path    string
	name    string
	watcher *fsnotify.Watcher

	mu          sync.Mutex
	subscribers []chan<- FileEvent
	lastOp      FileOp
	debouncer   *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher starts watching path. The parent directory is created if it
// doesn't exist. A zero delay uses DefaultDebounce.
func NewFileWatcher(path string, delay time.Duration) (*FileWatcher, error) {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		path:    path,
		name:    filepath.Base(path),
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}
	fw.debouncer = debounce.New(debounce.RealClock, delay, fw.notifySubscribers)

	fw.wg.Add(1)
	go fw.run()

	return fw, nil
}

// Path returns the watched file.
func (fw *FileWatcher) Path() string { return fw.path }

// Watch returns a channel receiving an event per debounced burst. The channel
// is closed when ctx is done or the watcher is closed.
func (fw *FileWatcher) Watch(ctx context.Context) <-chan FileEvent {
	ch := make(chan FileEvent, eventBufferSize)

	fw.mu.Lock()
	fw.subscribers = append(fw.subscribers, ch)
	fw.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			fw.unsubscribe(ch)
		case <-fw.ctx.Done():
		}
	}()

	return ch
}

// Close stops watching and closes all subscriber channels.
func (fw *FileWatcher) Close() error {
	fw.cancel()
	fw.debouncer.Close()

	fw.mu.Lock()
	for _, ch := range fw.subscribers {
		close(ch)
	}
	fw.subscribers = nil
	fw.mu.Unlock()

	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FileWatcher) unsubscribe(ch chan<- FileEvent) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for i, sub := range fw.subscribers {
		if sub == ch {
			fw.subscribers = append(fw.subscribers[:i], fw.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", fw.path).Msg("file watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != fw.name {
		return
	}

	var op FileOp
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = FileRemoved
	case event.Has(fsnotify.Create):
		op = FileCreated
	case event.Has(fsnotify.Write):
		op = FileChanged
	default:
		return
	}

	fw.mu.Lock()
	fw.lastOp = op
	fw.mu.Unlock()

	fw.debouncer.Schedule()
}

func (fw *FileWatcher) notifySubscribers() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	event := FileEvent{Path: fw.path, Op: fw.lastOp, Timestamp: time.Now()}
	for _, ch := range fw.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is behind; it will re-read on the next event
		}
	}
}
