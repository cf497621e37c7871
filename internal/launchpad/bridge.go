package launchpad

import (
	"context"
	"sync"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/pkg/debounce"
)

// Mode is what the view is currently showing.
type Mode string

const (
	ModeMain           Mode = "main"
	ModeAddAction      Mode = "add-action"
	ModeAddGroup       Mode = "add-group"
	ModeEditAction     Mode = "edit-action"
	ModeEditGroup      Mode = "edit-group"
	ModeSettings       Mode = "settings"
	ModeGenerateConfig Mode = "generate-config"
	ModeLoading        Mode = "loading"
)

// UpdateKind is the shape of an update sent to the renderer.
type UpdateKind string

const (
	// KindPatch updates a main list that is already on screen in place.
	KindPatch UpdateKind = "patch"
	// KindFullRender repaints the view from scratch.
	KindFullRender UpdateKind = "fullRender"
)

// Display holds the live user-facing display settings.
type Display struct {
	ShowHidden bool
	Layout     string
}

// Update is one notification to the renderer. Config has its icon table
// completed from settings and defaults. Status is only set on full renders.
type Update struct {
	Kind    UpdateKind
	Mode    Mode
	Config  battle.Config
	Display Display
	Status  *Status
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	Clock   debounce.Clock
	Delay   time.Duration
	Icons   []battle.IconMapping
	Display Display
}

// Bridge turns document changes and view state changes into renderer
// updates. Bursts collapse into a single update carrying the latest state.
type Bridge struct {
	store *ConfigStore
	sink  func(Update)
	icons []battle.IconMapping
	deb   *debounce.Debouncer

	// emitMu serialises emit so the last update delivered carries the
	// latest state. sink must not call Flush.
	emitMu sync.Mutex

	mu       sync.Mutex
	mode     Mode
	visible  bool
	display  Display
	rendered bool
	lastMode Mode
	// needFull forces the next update to be a full render; set whenever the
	// view may not reflect the last update (mode switch, hidden and shown).
	needFull bool
	closed   bool
}

// NewBridge creates a bridge delivering updates to sink and subscribes it to
// document changes on bus. The view starts visible in loading mode.
func NewBridge(store *ConfigStore, bus *eventbus.EventBus, opts BridgeOptions, sink func(Update)) *Bridge {
	b := &Bridge{
		store:    store,
		sink:     sink,
		icons:    opts.Icons,
		mode:     ModeLoading,
		visible:  true,
		display:  opts.Display,
		needFull: true,
	}
	b.deb = debounce.New(opts.Clock, opts.Delay, b.emit)

	if bus != nil {
		bus.SubscribeConfigChanged(func(eventbus.ConfigChangedPayload) { b.Notify() })
	}
	return b
}

// Notify records that something changed. The update follows once the
// debounce window passes quietly.
func (b *Bridge) Notify() {
	b.deb.Schedule()
}

// SetMode records the view's mode. Any change forces a full render.
func (b *Bridge) SetMode(mode Mode) {
	b.mu.Lock()
	if b.mode != mode {
		b.mode = mode
		b.needFull = true
	}
	b.mu.Unlock()
	b.Notify()
}

// Mode returns the tracked view mode.
func (b *Bridge) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// SetVisible records view visibility. Nothing is emitted while hidden; the
// view is fully repainted when it becomes visible again.
func (b *Bridge) SetVisible(visible bool) {
	b.mu.Lock()
	was := b.visible
	b.visible = visible
	if visible && !was {
		b.needFull = true
	}
	b.mu.Unlock()

	if visible && !was {
		b.Notify()
	}
}

// SetShowHidden toggles hidden actions in the view.
func (b *Bridge) SetShowHidden(show bool) {
	b.mu.Lock()
	b.display.ShowHidden = show
	b.mu.Unlock()
	b.Notify()
}

// SetDisplay replaces the display settings.
func (b *Bridge) SetDisplay(d Display) {
	b.mu.Lock()
	b.display = d
	b.mu.Unlock()
	b.Notify()
}

// Flush delivers a pending update immediately.
func (b *Bridge) Flush() bool {
	return b.deb.Flush()
}

// Close drops any pending update and stops further updates.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.deb.Close()
}

func (b *Bridge) emit() {
	b.emitMu.Lock()
	defer b.emitMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if !b.visible {
		b.needFull = true
		b.mu.Unlock()
		return
	}

	kind := KindFullRender
	if b.rendered && !b.needFull && b.lastMode == ModeMain && b.mode == ModeMain {
		kind = KindPatch
	}

	mode, display := b.mode, b.display
	b.rendered = true
	b.lastMode = mode
	b.needFull = false
	b.mu.Unlock()

	ctx := context.Background()
	cfg := b.store.Read(ctx)
	cfg.Icons = battle.MergeIcons(cfg.Icons, b.icons, battle.DefaultIcons)

	u := Update{Kind: kind, Mode: mode, Config: cfg, Display: display}
	if kind == KindFullRender {
		st := b.store.Inspect(ctx)
		u.Status = &st
	}
	b.sink(u)
}
