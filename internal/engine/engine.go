package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"led-display/internal/models"
	"led-display/internal/store"
)

// State names the display-context lifecycle positions. INITIALIZING is
// entered once at start and must complete (with defaults on error) before
// any slide is rendered.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateLoaded       State = "LOADED"
	StateSyncing      State = "SYNCING"
	StateReloading    State = "RELOADING"
)

// Engine owns the working in-memory slideshow document for one context and
// keeps it reconciled against the durable store. The editor context mutates
// the document through Apply and friends; display contexts only pull via
// SyncFromStore and ForceReload.
type Engine struct {
	store store.SnapshotStore
	guard *EditGuard

	mu       sync.RWMutex
	snap     *models.Snapshot
	hash     string
	lastGood *models.Snapshot
	state    State

	onChange func(snap *models.Snapshot)

	loopMu  sync.Mutex
	stop    chan struct{}
	running bool
}

// NewEngine wires an engine over a snapshot store. guard may be nil for
// passive display contexts that never edit.
func NewEngine(s store.SnapshotStore, guard *EditGuard) *Engine {
	return &Engine{
		store: s,
		guard: guard,
		state: StateInitializing,
	}
}

// OnChange registers a hook invoked whenever the working document is
// replaced from outside the local editor (sync, reload, revert). Display
// contexts hang their re-render on it.
func (e *Engine) OnChange(f func(snap *models.Snapshot)) { e.onChange = f }

// LoadInitial establishes the working document:
//
//  1. load the stored snapshot;
//  2. none stored: synthesize the built-in defaults and persist them as the
//     first snapshot;
//  3. stored but missing singleton categories: append the missing default
//     instances, never replacing user-edited slides;
//  4. de-duplicate singleton slides sharing an id or a name, keeping the
//     first occurrence in sequence order;
//  5. commit the result and record its hash as the persisted baseline so no
//     spurious re-save follows.
//
// Never fatal: on a load error the defaults are used in memory (and not
// persisted, since the store may hold a perfectly good document we simply
// could not read right now). The display never shows a blank screen.
func (e *Engine) LoadInitial(ctx context.Context) error {
	e.setState(StateInitializing)

	snap, loadErr := e.store.Load(ctx)
	if loadErr != nil {
		log.Printf("⚠️ Snapshot load failed, falling back to defaults: %v", loadErr)
		snap = nil
	}

	if snap == nil {
		snap = models.NewSnapshot(DefaultSlides())
		if loadErr == nil {
			if err := e.store.Save(ctx, snap); err != nil {
				log.Printf("⚠️ Could not persist initial default snapshot: %v", err)
			} else {
				log.Printf("🌱 Seeded %d default slides", len(snap.Slides))
			}
		}
	} else {
		reconcile(snap)
	}

	e.mu.Lock()
	e.snap = snap
	e.hash = HashSlides(snap.Slides)
	e.lastGood = snap.Clone()
	e.state = StateLoaded
	e.mu.Unlock()

	return loadErr
}

// reconcile applies the default-state reconciliation algorithm to a loaded
// snapshot in place: de-duplicate first, then seed what is missing.
func reconcile(snap *models.Snapshot) {
	// Pass 1: drop later slides reusing an id, and later singleton slides
	// reusing a name within their category. First in sequence order wins.
	seenIDs := map[string]bool{}
	seenNames := map[string]bool{} // category + "\x00" + name
	kept := snap.Slides[:0]
	for _, s := range snap.Slides {
		if seenIDs[s.ID] {
			log.Printf("🧹 Dropping duplicate slide id=%s name=%q", s.ID, s.Name)
			continue
		}
		if cat := s.Category(); cat != "" {
			nameKey := cat + "\x00" + s.Name
			if seenNames[nameKey] {
				log.Printf("🧹 Dropping duplicate %s slide name=%q id=%s", cat, s.Name, s.ID)
				continue
			}
			seenNames[nameKey] = true
		}
		seenIDs[s.ID] = true
		kept = append(kept, s)
	}
	snap.Slides = kept

	// Pass 2: append default instances for singleton categories the stored
	// document lost entirely.
	present := map[string]bool{}
	for _, s := range snap.Slides {
		if cat := s.Category(); cat != "" {
			present[cat] = true
		}
	}
	for _, d := range DefaultSlides() {
		if d.IsSingleton() && !present[d.Category()] {
			log.Printf("🌱 Re-seeding missing %s slide %q", d.Category(), d.Name)
			snap.Slides = append(snap.Slides, d)
			present[d.Category()] = true
		}
	}
}

// SyncFromStore re-pulls the stored snapshot and replaces the working
// document only when its slide hash (or the display settings) actually
// differ, preventing pointless re-renders. Suppressed entirely while the
// edit guard is held. Returns whether the working document changed.
func (e *Engine) SyncFromStore(ctx context.Context) (bool, error) {
	if e.guard != nil && e.guard.Active() {
		syncSkipped.WithLabelValues("edit_guard").Inc()
		return false, nil
	}

	e.setState(StateSyncing)
	defer e.setState(StateLoaded)

	remote, err := e.store.Load(ctx)
	if err != nil {
		syncSkipped.WithLabelValues("load_error").Inc()
		return false, err
	}
	if remote == nil {
		syncSkipped.WithLabelValues("empty_store").Inc()
		return false, nil
	}

	remoteHash := HashSlides(remote.Slides)

	e.mu.Lock()
	settingsChanged := HashPayload(remote.DisplaySettings) != HashPayload(e.snap.DisplaySettings)
	if remoteHash == e.hash && !settingsChanged {
		e.mu.Unlock()
		syncSkipped.WithLabelValues("unchanged").Inc()
		return false, nil
	}
	e.snap = remote
	e.hash = remoteHash
	e.lastGood = remote.Clone()
	e.mu.Unlock()

	syncApplied.Inc()
	e.notifyChange()
	return true, nil
}

// ForceReload discards the in-memory document and re-runs the full initial
// load. Used for structural changes (slide added/removed) where incremental
// merging against running rotation timers is not worth the risk.
func (e *Engine) ForceReload(ctx context.Context) error {
	e.setState(StateReloading)
	forceReloads.Inc()
	err := e.LoadInitial(ctx)
	e.notifyChange()
	return err
}

// Snapshot returns an independent copy of the working document.
func (e *Engine) Snapshot() *models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.Clone()
}

// Hash returns the digest of the working slides.
func (e *Engine) Hash() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hash
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) notifyChange() {
	if e.onChange != nil {
		e.onChange(e.Snapshot())
	}
}

// ---------------------------------------------------------
// Editor-context mutation surface
// ---------------------------------------------------------

// Apply runs an arbitrary mutation on the working document under the lock,
// stamps LastUpdated, refreshes the working hash and returns a copy suitable
// for handing to the debounced writer.
func (e *Engine) Apply(mutate func(snap *models.Snapshot)) *models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(e.snap)
	e.snap.LastUpdated = time.Now().UTC()
	e.hash = HashSlides(e.snap.Slides)
	return e.snap.Clone()
}

// UpsertSlide inserts a new slide at the end of the sequence or replaces an
// existing one by id. Returns the updated document copy and whether the
// slide was newly created (a structural change, which callers signal with a
// force-reload broadcast).
func (e *Engine) UpsertSlide(slide models.Slide) (*models.Snapshot, bool) {
	created := false
	snap := e.Apply(func(s *models.Snapshot) {
		if existing, ok := s.SlideByID(slide.ID); ok {
			*existing = slide
			return
		}
		created = true
		s.Slides = append(s.Slides, slide)
	})
	return snap, created
}

// DeleteSlide removes a slide by id. Removing a singleton-category slide is
// allowed; reconciliation re-seeds it on the next load, not mid-session.
func (e *Engine) DeleteSlide(id string) (*models.Snapshot, bool) {
	removed := false
	snap := e.Apply(func(s *models.Snapshot) {
		removed = s.RemoveSlide(id)
	})
	if !removed {
		return nil, false
	}
	return snap, true
}

// Reorder rearranges the slide sequence to match ids, which must be a
// permutation of the current ids.
func (e *Engine) Reorder(ids []string) (*models.Snapshot, error) {
	var reordered []models.Slide
	var failure error
	snap := e.Apply(func(s *models.Snapshot) {
		if len(ids) != len(s.Slides) {
			failure = fmt.Errorf("order lists %d ids, document has %d slides", len(ids), len(s.Slides))
			return
		}
		byID := make(map[string]models.Slide, len(s.Slides))
		for _, sl := range s.Slides {
			byID[sl.ID] = sl
		}
		reordered = make([]models.Slide, 0, len(ids))
		for _, id := range ids {
			sl, ok := byID[id]
			if !ok {
				failure = fmt.Errorf("unknown slide id %q in order", id)
				return
			}
			delete(byID, id)
			reordered = append(reordered, sl)
		}
		s.Slides = reordered
	})
	if failure != nil {
		return nil, failure
	}
	return snap, nil
}

// UpdateSettings merges display settings keys into the document.
func (e *Engine) UpdateSettings(settings map[string]any) *models.Snapshot {
	return e.Apply(func(s *models.Snapshot) {
		if s.DisplaySettings == nil {
			s.DisplaySettings = map[string]any{}
		}
		for k, v := range settings {
			s.DisplaySettings[k] = v
		}
	})
}

// MarkPersisted records a successfully written state as the revert target.
// Wired to Writer.OnSaved.
func (e *Engine) MarkPersisted(snap *models.Snapshot) {
	e.mu.Lock()
	e.lastGood = snap.Clone()
	e.mu.Unlock()
}

// RevertToPersisted rolls the working document back to the last known-good
// persisted state after a failed save, so local state cannot silently
// diverge from the store. Returns the restored copy, or nil when nothing
// good is known.
func (e *Engine) RevertToPersisted() *models.Snapshot {
	e.mu.Lock()
	if e.lastGood == nil {
		e.mu.Unlock()
		return nil
	}
	e.snap = e.lastGood.Clone()
	e.hash = HashSlides(e.snap.Slides)
	e.mu.Unlock()

	e.notifyChange()
	return e.Snapshot()
}

// ---------------------------------------------------------
// Periodic resync loop
// ---------------------------------------------------------

// StartPeriodicSync polls the store on the given interval until Stop. The
// durable fallback path: convergence does not depend on broadcasts arriving.
func (e *Engine) StartPeriodicSync(interval time.Duration) {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
				if _, err := e.SyncFromStore(ctx); err != nil {
					log.Printf("⚠️ Periodic sync failed: %v", err)
				}
				cancel()
			}
		}
	}(e.stop)
}

// Stop halts the periodic resync loop.
func (e *Engine) Stop() {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	if !e.running {
		return
	}
	close(e.stop)
	e.running = false
}
