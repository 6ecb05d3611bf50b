package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"led-display/internal/models"
	"led-display/internal/store"
)

const saveTimeout = 10 * time.Second

// Writer coalesces a burst of document mutations into one persisted write.
// Two tiers:
//
//   - critical: mutations touching active/duration/order persist after a
//     short fixed delay, long enough for a batch of synchronous UI updates
//     to settle, short enough not to lose the change to a teardown.
//   - background: content edits (text, captions, images) wait out a
//     multi-second quiet window; every new mutation resets the timer, and
//     the write is skipped entirely when the content hash has not moved
//     since the last persisted state.
//
// The writer never retries on its own; a failed save is reported through
// OnError and the state stays unpersisted. Retry is the caller's call.
type Writer struct {
	store         store.SnapshotStore
	criticalDelay time.Duration
	quietWindow   time.Duration

	mu               sync.Mutex
	timer            *time.Timer
	pending          *models.Snapshot
	pendingCritical  bool
	lastSlidesHash   string
	lastSettingsHash string
	closed           bool

	// saveMu serializes store writes so persistence order matches schedule
	// order within this context.
	saveMu sync.Mutex

	onSaved func(snap *models.Snapshot, hash string)
	onError func(err error)
}

func NewWriter(s store.SnapshotStore, criticalDelay, quietWindow time.Duration) *Writer {
	return &Writer{
		store:         s,
		criticalDelay: criticalDelay,
		quietWindow:   quietWindow,
	}
}

// OnSaved registers a hook invoked after every successful persisted write.
// The editor context uses it to broadcast the change to other contexts.
func (w *Writer) OnSaved(f func(snap *models.Snapshot, hash string)) { w.onSaved = f }

// OnError registers a hook invoked when a write fails. The editor context
// uses it to revert optimistic in-memory state to the last known-good
// snapshot; without that revert local state diverges from the store
// indefinitely.
func (w *Writer) OnError(f func(err error)) { w.onError = f }

// SetBaseline records the last state known to be persisted, so the first
// unchanged background flush is skipped.
func (w *Writer) SetBaseline(snap *models.Snapshot) {
	w.mu.Lock()
	w.lastSlidesHash = HashSlides(snap.Slides)
	w.lastSettingsHash = HashPayload(snap.DisplaySettings)
	w.mu.Unlock()
}

// LastSavedHash returns the slide digest of the last persisted state.
func (w *Writer) LastSavedHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSlidesHash
}

// ScheduleWrite queues the snapshot for persistence. critical selects the
// short fixed delay; once a pending batch contains a critical mutation it
// stays on the critical schedule even if background edits follow.
func (w *Writer) ScheduleWrite(snap *models.Snapshot, critical bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	w.pending = snap.Clone()
	if critical {
		w.pendingCritical = true
	}

	delay := w.quietWindow
	if w.pendingCritical {
		delay = w.criticalDelay
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(delay, func() {
		if err := w.flush(); err != nil && w.onError != nil {
			w.onError(err)
		}
	})
}

// Flush cancels any pending timer and writes the pending state synchronously.
// Called on context teardown; a no-op when nothing is pending.
func (w *Writer) Flush() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.flush()
}

// Close flushes best-effort and rejects further scheduling.
func (w *Writer) Close() error {
	err := w.Flush()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return err
}

func (w *Writer) flush() error {
	w.mu.Lock()
	snap := w.pending
	critical := w.pendingCritical
	w.pending = nil
	w.pendingCritical = false
	lastSlides := w.lastSlidesHash
	lastSettings := w.lastSettingsHash
	w.mu.Unlock()

	if snap == nil {
		return nil
	}

	slidesHash := HashSlides(snap.Slides)
	settingsHash := HashPayload(snap.DisplaySettings)
	if !critical && slidesHash == lastSlides && settingsHash == lastSettings {
		writesSkipped.Inc()
		return nil
	}

	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := w.store.Save(ctx, snap); err != nil {
		log.Printf("❌ Snapshot write failed: %v", err)
		writeFailures.Inc()
		return err
	}

	w.mu.Lock()
	w.lastSlidesHash = slidesHash
	w.lastSettingsHash = settingsHash
	w.mu.Unlock()

	snapshotWrites.Inc()
	if w.onSaved != nil {
		w.onSaved(snap, slidesHash)
	}
	return nil
}
