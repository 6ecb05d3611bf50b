package broadcast

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileChannel coordinates contexts running as separate processes on the same
// machine through a single shared slot file. The value's presence, not its
// persistence, is the signal: a writer clears the slot shortly after writing
// so a context opened later never replays a stale envelope. Observers poll
// the slot on a short interval.
type FileChannel struct {
	path       string
	bus        *bus
	watchEvery time.Duration
	clearAfter time.Duration

	mu       sync.Mutex
	lastSeen []byte

	stop      chan struct{}
	closeOnce sync.Once
}

func NewFileChannel(dir, channel string, watchEvery, clearAfter time.Duration) (*FileChannel, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	c := &FileChannel{
		path:       filepath.Join(dir, channel+".json"),
		bus:        newBus(),
		watchEvery: watchEvery,
		clearAfter: clearAfter,
		stop:       make(chan struct{}),
	}

	// Whatever sits in the slot at startup predates this context. Remember
	// it so the watcher does not replay it.
	if data, err := os.ReadFile(c.path); err == nil {
		c.lastSeen = data
	}

	go c.watch()
	return c, nil
}

func (c *FileChannel) Publish(env Envelope) error {
	// Same-context listeners first; the slot write is for other processes.
	c.bus.dispatch(env)

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.lastSeen = data
	c.mu.Unlock()

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return err
	}

	// Clear the slot once every open context has had a chance to observe
	// it, unless someone else has already written a newer value.
	time.AfterFunc(c.clearAfter, func() {
		current, err := os.ReadFile(c.path)
		if err == nil && bytes.Equal(current, data) {
			_ = os.Remove(c.path)
		}
	})

	return nil
}

func (c *FileChannel) Subscribe(t EventType, h Handler) func() {
	return c.bus.subscribe(t, h)
}

func (c *FileChannel) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *FileChannel) watch() {
	ticker := time.NewTicker(c.watchEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			data, err := os.ReadFile(c.path)
			if err != nil {
				continue // empty slot
			}

			c.mu.Lock()
			seen := bytes.Equal(data, c.lastSeen)
			if !seen {
				c.lastSeen = data
			}
			c.mu.Unlock()
			if seen {
				continue
			}

			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Printf("⚠️ Ignoring malformed broadcast envelope: %v", err)
				continue
			}
			c.bus.dispatch(env)
		}
	}
}
