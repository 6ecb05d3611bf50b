package feeds

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func staticFeed(key string, value any) Feed {
	return Feed{
		Key:     key,
		Enabled: true,
		Fetch:   func(ctx context.Context) (any, error) { return value, nil },
	}
}

func TestPollerNotifiesOnlyOnChange(t *testing.T) {
	var payload atomic.Value
	payload.Store("v1")
	feed := Feed{
		Key:     "source",
		Enabled: true,
		Fetch:   func(ctx context.Context) (any, error) { return payload.Load(), nil },
	}

	p := NewPoller(time.Hour, feed)
	var notified atomic.Int32
	p.OnData(func(map[string]any) { notified.Add(1) })

	// 1. First cycle always counts as a change.
	if !p.ForceCheck(context.Background()) {
		t.Fatal("first check reported no change")
	}
	// 2. Identical content: no notification.
	if p.ForceCheck(context.Background()) {
		t.Error("unchanged content reported as change")
	}
	// 3. New content: notified again.
	payload.Store("v2")
	if !p.ForceCheck(context.Background()) {
		t.Error("changed content not detected")
	}

	if notified.Load() != 2 {
		t.Errorf("data listener fired %d times, want 2", notified.Load())
	}
	if p.Cached()["source"] != "v2" {
		t.Errorf("cache = %v", p.Cached()["source"])
	}
}

func TestPollerKeepsCacheOnPartialFailure(t *testing.T) {
	healthy := staticFeed("good", "stable")
	var fail atomic.Bool
	flaky := Feed{
		Key:     "flaky",
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			if fail.Load() {
				return nil, errors.New("upstream 500")
			}
			return "fresh", nil
		},
	}

	p := NewPoller(time.Hour, healthy, flaky)
	p.ForceCheck(context.Background())
	if p.Cached()["flaky"] != "fresh" {
		t.Fatalf("initial cache = %v", p.Cached())
	}

	// The flaky feed starts failing; its last good value survives and the
	// cycle still completes for the healthy feed.
	fail.Store(true)
	p.ForceCheck(context.Background())

	cache := p.Cached()
	if cache["flaky"] != "fresh" {
		t.Errorf("failed feed lost its cached value: %v", cache["flaky"])
	}
	if cache["good"] != "stable" {
		t.Errorf("healthy feed disturbed: %v", cache["good"])
	}
	if st := p.LastStatus(); st.Error == "" {
		t.Error("cycle error not surfaced in status")
	}
}

func TestPollerSkipsDisabledFeeds(t *testing.T) {
	var calls atomic.Int32
	disabled := Feed{
		Key:     "off",
		Enabled: false,
		Fetch: func(ctx context.Context) (any, error) {
			calls.Add(1)
			return "x", nil
		},
	}

	p := NewPoller(time.Hour, disabled, staticFeed("on", 1))
	p.ForceCheck(context.Background())

	if calls.Load() != 0 {
		t.Errorf("disabled feed fetched %d times", calls.Load())
	}
	if _, ok := p.Cached()["off"]; ok {
		t.Error("disabled feed left a cache entry")
	}
}

func TestPollerReentrantCheckIsNoop(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	slow := Feed{
		Key:     "slow",
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			close(started)
			<-block
			return "done", nil
		},
	}

	p := NewPoller(time.Hour, slow)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.ForceCheck(context.Background())
	}()

	<-started
	// A second check while the first is in flight returns immediately.
	if p.ForceCheck(context.Background()) {
		t.Error("overlapping check reported a change")
	}

	close(block)
	wg.Wait()
	if p.Cached()["slow"] != "done" {
		t.Errorf("first check lost its result: %v", p.Cached())
	}
}

func TestPollerStatusNotifiedEvenWithoutChanges(t *testing.T) {
	p := NewPoller(time.Hour, staticFeed("k", "v"))

	var statuses []Status
	var mu sync.Mutex
	p.OnStatus(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	p.ForceCheck(context.Background())
	p.ForceCheck(context.Background()) // unchanged cycle

	mu.Lock()
	defer mu.Unlock()
	// Each cycle emits a polling notice and a completion notice.
	if len(statuses) != 4 {
		t.Fatalf("got %d status notifications, want 4", len(statuses))
	}
	final := statuses[len(statuses)-1]
	if final.Polling {
		t.Error("final status still polling")
	}
	if final.HadChanges {
		t.Error("unchanged cycle reported changes")
	}
}
