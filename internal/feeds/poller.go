package feeds

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"led-display/internal/engine"
)

const fetchTimeout = 15 * time.Second

// Feed is one external data source. Fetch returns the raw payload;
// Transform (optional) normalizes it before caching. Disabled feeds are
// skipped entirely and their cached value left untouched.
type Feed struct {
	Key       string
	Enabled   bool
	Fetch     func(ctx context.Context) (any, error)
	Transform func(raw any) any
}

// Status is pushed to every status listener after each poll cycle,
// regardless of whether content changed, so observers can render sync state.
type Status struct {
	Polling    bool      `json:"polling"`
	LastCheck  time.Time `json:"lastCheck"`
	HadChanges bool      `json:"hadChanges"`
	Error      string    `json:"error,omitempty"`
}

type DataListener func(data map[string]any)
type StatusListener func(s Status)

// Poller fetches all enabled feeds on a fixed period, independent of slide
// edits. A per-feed failure keeps that feed's previous cached value and the
// cycle continues. Content listeners only fire when the combined payload
// hash moves; an overlapping tick is a no-op, not queued.
type Poller struct {
	feeds    []Feed
	interval time.Duration

	mu         sync.Mutex
	cache      map[string]any
	lastHash   string
	lastStatus Status

	dataSubs   map[int]DataListener
	statusSubs map[int]StatusListener
	nextSub    int

	inFlight atomic.Bool

	loopMu  sync.Mutex
	stop    chan struct{}
	running bool
}

func NewPoller(interval time.Duration, feeds ...Feed) *Poller {
	return &Poller{
		feeds:      feeds,
		interval:   interval,
		cache:      map[string]any{},
		dataSubs:   map[int]DataListener{},
		statusSubs: map[int]StatusListener{},
	}
}

// OnData subscribes to combined-payload changes. Returns an unsubscribe.
func (p *Poller) OnData(l DataListener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.dataSubs[id] = l
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.dataSubs, id)
	}
}

// OnStatus subscribes to poll-cycle status. Returns an unsubscribe.
func (p *Poller) OnStatus(l StatusListener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.statusSubs[id] = l
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.statusSubs, id)
	}
}

// Start launches the periodic loop. The first check runs immediately.
func (p *Poller) Start() {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})

	go func(stop chan struct{}) {
		p.runCheck()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.runCheck()
			}
		}
	}(p.stop)
}

// Stop halts the periodic loop.
func (p *Poller) Stop() {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()
	if !p.running {
		return
	}
	close(p.stop)
	p.running = false
}

// ForceCheck runs one poll cycle now (unless one is already in flight) and
// reports whether the combined payload changed.
func (p *Poller) ForceCheck(ctx context.Context) bool {
	return p.check(ctx)
}

// Cached returns a shallow copy of the per-feed cache.
func (p *Poller) Cached() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.cache))
	for k, v := range p.cache {
		out[k] = v
	}
	return out
}

// LastStatus returns the outcome of the most recent completed cycle.
func (p *Poller) LastStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStatus
}

func (p *Poller) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	p.check(ctx)
}

func (p *Poller) check(ctx context.Context) bool {
	// Re-entrant tick while one is in flight is a no-op.
	if !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer p.inFlight.Store(false)

	p.notifyStatus(Status{Polling: true, LastCheck: time.Now().UTC()})

	type result struct {
		key   string
		value any
		err   error
	}

	results := make(chan result, len(p.feeds))
	var wg sync.WaitGroup
	for _, f := range p.feeds {
		if !f.Enabled {
			continue
		}
		wg.Add(1)
		go func(f Feed) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			raw, err := f.Fetch(fctx)
			if err != nil {
				results <- result{key: f.Key, err: err}
				return
			}
			if f.Transform != nil {
				raw = f.Transform(raw)
			}
			results <- result{key: f.Key, value: raw}
		}(f)
	}
	wg.Wait()
	close(results)

	combined := p.Cached()
	var errs []string
	for r := range results {
		if r.err != nil {
			// Keep the previously cached value for this feed.
			log.Printf("⚠️ Feed %s failed, keeping cached value: %v", r.key, r.err)
			errs = append(errs, r.key+": "+r.err.Error())
			continue
		}
		combined[r.key] = r.value
	}

	hash := engine.HashPayload(combined)

	p.mu.Lock()
	changed := hash != p.lastHash
	if changed {
		p.cache = combined
		p.lastHash = hash
	}
	p.mu.Unlock()

	pollCycles.Inc()
	if changed {
		pollChanges.Inc()
		p.notifyData(combined)
	}

	status := Status{
		Polling:    false,
		LastCheck:  time.Now().UTC(),
		HadChanges: changed,
		Error:      strings.Join(errs, "; "),
	}
	p.mu.Lock()
	p.lastStatus = status
	p.mu.Unlock()
	p.notifyStatus(status)

	return changed
}

func (p *Poller) notifyData(data map[string]any) {
	p.mu.Lock()
	subs := make([]DataListener, 0, len(p.dataSubs))
	for _, l := range p.dataSubs {
		subs = append(subs, l)
	}
	p.mu.Unlock()

	for _, l := range subs {
		l(data)
	}
}

func (p *Poller) notifyStatus(s Status) {
	p.mu.Lock()
	subs := make([]StatusListener, 0, len(p.statusSubs))
	for _, l := range p.statusSubs {
		subs = append(subs, l)
	}
	p.mu.Unlock()

	for _, l := range subs {
		l(s)
	}
}
