package broadcast

import "sync"

// bus is the in-process listener registry shared by every Broadcaster
// implementation. Dispatch is synchronous and ordered per publish.
type bus struct {
	mu   sync.Mutex
	subs map[EventType]map[int]Handler
	next int
}

func newBus() *bus {
	return &bus{subs: map[EventType]map[int]Handler{}}
}

func (b *bus) subscribe(t EventType, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[t] == nil {
		b.subs[t] = map[int]Handler{}
	}
	id := b.next
	b.next++
	b.subs[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[t], id)
	}
}

func (b *bus) dispatch(env Envelope) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[env.Type]))
	for _, h := range b.subs[env.Type] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(env)
	}
}
