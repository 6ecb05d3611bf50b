package broadcast

import "sync"

// MemoryChannel links multiple in-process contexts (tests, or an editor and
// display hosted in one process). Nothing is retained after a publish, so a
// context joining later never replays old envelopes.
type MemoryChannel struct {
	mu      sync.Mutex
	members map[int]*memoryBroadcaster
	next    int
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{members: map[int]*memoryBroadcaster{}}
}

// Join attaches a new context to the channel.
func (c *MemoryChannel) Join() Broadcaster {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := &memoryBroadcaster{channel: c, id: c.next, bus: newBus()}
	c.members[c.next] = m
	c.next++
	return m
}

func (c *MemoryChannel) fanOut(from int, env Envelope) {
	c.mu.Lock()
	others := make([]*memoryBroadcaster, 0, len(c.members))
	for id, m := range c.members {
		if id != from {
			others = append(others, m)
		}
	}
	c.mu.Unlock()

	for _, m := range others {
		m.bus.dispatch(env)
	}
}

func (c *MemoryChannel) leave(id int) {
	c.mu.Lock()
	delete(c.members, id)
	c.mu.Unlock()
}

type memoryBroadcaster struct {
	channel *MemoryChannel
	id      int
	bus     *bus
}

func (m *memoryBroadcaster) Publish(env Envelope) error {
	m.bus.dispatch(env)
	m.channel.fanOut(m.id, env)
	return nil
}

func (m *memoryBroadcaster) Subscribe(t EventType, h Handler) func() {
	return m.bus.subscribe(t, h)
}

func (m *memoryBroadcaster) Close() error {
	m.channel.leave(m.id)
	return nil
}
