package broadcast

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryChannelFanOut(t *testing.T) {
	ch := NewMemoryChannel()
	a := ch.Join()
	b := ch.Join()
	c := ch.Join()

	var bGot, cGot atomic.Int32
	b.Subscribe(EventSlides, func(Envelope) { bGot.Add(1) })
	c.Subscribe(EventSlides, func(Envelope) { cGot.Add(1) })
	// Wrong type must not fire.
	b.Subscribe(EventSettings, func(Envelope) { t.Error("settings handler fired for slides event") })

	if err := a.Publish(NewEnvelope(EventSlides, map[string]any{"hash": "abc"}, SourceEditor)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if bGot.Load() != 1 || cGot.Load() != 1 {
		t.Errorf("delivery counts b=%d c=%d, want 1 each", bGot.Load(), cGot.Load())
	}
}

func TestMemoryChannelNoReplayForLateJoiner(t *testing.T) {
	ch := NewMemoryChannel()
	a := ch.Join()
	if err := a.Publish(NewEnvelope(EventSlides, nil, SourceEditor)); err != nil {
		t.Fatal(err)
	}

	// A context opened after the publish must never see it.
	late := ch.Join()
	var got atomic.Int32
	late.Subscribe(EventSlides, func(Envelope) { got.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if got.Load() != 0 {
		t.Errorf("late joiner replayed %d old envelopes", got.Load())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ch := NewMemoryChannel()
	a := ch.Join()
	b := ch.Join()

	var got atomic.Int32
	unsub := b.Subscribe(EventSlides, func(Envelope) { got.Add(1) })

	a.Publish(NewEnvelope(EventSlides, nil, SourceEditor))
	unsub()
	a.Publish(NewEnvelope(EventSlides, nil, SourceEditor))

	if got.Load() != 1 {
		t.Errorf("got %d deliveries, want 1", got.Load())
	}
}

func TestFileChannelDeliversAcrossContexts(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewFileChannel(dir, "display", 10*time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()
	reader, err := NewFileChannel(dir, "display", 10*time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	received := make(chan Envelope, 1)
	reader.Subscribe(EventForceReload, func(env Envelope) { received <- env })

	if err := writer.Publish(NewEnvelope(EventForceReload, map[string]any{"reason": "manual"}, SourceSystem)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case env := <-received:
		if env.Source != SourceSystem {
			t.Errorf("source = %s", env.Source)
		}
		if env.Data["reason"] != "manual" {
			t.Errorf("payload = %v", env.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("envelope never crossed the file channel")
	}
}

func TestFileChannelClearsSlotAfterDelivery(t *testing.T) {
	dir := t.TempDir()
	slot := filepath.Join(dir, "display.json")

	ch, err := NewFileChannel(dir, "display", 10*time.Millisecond, 30*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	if err := ch.Publish(NewEnvelope(EventSlides, nil, SourceEditor)); err != nil {
		t.Fatal(err)
	}

	// The slot holds the envelope briefly, then is wiped.
	if _, err := os.Stat(slot); err != nil {
		t.Fatalf("slot not written: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(slot); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("slot never cleared after delivery window")
}

func TestFileChannelIgnoresStaleSlotAtStartup(t *testing.T) {
	dir := t.TempDir()
	slot := filepath.Join(dir, "display.json")

	// A leftover envelope from a crashed context sits in the slot.
	stale := NewEnvelope(EventSlides, map[string]any{"hash": "old"}, SourceEditor)
	data := []byte(`{"type":"slides","data":{"hash":"old"},"timestamp":"` + stale.Timestamp + `","source":"editor"}`)
	if err := os.WriteFile(slot, data, 0644); err != nil {
		t.Fatal(err)
	}

	ch, err := NewFileChannel(dir, "display", 10*time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	var got atomic.Int32
	ch.Subscribe(EventSlides, func(Envelope) { got.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got.Load() != 0 {
		t.Errorf("stale startup envelope replayed %d times", got.Load())
	}
}
