package events

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRecordingCapturesProcessedEvents(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(16); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		d.Push(Event{Type: EventCustomBase, Data: map[string]any{"seq": i}})
	}
	d.Process()
	d.StopRecording()

	if got := d.RecordedCount(); got != 5 {
		t.Errorf("recorded %d events, want 5", got)
	}
}

func TestRecordingRingEvictsOldest(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(3); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		d.Push(Event{Type: EventCustomBase, Data: map[string]any{"seq": float64(i)}})
		d.Process()
	}
	d.StopRecording()

	if got := d.RecordedCount(); got != 3 {
		t.Fatalf("recorded %d events, want capacity 3", got)
	}

	var buf bytes.Buffer
	if err := d.SaveRecording(&buf); err != nil {
		t.Fatal(err)
	}
	if err := d.LoadRecording(&buf); err != nil {
		t.Fatal(err)
	}

	// Oldest two were evicted; seq 2..4 survive
	s := &d.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq := s.loaded[0].Data["seq"].(float64); seq != 2 {
		t.Errorf("oldest surviving seq = %v, want 2", seq)
	}
}

func TestStartRecordingRejectsBadCapacity(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(0); err == nil {
		t.Error("capacity 0 should be rejected")
	}
}

func TestSaveLoadWireFormat(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(8); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	d.Push(Event{Type: EventInput, Timestamp: base, Data: map[string]any{"key": "a"}})
	d.Push(Event{Type: EventInput, Timestamp: base.Add(50 * time.Millisecond), Data: map[string]any{"key": "b"}})
	d.Process()
	d.StopRecording()

	var buf bytes.Buffer
	if err := d.SaveRecording(&buf); err != nil {
		t.Fatal(err)
	}

	doc := buf.String()
	for _, want := range []string{`"events"`, `"timestamp"`, `"type"`, `"data"`, `"total_time"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("wire document missing %s: %s", want, doc)
		}
	}

	if err := d.LoadRecording(strings.NewReader(doc)); err != nil {
		t.Fatalf("round-trip load failed: %v", err)
	}
}

func TestLoadCorruptedKeepsPreviousState(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(8); err != nil {
		t.Fatal(err)
	}
	d.Push(Event{Type: EventInput})
	d.Process()
	d.StopRecording()

	var buf bytes.Buffer
	if err := d.SaveRecording(&buf); err != nil {
		t.Fatal(err)
	}
	if err := d.LoadRecording(&buf); err != nil {
		t.Fatal(err)
	}

	if err := d.LoadRecording(strings.NewReader(`{"events": [{`)); err == nil {
		t.Fatal("corrupted document should fail to load")
	}

	// Previous load still intact and playable
	if err := d.StartPlayback(); err != nil {
		t.Errorf("previous recording lost after failed load: %v", err)
	}
	d.StopPlayback()
}

func TestPlaybackReproducesEventsInOrder(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartRecording(16); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	const n = 4
	for i := 0; i < n; i++ {
		d.Push(Event{
			Type:      EventCustomBase + EventType(i),
			Timestamp: base.Add(time.Duration(i) * 10 * time.Millisecond),
		})
	}
	d.Process()
	d.StopRecording()

	var buf bytes.Buffer
	if err := d.SaveRecording(&buf); err != nil {
		t.Fatal(err)
	}
	if err := d.LoadRecording(&buf); err != nil {
		t.Fatal(err)
	}
	if err := d.StartPlayback(); err != nil {
		t.Fatal(err)
	}

	// Live events must be ignored while playback is active
	d.Push(Event{Type: EventRefresh})

	var replayed []Event
	deadline := time.Now().Add(2 * time.Second)
	for d.Playing() && time.Now().Before(deadline) {
		replayed = append(replayed, d.Process()...)
		time.Sleep(2 * time.Millisecond)
	}

	if len(replayed) != n {
		t.Fatalf("replayed %d events, want %d", len(replayed), n)
	}
	for i, ev := range replayed {
		if ev.Type != EventCustomBase+EventType(i) {
			t.Errorf("replay order broken at %d: type %d", i, ev.Type)
		}
	}

	// Relative spacing of the last event should be near the original 30ms
	gap := replayed[n-1].Timestamp.Sub(replayed[0].Timestamp)
	want := 30 * time.Millisecond
	if gap < want-5*time.Millisecond || gap > want+50*time.Millisecond {
		t.Errorf("relative timing %v outside tolerance of %v", gap, want)
	}

	if d.Playing() {
		t.Error("playback should auto-stop when exhausted")
	}
}

func TestPlaybackRequiresLoadedRecording(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.StartPlayback(); err == nil {
		t.Error("playback without a loaded recording should fail")
	}
}
