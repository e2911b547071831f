package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// recordedEvent is one captured event in a recording session
type recordedEvent struct {
	Timestamp time.Time
	Type      EventType
	Data      map[string]any
}

// recordSession holds recording and playback state for a Dispatcher.
// Recording captures live events into a bounded ring (oldest evicted);
// playback re-delivers a loaded list on its original relative timing
type recordSession struct {
	mu sync.Mutex

	recording bool
	buf       []recordedEvent // ring storage, len == capacity
	start     int             // index of oldest record
	count     int

	playing   atomic.Bool
	loaded    []recordedEvent
	playIdx   int
	playStart time.Time
}

// recordingFile is the on-disk wire format:
// one JSON document per recording, timestamps in Unix seconds
type recordingFile struct {
	Events    []recordedEventJSON `json:"events"`
	TotalTime float64             `json:"total_time"`
}

type recordedEventJSON struct {
	Timestamp float64        `json:"timestamp"`
	Type      int            `json:"type"`
	Data      map[string]any `json:"data"`
}

// StartRecording begins capturing processed live events into a ring of
// the given capacity. A capacity below 1 is rejected. Any prior capture
// is discarded
func (d *Dispatcher) StartRecording(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("recording capacity must be >= 1, got %d", capacity)
	}

	s := &d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = true
	s.buf = make([]recordedEvent, capacity)
	s.start = 0
	s.count = 0
	return nil
}

// StopRecording halts capture. The captured events remain available for
// SaveRecording until the next StartRecording
func (d *Dispatcher) StopRecording() {
	s := &d.session
	s.mu.Lock()
	s.recording = false
	s.mu.Unlock()
}

// RecordedCount returns the number of events currently captured
func (d *Dispatcher) RecordedCount() int {
	s := &d.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// maybeRecord appends a processed live event to the capture ring.
// Playback-delivered events are never re-recorded
func (d *Dispatcher) maybeRecord(ev Event) {
	s := &d.session
	if s.playing.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}

	rec := recordedEvent{
		Timestamp: ev.Timestamp,
		Type:      ev.Type,
		Data:      ev.Data,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	idx := (s.start + s.count) % len(s.buf)
	s.buf[idx] = rec
	if s.count < len(s.buf) {
		s.count++
	} else {
		s.start = (s.start + 1) % len(s.buf) // evict oldest
	}
}

// records returns the captured events oldest-first; caller holds s.mu
func (s *recordSession) records() []recordedEvent {
	out := make([]recordedEvent, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.buf[(s.start+i)%len(s.buf)])
	}
	return out
}

// SaveRecording serializes the captured events as one JSON document
func (d *Dispatcher) SaveRecording(w io.Writer) error {
	s := &d.session
	s.mu.Lock()
	recs := s.records()
	s.mu.Unlock()

	file := recordingFile{Events: make([]recordedEventJSON, 0, len(recs))}
	for _, r := range recs {
		file.Events = append(file.Events, recordedEventJSON{
			Timestamp: float64(r.Timestamp.UnixNano()) / float64(time.Second),
			Type:      int(r.Type),
			Data:      r.Data,
		})
	}
	if n := len(file.Events); n > 0 {
		file.TotalTime = file.Events[n-1].Timestamp - file.Events[0].Timestamp
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

// LoadRecording deserializes a recording for playback. A corrupted
// document fails without touching previously loaded state
func (d *Dispatcher) LoadRecording(r io.Reader) error {
	var file recordingFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("load recording: %w", err)
	}

	loaded := make([]recordedEvent, 0, len(file.Events))
	for i, e := range file.Events {
		if i > 0 && e.Timestamp < file.Events[i-1].Timestamp {
			return fmt.Errorf("load recording: event %d timestamp out of order", i)
		}
		loaded = append(loaded, recordedEvent{
			Timestamp: time.Unix(0, int64(e.Timestamp*float64(time.Second))),
			Type:      EventType(e.Type),
			Data:      e.Data,
		})
	}

	s := &d.session
	s.mu.Lock()
	s.loaded = loaded
	s.playIdx = 0
	s.mu.Unlock()
	return nil
}

// StartPlayback switches Process to replay mode. Recorded events are
// released when their offset from the first record has elapsed since
// playback start, preserving original relative timing
func (d *Dispatcher) StartPlayback() error {
	s := &d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.loaded) == 0 {
		return fmt.Errorf("start playback: no recording loaded")
	}
	s.playIdx = 0
	s.playStart = time.Now()
	s.playing.Store(true)
	return nil
}

// StopPlayback returns Process to the live queue
func (d *Dispatcher) StopPlayback() {
	d.session.playing.Store(false)
}

// Playing reports whether playback is active
func (d *Dispatcher) Playing() bool {
	return d.session.playing.Load()
}

// duePlaybackEvents releases loaded events whose relative time has come.
// Playback ends automatically once the list is exhausted
func (d *Dispatcher) duePlaybackEvents() []Event {
	s := &d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playIdx >= len(s.loaded) {
		s.playing.Store(false)
		return nil
	}

	base := s.loaded[0].Timestamp
	elapsed := time.Since(s.playStart)

	var due []Event
	for s.playIdx < len(s.loaded) {
		rec := s.loaded[s.playIdx]
		if rec.Timestamp.Sub(base) > elapsed {
			break
		}
		due = append(due, Event{
			Type:      rec.Type,
			Data:      rec.Data,
			Timestamp: s.playStart.Add(rec.Timestamp.Sub(base)),
		})
		s.playIdx++
	}

	if s.playIdx >= len(s.loaded) {
		s.playing.Store(false)
	}
	return due
}
