package bgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MoveEvent is one vertex move, written as a JSON line.
type MoveEvent struct {
	Move      int    `json:"move"`
	Method    string `json:"method"`
	Level     int    `json:"level"`
	Vertex    int    `json:"vertex"`
	From      uint8  `json:"from_part"`
	To        uint8  `json:"to_part"`
	Gain      int    `json:"gain"`
	Commload  int    `json:"commload"`
	Dlt       int    `json:"dlt"`
	Timestamp int64  `json:"timestamp"`
}

// MoveTracker logs moves of the refiners for later analysis. A nil tracker
// discards everything. It may be shared by concurrent bipartitions.
type MoveTracker struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *json.Encoder
	moves   int
	err     error // first write failure
}

// NewMoveTracker creates a tracker writing to a new file.
func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move log %s: %w", filename, err)
	}
	mt := NewMoveTrackerWriter(file)
	mt.closer = file
	return mt, nil
}

// NewMoveTrackerWriter creates a tracker writing to w.
func NewMoveTrackerWriter(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

// LogMove numbers and writes an event.
func (mt *MoveTracker) LogMove(ev MoveEvent) {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.moves++
	ev.Move = mt.moves
	ev.Timestamp = time.Now().UnixNano()
	if err := mt.encoder.Encode(ev); err != nil && mt.err == nil {
		mt.err = fmt.Errorf("failed to write move %d: %w", ev.Move, err)
	}
}

// Moves returns the number of events logged so far.
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.moves
}

// Close closes the underlying file, if the tracker owns one, and returns
// the first error met while writing events.
func (mt *MoveTracker) Close() error {
	if mt == nil {
		return nil
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.closer != nil {
		if err := mt.closer.Close(); err != nil && mt.err == nil {
			mt.err = err
		}
		mt.closer = nil
	}
	return mt.err
}
