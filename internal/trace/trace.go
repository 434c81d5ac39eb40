// Package trace reads and writes pointer traces: JSON-lines files of
// timestamped pointer events used for deterministic replay through the
// engine and for offline reporting.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// Event is one recorded pointer event. Press marks an explicit
// click/touch rather than a move.
type Event struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"t"`
	Press       bool    `json:"press,omitempty"`
}

// Read parses a JSONL trace from r. Malformed lines are logged and
// skipped so one bad event cannot invalidate a whole recording.
func Read(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	skipped := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trace: %w", err)
	}
	if skipped > 0 {
		log.Printf("trace: skipped %d malformed line(s) of %d", skipped, lineNo)
	}
	return events, nil
}

// ReadFile reads a JSONL trace from disk.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write emits events as JSONL to w.
func Write(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode trace event %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes a JSONL trace to disk.
func WriteFile(path string, events []Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := Write(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Ingestor is the engine surface replay needs. Satisfied by
// *engine.Engine.
type Ingestor interface {
	IngestPointer(x, y float64, timestampMs int64)
	IngestPress(x, y float64, timestampMs int64)
	AdvanceTo(nowMs int64)
}

// Cadence invokes Fn at a fixed event-time period during replay,
// standing in for a wall-clock ticker. Fn receives the tick's event
// time.
type Cadence struct {
	EveryMs int64
	Fn      func(nowMs int64)
}

// Replay feeds a trace through an engine in event-time order. Dwell
// timers are advanced from event timestamps and cadences fire on the
// event timeline, so a replayed session is fully deterministic
// regardless of wall-clock speed. Returns the timestamp of the last
// event, or 0 for an empty trace.
func Replay(eng Ingestor, events []Event, cadences ...Cadence) int64 {
	if len(events) == 0 {
		return 0
	}
	next := make([]int64, len(cadences))
	for i, c := range cadences {
		next[i] = events[0].TimestampMs + c.EveryMs
	}
	var lastMs int64
	for _, ev := range events {
		if ev.Press {
			eng.IngestPress(ev.X, ev.Y, ev.TimestampMs)
		} else {
			eng.IngestPointer(ev.X, ev.Y, ev.TimestampMs)
		}
		eng.AdvanceTo(ev.TimestampMs)
		for i, c := range cadences {
			for ev.TimestampMs >= next[i] {
				c.Fn(next[i])
				next[i] += c.EveryMs
			}
		}
		lastMs = ev.TimestampMs
	}
	return lastMs
}
