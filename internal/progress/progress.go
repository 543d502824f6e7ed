// Package progress defines the lifecycle events emitted by the
// duplicate-detection pipeline and the Sink interface that receives them.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Phase identifies a discrete stage of the pipeline for StageProgress
// events.
type Phase string

const (
	PhaseWalk   Phase = "walk"
	PhaseStage1 Phase = "stage1"
	PhaseStage2 Phase = "stage2"
	PhaseStage3 Phase = "stage3"
	PhaseRollup Phase = "rollup"
)

// Event is the sum type of lifecycle events a Sink may receive. Exactly one
// group of the embedded fields is meaningful per event; callers switch on
// Kind.
type Event struct {
	Kind EventKind

	// Started
	Root string

	// FileDiscovered
	Path string
	Size int64

	// StageProgress
	Phase Phase
	Done  int64
	Total int64

	// Finished
	Stats fmt.Stringer
}

// EventKind discriminates the Event union.
type EventKind int

const (
	Started EventKind = iota
	FileDiscovered
	StageProgress
	Finished
)

// Sink receives lifecycle events. Implementations must be safe for
// concurrent use: the walker emits events from many goroutines.
type Sink interface {
	OnEvent(Event)
}

// NoopSink discards every event. Used for JSON-output mode and any caller
// that doesn't want terminal output.
type NoopSink struct{}

// OnEvent implements Sink.
func (NoopSink) OnEvent(Event) {}

// CapturingSink records every event it receives, in arrival order. Intended
// for tests; OnEvent and Events are both safe for concurrent use, and
// Events returns a copy of what has been captured so far.
type CapturingSink struct {
	mu     sync.Mutex
	events []Event
}

// OnEvent implements Sink.
func (s *CapturingSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns every event captured so far.
func (s *CapturingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

const updateInterval = 50 * time.Millisecond

// TerminalSink renders a spinner/progress bar to stderr using
// schollz/progressbar. One bar is created lazily per phase on first use.
type TerminalSink struct {
	mu   sync.Mutex
	bars map[Phase]*progressbar.ProgressBar
}

// NewTerminalSink creates a Sink that renders progress to the terminal.
func NewTerminalSink() *TerminalSink {
	return &TerminalSink{bars: make(map[Phase]*progressbar.ProgressBar)}
}

// OnEvent implements Sink.
func (s *TerminalSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case Started:
		fmt.Fprintf(os.Stderr, "scanning %s\n", e.Root)
	case FileDiscovered:
		// High-frequency event; no per-file terminal output by design.
	case StageProgress:
		bar := s.barFor(e.Phase, e.Total)
		_ = bar.Set64(e.Done)
		if e.Total > 0 && e.Done >= e.Total {
			_ = bar.Finish()
		}
	case Finished:
		fmt.Fprintln(os.Stderr, "✔ "+e.Stats.String())
	}
}

func (s *TerminalSink) barFor(phase Phase, total int64) *progressbar.ProgressBar {
	if bar, ok := s.bars[phase]; ok {
		return bar
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(string(phase)),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
	)
	s.bars[phase] = bar
	return bar
}
