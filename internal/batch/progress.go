package batch

import (
	"sync"

	"github.com/handiism/audio-normalizer/internal/model"
	"go.uber.org/zap"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// EventKind identifies the point in a run an event was emitted at.
type EventKind int

const (
	// EventRunStarted carries the number of candidate files in Total.
	EventRunStarted EventKind = iota
	// EventFileStarted is emitted before a file is normalized.
	EventFileStarted
	// EventFileCompleted is emitted after a file was written.
	EventFileCompleted
	// EventFileFailed is emitted when a file could not be normalized.
	EventFileFailed
	// EventRunFinished carries the terminal Status.
	EventRunFinished
)

// ProgressEvent represents a batch progress update.
//
// Index is 1-based; for EventFileCompleted it equals the number of files
// finished so far.
type ProgressEvent struct {
	Kind    EventKind
	Level   ProgressLevel
	Message string

	Index int
	Total int
	File  string

	Status model.BatchStatus
	Result *model.NormalizationResult
	Err    error
}

// Reporter receives progress events. Report is called synchronously from
// the goroutine running the batch and must not block for long.
type Reporter interface {
	Report(event ProgressEvent)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(event ProgressEvent)

// Report calls f(event).
func (f ReporterFunc) Report(event ProgressEvent) {
	f(event)
}

// NoopReporter discards all events.
type NoopReporter struct{}

// Report implements Reporter.
func (NoopReporter) Report(ProgressEvent) {}

// LogReporter writes events to log. Failures log at warn, everything else
// at debug.
func LogReporter(log *zap.Logger) Reporter {
	return ReporterFunc(func(event ProgressEvent) {
		fields := []zap.Field{
			zap.Int("index", event.Index),
			zap.Int("total", event.Total),
		}
		if event.File != "" {
			fields = append(fields, zap.String("file", event.File))
		}
		if event.Err != nil {
			fields = append(fields, zap.Error(event.Err))
		}
		if event.Level == LevelError {
			log.Warn(event.Message, fields...)
			return
		}
		log.Debug(event.Message, fields...)
	})
}

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(event ProgressEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(event)
		}
	}
}

const trackerLogSize = 10

// Snapshot is a point-in-time copy of a Tracker.
type Snapshot struct {
	Started  bool
	Finished bool
	Done     int
	Total    int
	File     string
	Status   model.BatchStatus
	Message  string
	Recent   []ProgressEvent
}

// Tracker is a Reporter that keeps the latest state of a run so a UI can
// poll it.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Report implements Reporter.
func (t *Tracker) Report(event ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case EventRunStarted:
		t.snap.Started = true
		t.snap.Total = event.Total
	case EventFileStarted:
		t.snap.File = event.File
		t.snap.Total = event.Total
	case EventFileCompleted, EventFileFailed:
		t.snap.Done = event.Index
		t.snap.Total = event.Total
	case EventRunFinished:
		t.snap.Finished = true
		t.snap.Status = event.Status
		t.snap.File = ""
	}
	if event.Message != "" {
		t.snap.Message = event.Message
	}

	t.snap.Recent = append(t.snap.Recent, event)
	if len(t.snap.Recent) > trackerLogSize {
		t.snap.Recent = t.snap.Recent[len(t.snap.Recent)-trackerLogSize:]
	}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.snap
	s.Recent = append([]ProgressEvent(nil), t.snap.Recent...)
	return s
}

// GetProgress returns the number of finished files and the total.
func (t *Tracker) GetProgress() (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.Done, t.snap.Total
}
