package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"github.com/handiism/audio-normalizer/internal/testsupport"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	events []ProgressEvent
}

func (r *recorder) Report(event ProgressEvent) {
	r.events = append(r.events, event)
}

func (r *recorder) kinds(kind EventKind) []ProgressEvent {
	var out []ProgressEvent
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newOrchestrator(fake *testsupport.FakeCodec, opts Options) *Orchestrator {
	return NewOrchestrator(normalize.NewEngine(fake, normalize.Options{}, nil), opts, nil)
}

func writeTracks(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		testsupport.WriteAudio(t, filepath.Join(dir, name), -30)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_ProcessesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeTracks(t, dir, "a.mp3", "b.mp3", "c.mp3")
	fake := &testsupport.FakeCodec{}
	rec := &recorder{}

	outcome, err := newOrchestrator(fake, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), NewCancelToken(), rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.Status != model.BatchCompleted {
		t.Errorf("Status = %v, want completed", outcome.Status)
	}
	if outcome.Message() != "Volume normalization success." {
		t.Errorf("Message() = %q", outcome.Message())
	}
	if outcome.Total != 3 || outcome.Processed != 3 || outcome.Succeeded() != 3 {
		t.Errorf("total/processed/succeeded = %d/%d/%d", outcome.Total, outcome.Processed, outcome.Succeeded())
	}

	completed := rec.kinds(EventFileCompleted)
	if len(completed) != 3 {
		t.Fatalf("got %d completed events, want 3", len(completed))
	}
	for i, want := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		e := completed[i]
		if e.Index != i+1 || e.Total != 3 || e.File != want {
			t.Errorf("event %d = %d/%d %s, want %d/3 %s", i, e.Index, e.Total, e.File, i+1, want)
		}
	}

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		loud, err := testsupport.ReadLoudness(filepath.Join(dir, "normalized", name))
		if err != nil {
			t.Errorf("output %s: %v", name, err)
			continue
		}
		if loud != -20 {
			t.Errorf("output %s loudness = %v, want -20", name, loud)
		}
	}

	last := rec.events[len(rec.events)-1]
	if last.Kind != EventRunFinished || last.Status != model.BatchCompleted {
		t.Errorf("last event = %+v, want run finished/completed", last)
	}
}

func TestRun_CancelStopsBeforeNextFile(t *testing.T) {
	for _, k := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("latch during file %d", k), func(t *testing.T) {
			dir := t.TempDir()
			names := []string{"01.mp3", "02.mp3", "03.mp3", "04.mp3"}
			writeTracks(t, dir, names...)
			token := NewCancelToken()

			// The latch is set while file k is being encoded; file k must
			// still finish and nothing after it may start.
			fake := &testsupport.FakeCodec{BeforeEncode: func(name string) {
				if name == names[k-1] {
					token.Cancel()
				}
			}}

			outcome, err := newOrchestrator(fake, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), token, nil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if outcome.Status != model.BatchCancelled {
				t.Errorf("Status = %v, want cancelled", outcome.Status)
			}
			if outcome.Message() != "Volume normalization cancelled." {
				t.Errorf("Message() = %q", outcome.Message())
			}
			if outcome.Processed != k {
				t.Errorf("Processed = %d, want %d", outcome.Processed, k)
			}

			got := listDir(t, filepath.Join(dir, "normalized"))
			if len(got) != k {
				t.Fatalf("outputs = %v, want the first %d", got, k)
			}
			for i := 0; i < k; i++ {
				if got[i] != names[i] {
					t.Errorf("output[%d] = %s, want %s", i, got[i], names[i])
				}
			}
			if decoded := fake.Decoded(); len(decoded) != k {
				t.Errorf("decoded %v, want %d files", decoded, k)
			}
		})
	}
}

func TestRun_LongFileName(t *testing.T) {
	dir := t.TempDir()
	name := strings.Repeat("a", 246) + ".mp3"
	writeTracks(t, dir, name)

	outcome, err := newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Status != model.BatchCompleted || outcome.Succeeded() != 1 {
		t.Fatalf("outcome = %v with %d succeeded, want completed with 1", outcome.Status, outcome.Succeeded())
	}
	if got := listDir(t, filepath.Join(dir, "normalized")); len(got) != 1 || got[0] != name {
		t.Errorf("outputs = %v, want only the %d-byte name", got, len(name))
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	writeTracks(t, dir, "a.mp3")
	token := NewCancelToken()
	token.Cancel()

	outcome, err := newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), token, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Status != model.BatchCancelled || outcome.Processed != 0 {
		t.Errorf("outcome = %v/%d, want cancelled with nothing processed", outcome.Status, outcome.Processed)
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}

	outcome, err := newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), nil, rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Status != model.BatchEmpty {
		t.Errorf("Status = %v, want empty", outcome.Status)
	}
	if outcome.Message() != "No audio files found in the selected directory." {
		t.Errorf("Message() = %q", outcome.Message())
	}

	info, err := os.Stat(filepath.Join(dir, "normalized"))
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir should exist: %v", err)
	}
	if got := listDir(t, filepath.Join(dir, "normalized")); len(got) != 0 {
		t.Errorf("output dir = %v, want empty", got)
	}
	if len(rec.kinds(EventFileStarted)) != 0 {
		t.Error("no file should be started")
	}
}

func TestRun_OnlyMatchingExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTracks(t, dir, "song.mp3", "song.wav", "SHOUT.MP3", "readme.mp3.txt")
	if err := os.Mkdir(filepath.Join(dir, "folder.mp3"), 0755); err != nil {
		t.Fatal(err)
	}
	fake := &testsupport.FakeCodec{}

	outcome, err := newOrchestrator(fake, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Total != 1 {
		t.Errorf("Total = %d, want 1", outcome.Total)
	}
	if decoded := fake.Decoded(); len(decoded) != 1 || decoded[0] != "song.mp3" {
		t.Errorf("decoded = %v, want [song.mp3]", decoded)
	}
}

func TestRun_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	writeTracks(t, elsewhere, "real.mp3")

	links := map[string]string{
		"linked.mp3":   filepath.Join(elsewhere, "real.mp3"),
		"dangling.mp3": filepath.Join(elsewhere, "missing.mp3"),
		"dir.mp3":      elsewhere,
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
	}
	fake := &testsupport.FakeCodec{}

	outcome, err := newOrchestrator(fake, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Total != 1 || outcome.Succeeded() != 1 {
		t.Fatalf("total/succeeded = %d/%d, want 1/1", outcome.Total, outcome.Succeeded())
	}
	if decoded := fake.Decoded(); len(decoded) != 1 || decoded[0] != "linked.mp3" {
		t.Errorf("decoded = %v, want [linked.mp3]", decoded)
	}
}

func TestRun_FailurePolicy(t *testing.T) {
	tests := []struct {
		name            string
		continueOnError bool
		wantStatus      model.BatchStatus
		wantProcessed   int
		wantOutputs     []string
		wantErr         bool
	}{
		{"stop on first failure", false, model.BatchFailed, 2, []string{"a.mp3"}, true},
		{"continue on error", true, model.BatchCompleted, 3, []string{"a.mp3", "c.mp3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTracks(t, dir, "a.mp3", "b.mp3", "c.mp3")
			fake := &testsupport.FakeCodec{FailEncode: map[string]bool{"b.mp3": true}}
			opts := DefaultOptions()
			opts.ContinueOnError = tt.continueOnError

			outcome, err := newOrchestrator(fake, opts).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, normalize.ErrEncode) {
				t.Errorf("Run() error = %v, want ErrEncode", err)
			}
			if outcome.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", outcome.Status, tt.wantStatus)
			}
			if outcome.Processed != tt.wantProcessed {
				t.Errorf("Processed = %d, want %d", outcome.Processed, tt.wantProcessed)
			}

			got := listDir(t, filepath.Join(dir, "normalized"))
			if strings.Join(got, ",") != strings.Join(tt.wantOutputs, ",") {
				t.Errorf("outputs = %v, want %v", got, tt.wantOutputs)
			}
			if tt.continueOnError {
				if len(outcome.Failures) != 1 || outcome.Failures[0].File != "b.mp3" || outcome.Failures[0].Index != 2 {
					t.Errorf("Failures = %+v", outcome.Failures)
				}
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	orch := newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions())

	_, err := orch.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), model.DefaultSpec(), nil, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing dir error = %v, want ErrNotExist", err)
	}

	file := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteAudio(t, file, -20)
	_, err = orch.Run(context.Background(), file, model.DefaultSpec(), nil, nil)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("file target error = %v, want ErrNotDirectory", err)
	}

	spec := model.DefaultSpec()
	spec.BitrateKbps = 0
	_, err = orch.Run(context.Background(), t.TempDir(), spec, nil, nil)
	if !errors.Is(err, model.ErrInvalidSpec) {
		t.Errorf("invalid spec error = %v, want ErrInvalidSpec", err)
	}
}

func TestRun_DirectoryLocked(t *testing.T) {
	dir := t.TempDir()
	writeTracks(t, dir, "a.mp3")
	abs, _ := filepath.Abs(dir)

	held, err := acquireDirLock(abs)
	if err != nil {
		t.Fatalf("acquireDirLock() error = %v", err)
	}
	defer held.Unlock()

	_, err = newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions()).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
	if !errors.Is(err, ErrBatchActive) {
		t.Errorf("Run() error = %v, want ErrBatchActive", err)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTracks(t, dir, "a.mp3", "b.mp3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := newOrchestrator(&testsupport.FakeCodec{}, DefaultOptions()).Run(ctx, dir, model.DefaultSpec(), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if outcome.Status != model.BatchCancelled {
		t.Errorf("Status = %v, want cancelled", outcome.Status)
	}
}

func TestRun_PlaylistAndCoverFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Album")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeTracks(t, dir, "1.mp3", "2.mp3")
	testsupport.AddCover(t, filepath.Join(dir, "2.mp3"), []byte("second-cover"))

	opts := DefaultOptions()
	opts.Playlist = "m3u"

	_, err := newOrchestrator(&testsupport.FakeCodec{}, opts).Run(context.Background(), dir, model.DefaultSpec(), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "normalized", "Album.m3u"))
	if err != nil {
		t.Fatalf("playlist not written: %v", err)
	}
	if !strings.Contains(string(data), "1.mp3") || !strings.Contains(string(data), "2.mp3") {
		t.Errorf("playlist = %q", data)
	}

	cover, err := os.ReadFile(filepath.Join(dir, "normalized", "cover.jpg"))
	if err != nil || string(cover) != "second-cover" {
		t.Errorf("cover file = %q, err %v", cover, err)
	}
	if testsupport.ReadCover(t, filepath.Join(dir, "normalized", "1.mp3")) != nil {
		t.Error("1.mp3 had no cover and should not get one")
	}
}

func TestCancelToken(t *testing.T) {
	var nilToken *CancelToken
	if nilToken.Cancelled() {
		t.Error("nil token should never be cancelled")
	}

	token := NewCancelToken()
	if token.Cancelled() {
		t.Fatal("new token should not be cancelled")
	}
	if !token.Cancel() {
		t.Error("first Cancel() should report true")
	}
	if token.Cancel() {
		t.Error("second Cancel() should report false")
	}
	if !token.Cancelled() {
		t.Error("token should stay cancelled")
	}
}

func TestTracker(t *testing.T) {
	tracker := NewTracker()
	tracker.Report(ProgressEvent{Kind: EventRunStarted, Total: 2, Message: "start"})
	tracker.Report(ProgressEvent{Kind: EventFileStarted, Index: 1, Total: 2, File: "a.mp3"})

	snap := tracker.Snapshot()
	if !snap.Started || snap.File != "a.mp3" || snap.Done != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	tracker.Report(ProgressEvent{Kind: EventFileCompleted, Index: 1, Total: 2, File: "a.mp3"})
	if done, total := tracker.GetProgress(); done != 1 || total != 2 {
		t.Errorf("GetProgress() = %d/%d, want 1/2", done, total)
	}

	tracker.Report(ProgressEvent{Kind: EventRunFinished, Status: model.BatchCancelled, Message: "stopped"})
	snap = tracker.Snapshot()
	if !snap.Finished || snap.Status != model.BatchCancelled || snap.Message != "stopped" {
		t.Errorf("snapshot = %+v", snap)
	}

	for i := 0; i < trackerLogSize*2; i++ {
		tracker.Report(ProgressEvent{Kind: EventFileStarted})
	}
	if got := len(tracker.Snapshot().Recent); got != trackerLogSize {
		t.Errorf("Recent holds %d events, want %d", got, trackerLogSize)
	}
}

func TestLogReporter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := LogReporter(zap.New(core))

	r.Report(ProgressEvent{Kind: EventFileCompleted, Level: LevelVerbose, Index: 1, Total: 2, File: "a.mp3", Message: "done a"})
	r.Report(ProgressEvent{Kind: EventFileFailed, Level: LevelError, Index: 2, Total: 2, File: "b.mp3", Err: errors.New("boom"), Message: "failed b"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != zap.DebugLevel || entries[0].Message != "done a" {
		t.Errorf("entry 0 = %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[1].Level != zap.WarnLevel || entries[1].ContextMap()["file"] != "b.mp3" {
		t.Errorf("entry 1 = %v %v", entries[1].Level, entries[1].ContextMap())
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	MultiReporter{a, nil, b}.Report(ProgressEvent{Message: "x"})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events = %d/%d, want 1/1", len(a.events), len(b.events))
	}
}
