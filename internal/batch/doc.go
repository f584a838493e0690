// Package batch normalizes every audio file of a directory in sequence.
//
// # Orchestrator
//
// The Orchestrator runs one directory at a time:
//
//  1. Create <dir>/normalized (even when nothing will be written)
//  2. Take a per-directory lock so two runs never share a directory
//  3. List the .mp3 files of <dir>, in listing order
//  4. Normalize them one by one, checking the cancel latch before each
//  5. Report a terminal status: completed, cancelled, empty or failed
//
// # Basic Usage
//
//	orch := batch.NewOrchestrator(engine, batch.DefaultOptions(), log)
//	token := batch.NewCancelToken()
//
//	outcome, err := orch.Run(ctx, "/music/album", model.DefaultSpec(), token,
//	    batch.ReporterFunc(func(e batch.ProgressEvent) {
//	        fmt.Println(e.Message)
//	    }))
//	fmt.Println(outcome.Message())
//
// # Cancellation
//
// CancelToken is a one-way latch. Setting it from another goroutine stops
// the run before the next file starts; the file in progress is finished
// and kept.
//
//	go func() { <-stop; token.Cancel() }()
//
// # Progress Tracking
//
// Progress is reported via a Reporter that receives ProgressEvent values:
//
//	type ProgressEvent struct {
//	    Kind    EventKind     // RunStarted, FileStarted, FileCompleted, FileFailed, RunFinished
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Index   int           // 1-based position of the file
//	    Total   int
//	    File    string
//	    Message string
//	}
//
// A Tracker keeps the latest state for interfaces that poll.
package batch
