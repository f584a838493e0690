package model

import "fmt"

// BatchStatus is the terminal status of a batch run.
type BatchStatus int

const (
	BatchCompleted BatchStatus = iota
	BatchCancelled
	BatchEmpty
	BatchFailed
)

// String returns the lower-case status name.
func (s BatchStatus) String() string {
	switch s {
	case BatchCompleted:
		return "completed"
	case BatchCancelled:
		return "cancelled"
	case BatchEmpty:
		return "empty"
	case BatchFailed:
		return "failed"
	default:
		return fmt.Sprintf("BatchStatus(%d)", int(s))
	}
}

// BatchOutcome is the result of a batch run over one directory.
type BatchOutcome struct {
	Status BatchStatus

	// Directory is the scanned input directory.
	Directory string

	// OutputDir is the normalized subdirectory of Directory.
	OutputDir string

	// Total is the number of candidate files found.
	Total int

	// Processed is the number of files whose normalization finished,
	// successfully or not.
	Processed int

	Results  []NormalizationResult
	Failures []FileFailure

	// Err is the error that stopped a failed run.
	Err error
}

// Succeeded returns the number of files written successfully.
func (o *BatchOutcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// Message returns the status line presented to the user.
func (o *BatchOutcome) Message() string {
	switch o.Status {
	case BatchCompleted:
		return "Volume normalization success."
	case BatchCancelled:
		return "Volume normalization cancelled."
	case BatchEmpty:
		return "No audio files found in the selected directory."
	case BatchFailed:
		if o.Err != nil {
			return fmt.Sprintf("Volume normalization failed: %v", o.Err)
		}
		return "Volume normalization failed."
	default:
		return ""
	}
}
