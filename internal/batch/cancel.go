package batch

import "sync/atomic"

// CancelToken is a one-way latch shared between a batch run and whoever
// may stop it. Once set it stays set.
//
// The orchestrator checks the latch before starting each file, so a file
// already being normalized always runs to completion.
type CancelToken struct {
	set atomic.Bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel sets the latch. It reports whether this call was the one that set
// it.
func (c *CancelToken) Cancel() bool {
	return !c.set.Swap(true)
}

// Cancelled reports whether the latch is set. A nil token is never set.
func (c *CancelToken) Cancelled() bool {
	return c != nil && c.set.Load()
}
