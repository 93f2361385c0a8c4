//go:build !darwin && !linux && !windows

package clip

// New returns the headless accessor; there is no clipboard integration for
// this platform.
func New() Accessor { return Headless() }
