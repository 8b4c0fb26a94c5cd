// Package sound abstracts the audible critical-alert cue. The implementation
// is constructed at the composition root and injected into the alert store;
// its enabled state is passed in rather than read from ambient storage.
package sound

import "io"

// Sounder emits the critical-alert cue. Implementations must be safe for
// concurrent use.
type Sounder interface {
	CriticalAlert()
}

// Bell writes the terminal bell character. A disabled Bell stays silent.
type Bell struct {
	Out     io.Writer
	Enabled bool
}

func (b *Bell) CriticalAlert() {
	if b == nil || !b.Enabled || b.Out == nil {
		return
	}
	_, _ = b.Out.Write([]byte{'\a'})
}

// Nop ignores every cue. Used in tests and headless runs.
type Nop struct{}

func (Nop) CriticalAlert() {}
