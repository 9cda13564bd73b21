package conversation

import "strings"

// pendingUtterance accumulates the finalized transcript segments of the
// utterance currently being captured. It is owned by the controller's event
// loop and never accessed concurrently.
type pendingUtterance struct {
	segments []string
}

func (u *pendingUtterance) append(segment string) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return
	}
	u.segments = append(u.segments, segment)
}

func (u *pendingUtterance) text() string {
	return strings.Join(u.segments, " ")
}

func (u *pendingUtterance) empty() bool {
	return len(u.segments) == 0
}

func (u *pendingUtterance) reset() {
	u.segments = nil
}
