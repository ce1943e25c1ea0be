// Package tracker implements the per-pad change detection state machine.
//
// A Tracker is either Quiescent (content settled, carrying the fingerprint of
// the settled content) or Vivacious (recently changed, carrying the time of
// the last observed change and the fingerprint of the latest content). The
// debounce is edge-triggered: Quiesce reports true once per settle event, on
// the first call after the cool-down window has elapsed since the last real
// content change.
//
// Trackers are not safe for concurrent use; the crawler owns them exclusively.
package tracker

import (
	"fmt"
	"time"

	"github.com/nao1215/padwatch/internal/fingerprint"
)

// State is the phase of a Tracker.
type State int

const (
	// Quiescent means the content has settled and no notification is pending.
	Quiescent State = iota
	// Vivacious means the content changed recently and may still be edited.
	Vivacious
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Quiescent:
		return "quiescent"
	case Vivacious:
		return "vivacious"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tracker follows the content of a single pad across polling cycles.
type Tracker struct {
	state       State
	hash        fingerprint.Digest
	lastUpdated time.Time
}

// New creates a tracker for a pad observed for the first time with no
// persisted snapshot. It always starts Vivacious, so the pad is reported once
// it settles.
func New(content string, now time.Time) *Tracker {
	return &Tracker{
		state:       Vivacious,
		hash:        fingerprint.Of(content),
		lastUpdated: now,
	}
}

// FromExisting creates a tracker for a pad whose prior snapshot is persisted.
// It starts Quiescent when the current content matches the prior snapshot and
// Vivacious otherwise.
func FromExisting(prior, current string, now time.Time) *Tracker {
	h := fingerprint.Of(current)
	if fingerprint.Of(prior) == h {
		return &Tracker{state: Quiescent, hash: h}
	}
	return &Tracker{
		state:       Vivacious,
		hash:        h,
		lastUpdated: now,
	}
}

// Update feeds freshly fetched content into the tracker and returns it.
// A real content change (a new fingerprint) makes the tracker Vivacious and
// restarts the cool-down window. Feeding the latest content again is a no-op.
func (t *Tracker) Update(content string, now time.Time) *Tracker {
	h := fingerprint.Of(content)
	if h == t.hash {
		return t
	}
	t.state = Vivacious
	t.hash = h
	t.lastUpdated = now
	return t
}

// Quiesce settles a Vivacious tracker whose last change is older than
// coolDown and reports whether it did. A settled tracker stays Quiescent
// until the next content change, so true is returned once per settle.
func (t *Tracker) Quiesce(coolDown time.Duration, now time.Time) bool {
	if t.state != Vivacious {
		return false
	}
	if now.Sub(t.lastUpdated) <= coolDown {
		return false
	}
	t.state = Quiescent
	t.lastUpdated = time.Time{}
	return true
}

// State returns the current phase.
func (t *Tracker) State() State {
	return t.state
}

// Hash returns the fingerprint of the most recently fed content.
func (t *Tracker) Hash() fingerprint.Digest {
	return t.hash
}

// LastUpdated returns the time of the last observed content change.
// It is the zero time while Quiescent.
func (t *Tracker) LastUpdated() time.Time {
	return t.lastUpdated
}

// String implements fmt.Stringer for log output.
func (t *Tracker) String() string {
	if t.state == Quiescent {
		return fmt.Sprintf("quiescent{%s}", t.hash.String()[:12])
	}
	return fmt.Sprintf("vivacious{%s, %s}", t.lastUpdated.Format(time.RFC3339), t.hash.String()[:12])
}
