package tracker

import (
	"testing"
	"time"

	"github.com/nao1215/padwatch/internal/fingerprint"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// TestNew tests that a first observation always starts Vivacious.
func TestNew(t *testing.T) {
	t.Parallel()

	tr := New("# hello", t0)
	if tr.State() != Vivacious {
		t.Errorf("expected vivacious, got %s", tr.State())
	}
	if tr.Hash() != fingerprint.Of("# hello") {
		t.Error("expected hash of the observed content")
	}
	if !tr.LastUpdated().Equal(t0) {
		t.Errorf("expected lastUpdated %v, got %v", t0, tr.LastUpdated())
	}
}

// TestFromExisting tests construction from a persisted snapshot.
func TestFromExisting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prior    string
		current  string
		expected State
	}{
		{name: "unchanged content is quiescent", prior: "same", current: "same", expected: Quiescent},
		{name: "changed content is vivacious", prior: "old", current: "new", expected: Vivacious},
		{name: "empty prior and content is quiescent", prior: "", current: "", expected: Quiescent},
		{name: "whitespace change is vivacious", prior: "a", current: "a ", expected: Vivacious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := FromExisting(tt.prior, tt.current, t0)
			if tr.State() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tr.State())
			}
			if tr.Hash() != fingerprint.Of(tt.current) {
				t.Error("expected hash of the current content")
			}
		})
	}
}

// TestUpdate tests the transition table of Update.
func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("quiescent with same content stays quiescent", func(t *testing.T) {
		t.Parallel()

		tr := FromExisting("x", "x", t0)
		tr.Update("x", t0.Add(time.Hour))
		if tr.State() != Quiescent {
			t.Errorf("expected quiescent, got %s", tr.State())
		}
	})

	t.Run("quiescent with new content becomes vivacious", func(t *testing.T) {
		t.Parallel()

		tr := FromExisting("x", "x", t0)
		now := t0.Add(time.Hour)
		tr.Update("y", now)
		if tr.State() != Vivacious {
			t.Fatalf("expected vivacious, got %s", tr.State())
		}
		if !tr.LastUpdated().Equal(now) {
			t.Errorf("expected lastUpdated %v, got %v", now, tr.LastUpdated())
		}
		if tr.Hash() != fingerprint.Of("y") {
			t.Error("expected hash of the new content")
		}
	})

	t.Run("vivacious with new content restarts window", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		now := t0.Add(10 * time.Minute)
		tr.Update("b", now)
		if tr.State() != Vivacious {
			t.Fatalf("expected vivacious, got %s", tr.State())
		}
		if !tr.LastUpdated().Equal(now) {
			t.Errorf("expected lastUpdated %v, got %v", now, tr.LastUpdated())
		}
	})

	t.Run("vivacious with same content does not restart window", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		tr.Update("a", t0.Add(10*time.Minute))
		if !tr.LastUpdated().Equal(t0) {
			t.Errorf("expected lastUpdated %v, got %v", t0, tr.LastUpdated())
		}
	})

	t.Run("returns receiver", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		if got := tr.Update("b", t0); got != tr {
			t.Error("expected Update to return the receiver")
		}
	})
}

// TestUpdateIdempotent tests that repeated updates with the same content are
// equivalent to a single update.
func TestUpdateIdempotent(t *testing.T) {
	t.Parallel()

	once := New("a", t0).Update("b", t0.Add(time.Minute))
	many := New("a", t0)
	for i := 1; i <= 5; i++ {
		many.Update("b", t0.Add(time.Duration(i)*time.Minute))
	}

	if once.State() != many.State() || once.Hash() != many.Hash() || !once.LastUpdated().Equal(many.LastUpdated()) {
		t.Errorf("expected %s, got %s", once, many)
	}
}

// TestQuiesce tests the edge-triggered debounce.
func TestQuiesce(t *testing.T) {
	t.Parallel()

	coolDown := 15 * time.Minute

	t.Run("before cool-down does not settle", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		if tr.Quiesce(coolDown, t0.Add(coolDown-time.Second)) {
			t.Error("expected no settle before the window elapsed")
		}
		if tr.State() != Vivacious {
			t.Errorf("expected vivacious, got %s", tr.State())
		}
	})

	t.Run("exactly at cool-down does not settle", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		if tr.Quiesce(coolDown, t0.Add(coolDown)) {
			t.Error("expected no settle at the window boundary")
		}
	})

	t.Run("after cool-down settles exactly once", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		now := t0.Add(coolDown + time.Second)
		if !tr.Quiesce(coolDown, now) {
			t.Fatal("expected settle after the window elapsed")
		}
		if tr.State() != Quiescent {
			t.Errorf("expected quiescent, got %s", tr.State())
		}
		if tr.Hash() != fingerprint.Of("a") {
			t.Error("expected settled hash to carry the last hash")
		}
		if tr.Quiesce(coolDown, now.Add(time.Hour)) {
			t.Error("expected second quiesce to return false")
		}
	})

	t.Run("quiescent never settles", func(t *testing.T) {
		t.Parallel()

		tr := FromExisting("a", "a", t0)
		if tr.Quiesce(0, t0.Add(24*time.Hour)) {
			t.Error("expected quiescent tracker to return false")
		}
	})

	t.Run("edit during window postpones settle", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		edit := t0.Add(10 * time.Minute)
		tr.Update("b", edit)

		if tr.Quiesce(coolDown, t0.Add(coolDown+time.Second)) {
			t.Error("expected no settle measured from the first observation")
		}
		if !tr.Quiesce(coolDown, edit.Add(coolDown+time.Second)) {
			t.Error("expected settle measured from the last edit")
		}
	})

	t.Run("change after settle re-arms", func(t *testing.T) {
		t.Parallel()

		tr := New("a", t0)
		tr.Quiesce(coolDown, t0.Add(time.Hour))
		changed := t0.Add(2 * time.Hour)
		tr.Update("b", changed)
		if tr.State() != Vivacious {
			t.Fatalf("expected vivacious, got %s", tr.State())
		}
		if !tr.Quiesce(coolDown, changed.Add(coolDown+time.Nanosecond)) {
			t.Error("expected a second settle event")
		}
	})
}

// TestStateString tests state names.
func TestStateString(t *testing.T) {
	t.Parallel()

	if Quiescent.String() != "quiescent" {
		t.Errorf("got %q", Quiescent.String())
	}
	if Vivacious.String() != "vivacious" {
		t.Errorf("got %q", Vivacious.String())
	}
	if State(7).String() != "state(7)" {
		t.Errorf("got %q", State(7).String())
	}
}
