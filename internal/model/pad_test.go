package model

import "testing"

// TestPadDisplayTitle tests the title fallback to the pad name.
func TestPadDisplayTitle(t *testing.T) {
	t.Parallel()

	t.Run("uses title when present", func(t *testing.T) {
		t.Parallel()

		pad := &Pad{Link: NewLink("pad.example", "doc1"), Title: "Meeting notes"}
		if got := pad.DisplayTitle(); got != "Meeting notes" {
			t.Errorf("expected 'Meeting notes', got %q", got)
		}
	})

	t.Run("falls back to pad name", func(t *testing.T) {
		t.Parallel()

		pad := &Pad{Link: NewLink("pad.example", "doc1")}
		if got := pad.DisplayTitle(); got != "doc1" {
			t.Errorf("expected 'doc1', got %q", got)
		}
	})
}

// TestChangeVerb tests the verb used when describing a change.
func TestChangeVerb(t *testing.T) {
	t.Parallel()

	if got := (Change{Created: true}).Verb(); got != "created" {
		t.Errorf("expected 'created', got %q", got)
	}
	if got := (Change{Prior: "old"}).Verb(); got != "updated" {
		t.Errorf("expected 'updated', got %q", got)
	}
}
