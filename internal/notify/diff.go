package notify

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 3

// Diff is the line diff between two snapshots of a pad.
type Diff struct {
	// Hunks is the unified diff without file headers, one "@@" block per hunk.
	Hunks string
	// Stat counts added, changed and deleted lines.
	Stat diff.Stat
}

// Empty reports whether the snapshots are identical.
func (d Diff) Empty() bool {
	return d.Hunks == ""
}

// Summary returns a short human-readable line count summary.
func (d Diff) Summary() string {
	return fmt.Sprintf("%d added, %d changed, %d deleted", d.Stat.Added, d.Stat.Changed, d.Stat.Deleted)
}

// NewDiff computes the unified diff from prior to content. name is used in
// the file headers that go-diff needs to parse the result back into hunks.
func NewDiff(name, prior, content string) (Diff, error) {
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(prior),
		B:        splitLines(content),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
		Eol:      "\n",
	})
	if err != nil {
		return Diff{}, fmt.Errorf("computing diff: %w", err)
	}
	if unified == "" {
		return Diff{}, nil
	}

	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return Diff{}, fmt.Errorf("parsing diff: %w", err)
	}
	hunks, err := diff.PrintHunks(fd.Hunks)
	if err != nil {
		return Diff{}, fmt.Errorf("printing hunks: %w", err)
	}

	return Diff{
		Hunks: string(hunks),
		Stat:  fd.Stat(),
	}, nil
}

// noNewlineMarker follows a final line that lacks its newline, as in the
// output of diff(1).
const noNewlineMarker = "\\ No newline at end of file\n"

// splitLines splits s into newline-terminated lines. Empty input has no
// lines. A final line without a newline gets one followed by
// noNewlineMarker, so adding or removing only the trailing newline still
// shows up as a changed line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n" + noNewlineMarker
	}
	return lines
}
