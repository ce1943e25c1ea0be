package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nao1215/padwatch/internal/fingerprint"
	"github.com/nao1215/padwatch/internal/model"
)

// Format selects the Console output format.
type Format string

const (
	// FormatMarkdown writes the markdown rendering.
	FormatMarkdown Format = "markdown"
	// FormatText writes the plain one-line summary.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Console writes settle events to a writer, typically stdout.
// It is useful for trying a configuration before wiring up a chat room.
type Console struct {
	out    io.Writer
	format Format
	mu     sync.Mutex
}

// NewConsole creates a Console. An empty format means FormatMarkdown.
func NewConsole(out io.Writer, format Format) *Console {
	if format == "" {
		format = FormatMarkdown
	}
	return &Console{out: out, format: format}
}

// consoleEvent is the JSON shape of a settle event.
type consoleEvent struct {
	Change     string     `json:"change"`
	Link       model.Link `json:"link"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Hash       string     `json:"hash"`
	PriorHash  string     `json:"prior_hash,omitempty"`
	Added      int32      `json:"added"`
	Changed    int32      `json:"changed"`
	Deleted    int32      `json:"deleted"`
	Diff       string     `json:"diff"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
}

// Notify writes change in the configured format.
func (c *Console) Notify(_ context.Context, change model.Change) error {
	msg, err := Render(change)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.format {
	case FormatText:
		_, err = fmt.Fprintln(c.out, msg.Plain)
	case FormatJSON:
		pad := change.Pad
		ev := consoleEvent{
			Change:  change.Verb(),
			Link:    pad.Link,
			URL:     pad.Link.URL(),
			Title:   pad.DisplayTitle(),
			Hash:    fingerprint.Of(pad.Content).String(),
			Added:   msg.Diff.Stat.Added,
			Changed: msg.Diff.Stat.Changed,
			Deleted: msg.Diff.Stat.Deleted,
			Diff:    msg.Diff.Hunks,
		}
		if !change.Created {
			ev.PriorHash = fingerprint.Of(change.Prior).String()
		}
		if !pad.UpdateTime.IsZero() {
			t := pad.UpdateTime
			ev.UpdateTime = &t
		}
		err = json.NewEncoder(c.out).Encode(ev)
	default:
		_, err = fmt.Fprintln(c.out, msg.Markdown)
	}
	if err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}
