package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/nao1215/markdown"
	commonmark "gitlab.com/golang-commonmark/markdown"

	"github.com/nao1215/padwatch/internal/model"
)

// Message is a rendered settle event.
type Message struct {
	// Plain is the fallback body for clients without HTML support.
	Plain string
	// HTML is the formatted body.
	HTML string
	// Markdown is the terminal rendering.
	Markdown string
	// Diff is the diff the bodies were rendered from.
	Diff Diff
}

// htmlRenderer turns the markdown header into HTML. Raw HTML in titles is
// escaped rather than passed through.
var htmlRenderer = commonmark.New(
	commonmark.HTML(false),
	commonmark.Linkify(false),
	commonmark.Typographer(false),
)

// Render builds the message for change.
func Render(change model.Change) (Message, error) {
	pad := change.Pad
	d, err := NewDiff(pad.Link.Name, change.Prior, pad.Content)
	if err != nil {
		return Message{}, err
	}

	status := statusLine(change)
	title := pad.DisplayTitle()
	url := pad.Link.URL()

	header := markdown.Bold(status+":") + " " + markdown.Link(escapeMarkdown(title), url)

	var md bytes.Buffer
	doc := markdown.NewMarkdown(&md)
	doc.PlainText(header)
	doc.PlainText("")
	if pad.Description != "" {
		doc.PlainText(escapeMarkdown(pad.Description))
		doc.PlainText("")
	}
	doc.PlainText(d.Summary())
	if !d.Empty() {
		doc.PlainText("")
		doc.CodeBlocks(markdown.SyntaxHighlight("diff"), strings.TrimSuffix(d.Hunks, "\n"))
	}
	if err := doc.Build(); err != nil {
		return Message{}, fmt.Errorf("rendering markdown: %w", err)
	}

	var body strings.Builder
	body.WriteString(strings.TrimSpace(htmlRenderer.RenderToString([]byte(header))))
	body.WriteString("<details><summary>Content:</summary><pre><code>")
	body.WriteString(html.EscapeString(d.Hunks))
	body.WriteString("</code></pre></details>")

	return Message{
		Plain:    fmt.Sprintf("%s: %s \n  ⮡ %s", status, title, url),
		HTML:     body.String(),
		Markdown: md.String(),
		Diff:     d,
	}, nil
}

// statusLine returns "Pad created" or "Pad updated".
func statusLine(change model.Change) string {
	return "Pad " + change.Verb()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `\<`,
)

// escapeMarkdown escapes characters that would change the meaning of a
// title or description inside the markdown header.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
