// Package notify delivers settle events to people.
//
// Every notifier renders a model.Change into a Message: a one-line plain text
// summary, an HTML body with the unified diff folded into a <details> block,
// and a markdown variant for terminals. A pad without a prior snapshot is
// reported as created and diffed against empty content.
//
// Notifiers:
//   - Matrix: posts to a Matrix room as a password-authenticated bot user
//   - Console: writes each change to a writer as markdown, text or JSON
package notify
