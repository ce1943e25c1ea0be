package crawler

import "errors"

// Per-link failures are wrapped in exactly one of these errors so callers
// and metrics can classify them with errors.Is.
var (
	// ErrFetch indicates the pad could not be fetched from its server.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates the links of a pad could not be extracted.
	ErrExtraction = errors.New("link extraction failed")

	// ErrStore indicates a snapshot could not be read or persisted.
	ErrStore = errors.New("snapshot store failed")

	// ErrNotify indicates the notifier rejected a settle event.
	ErrNotify = errors.New("notification failed")

	// ErrInvalidSeed indicates a configured seed URL does not point at a pad
	// on one of the configured servers.
	ErrInvalidSeed = errors.New("seed link not valid")
)

// Kind returns a short label for the class of a per-link error.
// It returns "other" for errors not wrapping one of the sentinels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrStore):
		return "store"
	case errors.Is(err, ErrNotify):
		return "notify"
	default:
		return "other"
	}
}
