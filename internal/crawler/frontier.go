package crawler

import "github.com/nao1215/padwatch/internal/model"

// Frontier holds every link known to the crawler and the FIFO queue of the
// current cycle.
//
// Known links are kept in insertion order and never removed during the life
// of the process. Add only enqueues links it has not seen before, so a queue
// drains in a bounded number of steps no matter how pads link to each other.
//
// Frontier is not safe for concurrent use.
type Frontier struct {
	seen  map[model.Link]struct{}
	known []model.Link
	queue []model.Link
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen: make(map[model.Link]struct{}),
	}
}

// Add records link as known and appends it to the queue.
// It returns false, leaving the frontier untouched, if link was already known.
func (f *Frontier) Add(link model.Link) bool {
	if _, ok := f.seen[link]; ok {
		return false
	}
	f.seen[link] = struct{}{}
	f.known = append(f.known, link)
	f.queue = append(f.queue, link)
	return true
}

// Reset discards the current queue and refills it with every known link,
// in the order they became known.
func (f *Frontier) Reset() {
	f.queue = make([]model.Link, len(f.known))
	copy(f.queue, f.known)
}

// Pop removes and returns the link at the head of the queue.
// The boolean is false when the queue is empty.
func (f *Frontier) Pop() (model.Link, bool) {
	if len(f.queue) == 0 {
		return model.Link{}, false
	}
	link := f.queue[0]
	f.queue[0] = model.Link{}
	f.queue = f.queue[1:]
	return link, true
}

// Len returns the number of queued links.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Known returns a copy of every known link in insertion order.
func (f *Frontier) Known() []model.Link {
	out := make([]model.Link, len(f.known))
	copy(out, f.known)
	return out
}

// Size returns the number of known links.
func (f *Frontier) Size() int {
	return len(f.known)
}

// Contains reports whether link is known.
func (f *Frontier) Contains(link model.Link) bool {
	_, ok := f.seen[link]
	return ok
}
