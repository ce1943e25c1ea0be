// Package crawler discovers pads across a federation of pad servers and
// reports pads whose content has settled after a change.
//
// # Components
//
//   - Crawler: the single-worker polling loop. Each cycle walks every known
//     link in breadth-first discovery order, fetches the pad, follows its
//     outbound links and feeds the content into a per-link tracker.
//   - Frontier: the insertion-ordered set of known links plus the queue of
//     the current cycle.
//   - ExtractLinks: finds outbound hyperlinks in a pad's markdown.
//
// # Cycle
//
// A cycle starts by rebuilding the queue from every known link. A link found
// in a pad that is not yet known is appended to the queue of the same cycle,
// so the crawl reaches the whole connected link graph of the seeds. Known
// links only grow and are never re-queued within a cycle, so every cycle
// terminates even when pads link to each other.
//
// When a tracker settles, the crawler reads the previous snapshot from the
// Store, persists the new content and hands a model.Change to the Notifier.
// A failure on one link is logged and the cycle moves on to the next link.
//
// # Usage
//
//	c := crawler.New(servers, seeds, fetcher, store, notifier,
//		crawler.WithCoolDown(15*time.Minute),
//		crawler.WithInterval(5*time.Minute),
//	)
//	if err := c.Seed(ctx); err != nil {
//		return err
//	}
//	return c.Run(ctx)
package crawler
