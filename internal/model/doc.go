// Package model defines the core data structures used throughout padwatch.
//
// This package contains the following main types:
//   - Link: The canonical identity of a pad, a (server, name) pair
//   - ServerSet: The allow-list of pad servers used to resolve URLs into Links
//   - Pad: One fetched snapshot of a pad's content and metadata
//   - Change: A settled content change handed to a notifier
//
// Models live in their own package because the crawler, the pad server
// client, the snapshot stores and the notifiers all share them.
package model
