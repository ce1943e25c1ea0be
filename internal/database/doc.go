// Package database provides SQLite-based snapshot storage for padwatch.
//
// The SnapshotDB stores:
//   - The last settled content of every watched pad, with its fingerprint
//   - A settle history row for every snapshot written, for auditing
//
// It implements the same contract as the filesystem repository in package
// repo and is selected with `repo.driver: sqlite`. The driver is
// modernc.org/sqlite, so no cgo toolchain is required.
package database
