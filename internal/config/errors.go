package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate so that callers can use errors.Is.
var (
	// ErrNoServers is returned when crawl.servers is empty.
	// Without at least one server no URL can be recognized as a pad.
	ErrNoServers = errors.New("no pad servers configured: set crawl.servers")

	// ErrNoSeeds is returned when crawl.seeds is empty.
	ErrNoSeeds = errors.New("no seed pads configured: set crawl.seeds")

	// ErrInvalidInterval is returned when the poll interval is not positive.
	ErrInvalidInterval = errors.New("invalid crawl interval: must be positive")

	// ErrInvalidTimeout is returned when the per-operation timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid crawl timeout: must be positive")

	// ErrInvalidCoolDown is returned when the notification cool-down is negative.
	ErrInvalidCoolDown = errors.New("invalid cool-down: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRate is returned when the request rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidRepoDriver is returned for an unknown repo.driver.
	ErrInvalidRepoDriver = errors.New("invalid repo driver: must be fs or sqlite")

	// ErrInvalidNotifyDriver is returned for an unknown notify.driver.
	ErrInvalidNotifyDriver = errors.New("invalid notify driver: must be matrix or console")
)
