package padserver

import "errors"

var (
	// ErrUnexpectedStatus is returned when a pad server answers with a
	// non-2xx status code, e.g. for a deleted or private pad.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrMalformedInfo is returned when the metadata document of a pad
	// cannot be decoded.
	ErrMalformedInfo = errors.New("malformed pad info")

	// ErrBodyTooLarge is returned when a response exceeds the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
