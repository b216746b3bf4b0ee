package domain

import "errors"

var (
	// ErrMalformedListing marks a raw record that cannot be normalized. Skip the
	// record and keep going.
	ErrMalformedListing = errors.New("malformed listing")

	// ErrSourceFetch marks a company whose board could not be fetched.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrConfig is fatal and stops the run before any fetch.
	ErrConfig = errors.New("config error")

	// ErrStoreIO means the seen store could not be loaded or saved.
	ErrStoreIO = errors.New("seen store i/o")

	// ErrAllSourcesFailed is returned when no configured source produced data.
	ErrAllSourcesFailed = errors.New("all sources failed")
)
