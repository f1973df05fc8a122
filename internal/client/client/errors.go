package client

import "errors"

var (
	// ErrUnavailable covers timeouts, connection failures and 5xx responses
	// that survived the bounded retry. Callers treat it as transient.
	ErrUnavailable = errors.New("server unavailable")

	// ErrNotFound maps a 404 on moment lookup. On lookup-by-client-id it is
	// the expected "create it" signal, not a failure.
	ErrNotFound = errors.New("moment not found")

	// ErrEnrichInProgress maps a 409 on the enrich endpoint: the server is
	// already generating praise for this moment. Poll again later.
	ErrEnrichInProgress = errors.New("enrichment already in progress")

	// Quota errors returned by the create endpoint. The server distinguishes
	// the two via the error code field on the wire.
	ErrDailyLimitReached = errors.New("daily moment limit reached")
	ErrTotalLimitReached = errors.New("total moment limit reached")
)
