package model

import "github.com/rotisserie/eris"

// Stage-internal failure taxonomy. These never escape a stage as call
// errors; they are recorded on votes and source results. The single
// exception is ErrNoInput, which fails the whole pipeline call.
var (
	// ErrProviderTimeout marks a provider that did not answer within its box.
	ErrProviderTimeout = eris.New("provider timed out")

	// ErrProviderRejected marks a provider reply filtered as garbage.
	ErrProviderRejected = eris.New("provider output rejected")

	// ErrSourceUnavailable marks a market-data source call that failed.
	ErrSourceUnavailable = eris.New("market data source unavailable")

	// ErrNoProvidersConfigured means a stage has zero providers to call.
	ErrNoProvidersConfigured = eris.New("no providers configured")

	// ErrNoVotesCollected signals degraded-mode consensus, not a failure.
	ErrNoVotesCollected = eris.New("no votes collected")

	// ErrMalformedResponse marks a payload that could not be normalized.
	ErrMalformedResponse = eris.New("malformed provider response")

	// ErrNoInput is the one fatal precondition: nothing to analyze.
	ErrNoInput = eris.New("analysis request has no images and no hint")
)
