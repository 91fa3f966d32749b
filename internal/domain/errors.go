package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocalValidation marks bad caller input caught before any network
	// call. Never retryable.
	ErrLocalValidation = errors.New("local validation failed")

	// ErrNotFound means the venue reported no such market or order.
	ErrNotFound = errors.New("not found")

	// ErrTransientNetwork covers timeouts and connection failures. Retryable
	// by the caller with backoff; adapters never retry internally.
	ErrTransientNetwork = errors.New("transient network failure")

	// ErrAuthFailure means the venue rejected our signature. A retry must
	// regenerate the timestamp and signature, never resend a stale one.
	ErrAuthFailure = errors.New("authentication rejected")

	// ErrRateLimited means the venue throttled us.
	ErrRateLimited = errors.New("rate limited")

	// ErrSchema means a venue payload did not have the expected shape.
	// Fatal for that market; the scan skips it and continues.
	ErrSchema = errors.New("unexpected payload schema")

	// ErrSigningFailed means a private key could not be parsed or the
	// cryptographic primitive rejected it. Fatal, no unsigned fallback.
	ErrSigningFailed = errors.New("signing failed")
)

// PartialExecutionError reports a multi-leg dispatch where earlier legs
// filled and a later leg did not. It is surfaced loudly and requires manual
// reconciliation; blindly retrying could double-execute the filled legs.
type PartialExecutionError struct {
	OpportunityID string
	Filled        []OrderResult // legs that were accepted, in submission order
	FailedLeg     OrderIntent   // the leg that failed
	Cause         error
}

func (e *PartialExecutionError) Error() string {
	filled := make([]string, 0, len(e.Filled))
	for _, r := range e.Filled {
		filled = append(filled, fmt.Sprintf("%s:%s", r.Venue, r.OrderID))
	}
	return fmt.Sprintf(
		"partial execution of opportunity %s: filled [%s], leg %s/%s failed: %v",
		e.OpportunityID, strings.Join(filled, ", "), e.FailedLeg.Venue, e.FailedLeg.MarketID, e.Cause,
	)
}

func (e *PartialExecutionError) Unwrap() error { return e.Cause }
