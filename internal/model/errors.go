package model

import (
	"errors"
	"fmt"
)

// Error taxonomy . Each category is a sentinel so callers can
// classify a failure with errors.Is without parsing message text.
var (
	// ErrConfiguration: missing required parameter, unknown strategist type,
	// invalid time-series reference. Raised at construction.
	ErrConfiguration = errors.New("configuration error")

	// ErrConstraintViolation: negative bid power, schedule without a
	// feasible state, dispatch file outside tolerance. Raised at the
	// offending step; fatal to that agent's run.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrForecastUnavailable: a strategist asked for a forecast that was
	// never delivered. Price-taker variants treat this as "forecast = 0";
	// sensitivity-consuming strategists treat it as fatal.
	ErrForecastUnavailable = errors.New("forecast unavailable")

	// ErrNegativeBidEnergy is a specific ErrConstraintViolation: bids must
	// carry non-negative energy.
	ErrNegativeBidEnergy = fmt.Errorf("%w: bid energy must be non-negative", ErrConstraintViolation)

	// ErrNoValidStrategy: backward induction found no feasible transition
	// from some reachable state. Should not occur when T >= 1 and state
	// bounds are respected; surfaced as a hard error rather than silently
	// falling back to idle.
	ErrNoValidStrategy = errors.New("no valid strategy: no feasible transition from reachable state")

	// ErrMonthlyCorrelationNotImplemented: the monthly green-hydrogen PPA
	// correlation variant is not implemented.
	ErrMonthlyCorrelationNotImplemented = errors.New("monthly PPA correlation strategist: not implemented")
)
