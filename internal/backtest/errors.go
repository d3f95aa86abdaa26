package backtest

import "errors"

// Fatal errors abort a run and return with no partial result; the
// recoverable conditions of §7-style taxonomies are represented as
// warnings on the result instead (see domain.Warning), except under
// strict mode where they become fatal with the original cause attached.
var (
	// ErrDataUnavailable is returned before a run starts when the bar
	// range cannot be satisfied.
	ErrDataUnavailable = errors.New("historical data unavailable")

	// ErrModelNotFound is returned by the resolver when no strategy
	// matches the requested name/symbol/timeframe/version.
	ErrModelNotFound = errors.New("model not found")

	// ErrBarOrdering indicates corrupted input: bars out of order or
	// duplicated. Always fatal.
	ErrBarOrdering = errors.New("bar ordering violation")

	// ErrFeatureMissing is a per-bar lookup miss. Recoverable: the bar
	// is treated as Hold unless strict mode is set.
	ErrFeatureMissing = errors.New("feature missing for bar")

	// ErrDecisionProvider wraps a decision provider failure or a
	// malformed decision. Recoverable unless strict mode is set.
	ErrDecisionProvider = errors.New("decision provider failure")

	// ErrInvalidConfig is returned when the run configuration fails
	// validation before the run starts.
	ErrInvalidConfig = errors.New("invalid run config")
)
