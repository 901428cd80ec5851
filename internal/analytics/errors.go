package analytics

import "errors"

// ErrUnknownTimeframe is returned when a timeframe selector is not one of
// the supported values.
var ErrUnknownTimeframe = errors.New("unknown timeframe")
