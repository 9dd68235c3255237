package main

import (
	"context"
	"errors"

	"github.com/theodtasia/sna-recommendation-system/internal/config"
	"github.com/theodtasia/sna-recommendation-system/internal/dataset"
	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
)

// Exit codes
const (
	ExitSuccess      = 0   // Success
	ExitError        = 1   // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2   // Configuration error (missing data dir, invalid day limit)
	ExitDataError    = 3   // Data error (no day graphs, malformed graph files, day out of range)
	ExitCacheMissing = 4   // Test edges requested for a day that was never built
	ExitInterrupted  = 130 // Canceled by SIGINT
)

// exitCode maps an error to the exit code reported for it.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, config.ErrDataDirMissing), errors.Is(err, config.ErrInvalidDayLimit):
		return ExitConfigError
	case errors.Is(err, edgecache.ErrTestEdgesNotFound):
		return ExitCacheMissing
	case errors.Is(err, source.ErrNoGraphs), errors.Is(err, source.ErrDayOutOfRange),
		errors.Is(err, dataset.ErrExhausted):
		return ExitDataError
	default:
		return ExitError
	}
}
