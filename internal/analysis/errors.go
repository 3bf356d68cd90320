// SPDX-License-Identifier: MIT
package analysis

import "errors"

// Configuration errors reported by New and Process. Callers match them with
// errors.Is; the returned errors wrap them with the offending values.
var (
	ErrInvalidConfig   = errors.New("invalid estimator configuration")
	ErrTooManyChannels = errors.New("too many input channels")
	ErrScratchTooSmall = errors.New("scratch buffer too small")
	ErrInvalidInterval = errors.New("sample interval must be positive")
	ErrNilOutput       = errors.New("output slot is nil")
)
