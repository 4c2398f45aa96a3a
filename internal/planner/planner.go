// Package planner turns a source duration and a requested clip length into an
// ordered sequence of clip windows.
package planner

import (
	"math"

	"clipcast/internal/types"
	apperrors "clipcast/pkg/errors"
)

// Plan computes the clip windows for a source of totalDuration seconds cut
// into requestedSeconds-long pieces. The final window is truncated to the
// remaining footage, never padded; a sub-second positive remainder still
// yields a final clip.
func Plan(totalDuration float64, requestedSeconds int) ([]types.ClipWindow, error) {
	if requestedSeconds <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "clip length must be a positive number of seconds")
	}
	if totalDuration <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "source duration must be positive")
	}

	requested := float64(requestedSeconds)
	numClips := int(math.Ceil(totalDuration / requested))

	windows := make([]types.ClipWindow, 0, numClips)
	for i := 0; i < numClips; i++ {
		start := float64(i) * requested
		length := requested
		if remaining := totalDuration - start; remaining < length {
			length = remaining
		}
		windows = append(windows, types.ClipWindow{
			Index:  i,
			Start:  start,
			Length: length,
		})
	}
	return windows, nil
}
