package runner

import "time"

// StartOffsets spreads users linearly over the ramp-up window.
// User i starts floor(i / (users/rampUp) * 1000) ms after test start;
// a zero ramp-up starts everyone at once.
func StartOffsets(users, rampUpSeconds int) []time.Duration {
	if users < 1 {
		return nil
	}
	offsets := make([]time.Duration, users)
	if rampUpSeconds <= 0 {
		return offsets
	}
	for i := range offsets {
		ms := int64(i) * int64(rampUpSeconds) * 1000 / int64(users)
		offsets[i] = time.Duration(ms) * time.Millisecond
	}
	return offsets
}
