package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOffsetsLinear(t *testing.T) {
	offsets := StartOffsets(10, 5)
	require.Len(t, offsets, 10)
	for i, o := range offsets {
		assert.Equal(t, time.Duration(i*500)*time.Millisecond, o)
	}
}

func TestStartOffsetsWithinWindow(t *testing.T) {
	for _, tc := range []struct{ users, rampUp int }{
		{1, 1}, {3, 10}, {7, 3}, {100, 10}, {1000, 7}, {5, 60},
	} {
		offsets := StartOffsets(tc.users, tc.rampUp)
		require.Len(t, offsets, tc.users)
		assert.Equal(t, time.Duration(0), offsets[0])
		for i := 1; i < len(offsets); i++ {
			assert.GreaterOrEqual(t, offsets[i], offsets[i-1], "users=%d rampUp=%d i=%d", tc.users, tc.rampUp, i)
		}
		assert.Less(t, offsets[len(offsets)-1], time.Duration(tc.rampUp)*time.Second)
	}
}

func TestStartOffsetsNoRampUp(t *testing.T) {
	for _, o := range StartOffsets(25, 0) {
		assert.Equal(t, time.Duration(0), o)
	}
}

func TestStartOffsetsFloor(t *testing.T) {
	// 3 users over 1s: 0, floor(333.3), floor(666.6)
	assert.Equal(t, []time.Duration{0, 333 * time.Millisecond, 666 * time.Millisecond}, StartOffsets(3, 1))
	assert.Nil(t, StartOffsets(0, 10))
}
