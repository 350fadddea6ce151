package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedTime(t *testing.T) {
	instant := time.Date(2019, 12, 31, 23, 59, 0, 0, time.UTC)
	var clock TimeAPI = FixedTime(instant)
	require.Equal(t, instant, clock.Now())
	require.Equal(t, 2019, Year(clock))
}

func TestStandardTime(t *testing.T) {
	before := time.Now()
	now := StandardTime{}.Now()
	require.False(t, now.Before(before))
}
