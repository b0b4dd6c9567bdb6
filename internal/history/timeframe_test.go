package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe(" 1H ")
	require.NoError(t, err)
	assert.Equal(t, "1h", tf.Key)
	assert.Equal(t, time.Hour, tf.Duration)

	_, err = ParseTimeframe("2h")
	assert.Error(t, err)
}

func TestSupportedTimeframesSorted(t *testing.T) {
	keys := SupportedTimeframes()
	require.NotEmpty(t, keys)
	assert.Contains(t, keys, "1m")
	assert.Contains(t, keys, "1d")
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
}

func TestAlignRange(t *testing.T) {
	tf, _ := ParseTimeframe("1h")
	hour := int64(3600_000)

	start, end := tf.AlignRange(hour+5, 3*hour+999)
	assert.Equal(t, hour, start)
	assert.Equal(t, 3*hour, end)

	// 颠倒的区间被纠正。
	start, end = tf.AlignRange(3*hour, hour)
	assert.Equal(t, hour, start)
	assert.Equal(t, 3*hour, end)
}

func TestExpectedCandles(t *testing.T) {
	tf, _ := ParseTimeframe("1h")
	hour := int64(3600_000)
	assert.Equal(t, int64(3), tf.ExpectedCandles(hour, 3*hour))
	assert.Equal(t, int64(1), tf.ExpectedCandles(hour, hour))
	assert.Equal(t, int64(0), tf.ExpectedCandles(3*hour, hour))
}
