package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat(t *testing.T) {
	assert.Equal(t, "1100", Float(1100.0, 2))
	assert.Equal(t, "1097.9", Float(1097.90, 2))
	assert.Equal(t, "0.0004", Float(0.0004, 4))
	assert.Equal(t, "-20.5", Float(-20.50, 2))
	assert.Equal(t, "3", Float(3.14, 0))
}

func TestPct(t *testing.T) {
	assert.Equal(t, "+10.00%", Pct(10))
	assert.Equal(t, "-20.00%", Pct(-20))
	assert.Equal(t, "0.00%", Pct(0))
	assert.Equal(t, "+3.13%", Pct(3.125))
}
