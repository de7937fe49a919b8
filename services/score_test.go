package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestNormalizeStyleScore(t *testing.T) {
	// missing score defaults to the middle of the scale
	assert.Equal(t, 50, NormalizeStyleScore(nil))

	// fractions scale to percentages
	assert.Equal(t, 92, NormalizeStyleScore(floatPtr(0.92)))
	assert.Equal(t, 5, NormalizeStyleScore(floatPtr(0.05)))

	// 1-10 ratings scale by ten
	assert.Equal(t, 80, NormalizeStyleScore(floatPtr(8)))
	assert.Equal(t, 100, NormalizeStyleScore(floatPtr(10)))
	assert.Equal(t, 75, NormalizeStyleScore(floatPtr(7.5)))

	// exactly 1 is ambiguous, the fraction branch wins
	assert.Equal(t, 100, NormalizeStyleScore(floatPtr(1)))

	// out of range values clamp
	assert.Equal(t, 100, NormalizeStyleScore(floatPtr(105)))
	assert.Equal(t, 0, NormalizeStyleScore(floatPtr(-3)))
	assert.Equal(t, 42, NormalizeStyleScore(floatPtr(42.4)))
}
