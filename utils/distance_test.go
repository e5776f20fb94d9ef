package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestDistanceKm(t *testing.T) {
	// Nairobi CBD to Westlands.
	d := DistanceKm(ptr(-1.2864), ptr(36.8172), ptr(-1.2676), ptr(36.8108))
	assert.InDelta(t, 2.2, d, 0.1)

	assert.Zero(t, DistanceKm(ptr(1), ptr(1), ptr(1), ptr(1)))
}

func TestDistanceKm_MissingCoordinates(t *testing.T) {
	assert.Zero(t, DistanceKm(nil, ptr(36.8), ptr(-1.2), ptr(36.8)))
	assert.Zero(t, DistanceKm(ptr(-1.2), ptr(36.8), ptr(-1.2), nil))
	assert.False(t, HasCoordinates(ptr(1), nil))
	assert.True(t, HasCoordinates(ptr(0), ptr(0)))
}
