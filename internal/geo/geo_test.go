package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceOneDegreeOfLongitudeAtEquator(t *testing.T) {
	d, err := Distance(Point{0, 0}, Point{0, 1})
	require.NoError(t, err)
	assert.InEpsilon(t, 111_195.0, d, 0.01)
}

func TestDistanceIsSymmetricAndZeroOnIdentity(t *testing.T) {
	points := []Point{
		{40.4462, -79.9959},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{89.9, 179.9},
	}
	for _, a := range points {
		self, err := Distance(a, a)
		require.NoError(t, err)
		assert.Zero(t, self)
		for _, b := range points {
			ab, err := Distance(a, b)
			require.NoError(t, err)
			ba, err := Distance(b, a)
			require.NoError(t, err)
			assert.InDelta(t, ab, ba, 1e-6)
		}
	}
}

func TestWithinThresholds(t *testing.T) {
	origin := Point{12.9716, 77.5946}
	// ~0.0001 degrees of latitude is ~11.1 m
	near := Point{12.9717, 77.5946}

	d, ok, err := Within(origin, near, 20)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 11.1, d, 0.2)

	_, ok, err = Within(origin, near, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithinBoundaryIsInclusive(t *testing.T) {
	a, b := Point{0, 0}, Point{0, 1}
	d, err := Distance(a, b)
	require.NoError(t, err)
	_, ok, err := Within(a, b, d)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInvalidCoordinates(t *testing.T) {
	bad := []Point{
		{91, 0},
		{-90.0001, 0},
		{0, 180.5},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range bad {
		_, err := Distance(Point{0, 0}, p)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "%+v", p)
		_, err = Distance(p, Point{0, 0})
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "%+v", p)
	}
	assert.NoError(t, Point{90, -180}.Validate())
}
