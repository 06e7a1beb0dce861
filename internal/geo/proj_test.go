package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_SameCRSIsIdentity(t *testing.T) {
	x, y, err := Transform(1223338.0, 471773.0, EPSG3005, EPSG3005)
	require.NoError(t, err)
	assert.Equal(t, 1223338.0, x)
	assert.Equal(t, 471773.0, y)
}

func TestTransform_BCAlbersRoundTrip(t *testing.T) {
	// Interior BC coordinates in lon/lat.
	cases := []struct {
		name     string
		lon, lat float64
	}{
		{"prince george", -122.75, 53.92},
		{"kamloops", -120.33, 50.67},
		{"fort nelson", -122.70, 58.81},
		{"victoria", -123.37, 48.43},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y, err := Transform(tc.lon, tc.lat, EPSG4326, EPSG3005)
			require.NoError(t, err)

			lon, lat, err := Transform(x, y, EPSG3005, EPSG4326)
			require.NoError(t, err)

			assert.InDelta(t, tc.lon, lon, 1e-7)
			assert.InDelta(t, tc.lat, lat, 1e-7)
		})
	}
}

func TestTransform_BCAlbersKnownPoint(t *testing.T) {
	// The projection origin (45N 126W) maps to the false easting/northing.
	x, y, err := Transform(-126.0, 45.0, EPSG4326, EPSG3005)
	require.NoError(t, err)
	assert.InDelta(t, 1000000.0, x, 0.01)
	assert.InDelta(t, 0.0, y, 0.01)
}

func TestTransform_WebMercatorRoundTrip(t *testing.T) {
	x, y, err := Transform(-123.0, 49.25, EPSG4326, EPSG3857)
	require.NoError(t, err)

	lon, lat, err := Transform(x, y, EPSG3857, EPSG4326)
	require.NoError(t, err)
	assert.InDelta(t, -123.0, lon, 1e-9)
	assert.InDelta(t, 49.25, lat, 1e-9)
}

func TestTransform_AlbersToMercatorComposes(t *testing.T) {
	// Route through lon/lat: direct two-hop result must match manual hops.
	x3005, y3005, err := Transform(-121.5, 51.0, EPSG4326, EPSG3005)
	require.NoError(t, err)

	gotX, gotY, err := Transform(x3005, y3005, EPSG3005, EPSG3857)
	require.NoError(t, err)

	wantX, wantY, err := Transform(-121.5, 51.0, EPSG4326, EPSG3857)
	require.NoError(t, err)

	assert.InDelta(t, wantX, gotX, 0.001)
	assert.InDelta(t, wantY, gotY, 0.001)
}

func TestTransform_UnsupportedCRS(t *testing.T) {
	_, _, err := Transform(0, 0, CRS(26910), EPSG4326)
	assert.ErrorIs(t, err, ErrUnsupportedCRS)

	_, _, err = Transform(0, 0, EPSG4326, CRS(0))
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

func TestCRS_Valid(t *testing.T) {
	assert.True(t, EPSG4326.Valid())
	assert.True(t, EPSG3005.Valid())
	assert.False(t, CRS(9999).Valid())
}
