package geo

import (
	"errors"
	"fmt"
	"math"
)

// CRS identifies a coordinate reference system by EPSG code.
type CRS int

// The three systems SFMS actually exchanges. Rasters and zone geometries
// arrive in BC Albers; web-facing layers use lon/lat or web mercator.
const (
	EPSG4326 CRS = 4326 // WGS-84 lon/lat (degrees)
	EPSG3857 CRS = 3857 // web mercator (metres)
	EPSG3005 CRS = 3005 // BC Albers equal-area (metres)
)

// ErrUnsupportedCRS is returned when a coordinate transform is requested
// for an EPSG code outside the closed registry above.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(c))
}

// Valid reports whether the CRS is one of the supported systems.
func (c CRS) Valid() bool {
	switch c {
	case EPSG4326, EPSG3857, EPSG3005:
		return true
	}
	return false
}

// GRS80 ellipsoid constants (shared by WGS-84 for our precision needs).
const (
	semiMajor     = 6378137.0
	flattening    = 1.0 / 298.257222101
	eccentricity2 = flattening * (2 - flattening)
)

// BC Albers projection parameters (EPSG:3005).
const (
	bcAlbersLat0  = 45.0   // latitude of origin
	bcAlbersLon0  = -126.0 // central meridian
	bcAlbersStdP1 = 50.0   // first standard parallel
	bcAlbersStdP2 = 58.5   // second standard parallel
	bcAlbersFE    = 1000000.0
	bcAlbersFN    = 0.0
)

// Transform converts a coordinate pair between two supported systems.
// Transforms route through lon/lat, so any supported pair composes.
func Transform(x, y float64, from, to CRS) (float64, float64, error) {
	if from == to {
		return x, y, nil
	}
	lon, lat, err := toLonLat(x, y, from)
	if err != nil {
		return 0, 0, err
	}
	return fromLonLat(lon, lat, to)
}

func toLonLat(x, y float64, from CRS) (lon, lat float64, err error) {
	switch from {
	case EPSG4326:
		return x, y, nil
	case EPSG3857:
		lon = x / semiMajor * 180 / math.Pi
		lat = (2*math.Atan(math.Exp(y/semiMajor)) - math.Pi/2) * 180 / math.Pi
		return lon, lat, nil
	case EPSG3005:
		lon, lat = bcAlbers.inverse(x, y)
		return lon, lat, nil
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedCRS, from)
}

func fromLonLat(lon, lat float64, to CRS) (x, y float64, err error) {
	switch to {
	case EPSG4326:
		return lon, lat, nil
	case EPSG3857:
		x = semiMajor * lon * math.Pi / 180
		y = semiMajor * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
		return x, y, nil
	case EPSG3005:
		x, y = bcAlbers.forward(lon, lat)
		return x, y, nil
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedCRS, to)
}

// albersProjection holds precomputed constants for an ellipsoidal Albers
// equal-area conic projection (Snyder, "Map Projections: A Working Manual").
type albersProjection struct {
	lon0, n, c, rho0, fe, fn float64
}

var bcAlbers = newAlbers(bcAlbersLat0, bcAlbersLon0, bcAlbersStdP1, bcAlbersStdP2, bcAlbersFE, bcAlbersFN)

func newAlbers(lat0, lon0, stdP1, stdP2, fe, fn float64) albersProjection {
	phi0 := lat0 * math.Pi / 180
	phi1 := stdP1 * math.Pi / 180
	phi2 := stdP2 * math.Pi / 180

	m1 := albersM(phi1)
	m2 := albersM(phi2)
	q0 := albersQ(phi0)
	q1 := albersQ(phi1)
	q2 := albersQ(phi2)

	n := (m1*m1 - m2*m2) / (q2 - q1)
	c := m1*m1 + n*q1

	return albersProjection{
		lon0: lon0 * math.Pi / 180,
		n:    n,
		c:    c,
		rho0: semiMajor * math.Sqrt(c-n*q0) / n,
		fe:   fe,
		fn:   fn,
	}
}

func albersM(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-eccentricity2*s*s)
}

func albersQ(phi float64) float64 {
	e := math.Sqrt(eccentricity2)
	s := math.Sin(phi)
	return (1 - eccentricity2) * (s/(1-eccentricity2*s*s) - (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
}

func (p albersProjection) forward(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180

	q := albersQ(phi)
	rho := semiMajor * math.Sqrt(p.c-p.n*q) / p.n
	theta := p.n * (lam - p.lon0)

	x = p.fe + rho*math.Sin(theta)
	y = p.fn + p.rho0 - rho*math.Cos(theta)
	return x, y
}

func (p albersProjection) inverse(x, y float64) (lon, lat float64) {
	xp := x - p.fe
	yp := p.rho0 - (y - p.fn)

	rho := math.Hypot(xp, yp)
	theta := math.Atan2(xp, yp)
	q := (p.c - rho*rho*p.n*p.n/(semiMajor*semiMajor)) / p.n

	// Iterate Snyder's latitude series; converges in a handful of steps.
	e := math.Sqrt(eccentricity2)
	phi := math.Asin(q / 2)
	for i := 0; i < 15; i++ {
		s := math.Sin(phi)
		denom := 1 - eccentricity2*s*s
		next := phi + (denom*denom/(2*math.Cos(phi)))*
			(q/(1-eccentricity2)-s/denom+(1/(2*e))*math.Log((1-e*s)/(1+e*s)))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	lon = (p.lon0 + theta/p.n) * 180 / math.Pi
	lat = phi * 180 / math.Pi
	return lon, lat
}
