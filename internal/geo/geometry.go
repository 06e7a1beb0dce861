// Package geo provides the small geometry and projection toolkit the
// advisory pipeline needs: GeoJSON polygon decoding (zone cutlines arrive
// from PostGIS as ST_AsGeoJSON output), point-in-polygon tests for raster
// cutline masking, and coordinate transforms between the coordinate
// systems SFMS exchanges.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a coordinate pair in some CRS. X is easting/longitude,
// Y is northing/latitude.
type Point struct {
	X float64
	Y float64
}

// Ring is a closed linear ring. The closing vertex may be present or
// absent; Contains handles both.
type Ring []Point

// Polygon is one exterior ring followed by zero or more interior rings
// (holes), matching GeoJSON ring ordering.
type Polygon []Ring

// MultiPolygon is a collection of polygons treated as one geometry.
type MultiPolygon []Polygon

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box encloses no area.
func (b Bounds) Empty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY
}

// Intersect returns the overlap of two boxes; the result may be Empty.
func (b Bounds) Intersect(o Bounds) Bounds {
	return Bounds{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
	}
}

// Bounds returns the bounding box of the exterior rings.
func (mp MultiPolygon) Bounds() Bounds {
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		for _, pt := range poly[0] {
			b.MinX = math.Min(b.MinX, pt.X)
			b.MinY = math.Min(b.MinY, pt.Y)
			b.MaxX = math.Max(b.MaxX, pt.X)
			b.MaxY = math.Max(b.MaxY, pt.Y)
		}
	}
	return b
}

// Contains reports whether the point lies inside the geometry. A point is
// inside when it falls within any polygon's exterior ring and outside all
// of that polygon's holes (even-odd rule across the polygon's rings).
func (mp MultiPolygon) Contains(p Point) bool {
	for _, poly := range mp {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

// Contains applies the even-odd rule across all rings, so holes flip the
// crossing parity and exclude the point.
func (poly Polygon) Contains(p Point) bool {
	inside := false
	for _, ring := range poly {
		if ring.contains(p) {
			inside = !inside
		}
	}
	return inside
}

// contains is a standard ray cast: count edges crossing a horizontal ray
// from p toward +X.
func (r Ring) contains(p Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Reproject transforms every vertex into the target CRS.
func (mp MultiPolygon) Reproject(from, to CRS) (MultiPolygon, error) {
	if from == to {
		return mp, nil
	}
	out := make(MultiPolygon, len(mp))
	for i, poly := range mp {
		out[i] = make(Polygon, len(poly))
		for j, ring := range poly {
			out[i][j] = make(Ring, len(ring))
			for k, pt := range ring {
				x, y, err := Transform(pt.X, pt.Y, from, to)
				if err != nil {
					return nil, err
				}
				out[i][j][k] = Point{X: x, Y: y}
			}
		}
	}
	return out, nil
}

// geoJSONGeometry mirrors the subset of RFC 7946 geometry objects PostGIS
// emits for zone shapes. Coordinates stay raw until the type is known.
type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// UnmarshalGeoJSON decodes a GeoJSON Polygon or MultiPolygon geometry
// object into a MultiPolygon. Polygons are promoted to a single-element
// MultiPolygon so callers handle one shape.
func UnmarshalGeoJSON(data []byte) (MultiPolygon, error) {
	var g geoJSONGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode geojson geometry: %w", err)
	}

	switch g.Type {
	case "Polygon":
		var coords [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return MultiPolygon{polygonFromCoords(coords)}, nil
	case "MultiPolygon":
		var coords [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		mp := make(MultiPolygon, len(coords))
		for i, poly := range coords {
			mp[i] = polygonFromCoords(poly)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geojson geometry type %q", g.Type)
	}
}

func polygonFromCoords(coords [][][2]float64) Polygon {
	poly := make(Polygon, len(coords))
	for i, ring := range coords {
		poly[i] = make(Ring, len(ring))
		for j, c := range ring {
			poly[i][j] = Point{X: c[0], Y: c[1]}
		}
	}
	return poly
}
