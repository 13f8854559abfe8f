package physics

// LatLon is a position in decimal degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PointInPolygon reports whether p lies inside the polygon using ray
// casting on plain lat/lon. Good enough for advisory areas that do not
// straddle the antimeridian.
func PointInPolygon(p LatLon, polygon []LatLon) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := range polygon {
		a, b := polygon[i], polygon[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLon := (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lon
			if p.Lon < crossLon {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// RouteSamples returns points along the straight line from a to b spaced
// no more than stepNM apart, including both ends
func RouteSamples(a, b LatLon, stepNM float64) []LatLon {
	dist := DistanceNM(a.Lat, a.Lon, b.Lat, b.Lon)
	steps := 1
	if stepNM > 0 && dist > stepNM {
		steps = int(dist/stepNM) + 1
	}

	points := make([]LatLon, 0, steps+1)
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		points = append(points, LatLon{
			Lat: a.Lat + (b.Lat-a.Lat)*f,
			Lon: a.Lon + (b.Lon-a.Lon)*f,
		})
	}
	return points
}

// RouteIntersects reports whether any sampled point of the route falls
// inside the polygon
func RouteIntersects(a, b LatLon, polygon []LatLon, stepNM float64) bool {
	for _, p := range RouteSamples(a, b, stepNM) {
		if PointInPolygon(p, polygon) {
			return true
		}
	}
	return false
}
