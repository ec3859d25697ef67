package world

import "math"

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two points in km.
func haversineKm(a, b Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// flatDistanceM approximates ground distance in meters for short ranges
// (obstacle checks, district proximity) using 111km per degree.
func flatDistanceM(a, b Position) float64 {
	return math.Hypot((a.Lat-b.Lat)*111000, (a.Lon-b.Lon)*111000)
}

// lerpPos interpolates linearly between two positions, including depth. This
// is deliberately the straight-line path, not the rendered street curve.
func lerpPos(a, b Position, t float64) Position {
	return Position{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
		Alt: a.Alt + (b.Alt-a.Alt)*t,
	}
}

// headingDeg is the bearing of b from a in degrees.
func headingDeg(a, b Position) float64 {
	return math.Atan2(b.Lon-a.Lon, b.Lat-a.Lat) * 180 / math.Pi
}
