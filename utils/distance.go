package utils

import "math"

const earthRadiusKm = 6371.0

// HasCoordinates reports whether both components of a point are present.
func HasCoordinates(lat, lng *float64) bool {
	return lat != nil && lng != nil
}

// DistanceKm returns the haversine great-circle distance between two points.
// It returns 0 when either point is missing; callers must read 0 as "unknown",
// not "co-located", and check HasCoordinates first when the difference matters.
func DistanceKm(lat1, lng1, lat2, lng2 *float64) float64 {
	if !HasCoordinates(lat1, lng1) || !HasCoordinates(lat2, lng2) {
		return 0
	}
	return haversine(*lat1, *lng1, *lat2, *lng2)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
