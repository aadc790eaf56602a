package geo

import "math"

// EarthRadiusKm is the mean earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance in kilometers
// between two latitude/longitude pairs given in decimal degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Within reports whether the two points are at most radiusKm apart. It is
// the predicate behind "nearby" celebration filtering.
func Within(radiusKm, lat1, lng1, lat2, lng2 float64) bool {
	return DistanceKm(lat1, lng1, lat2, lng2) <= radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
