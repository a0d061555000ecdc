package center

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// SortByDistance orders centers by distance from the given point. Centers
// without coordinates sort last, keeping their relative order.
func SortByDistance(centers []Center, lat, lon float64) {
	sort.SliceStable(centers, func(i, j int) bool {
		di, iOK := distanceTo(centers[i], lat, lon)
		dj, jOK := distanceTo(centers[j], lat, lon)
		if iOK != jOK {
			return iOK
		}
		return di < dj
	})
}

func distanceTo(c Center, lat, lon float64) (float64, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, false
	}
	return DistanceKm(lat, lon, *c.Latitude, *c.Longitude), true
}
