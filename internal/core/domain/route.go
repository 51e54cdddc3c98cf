package domain

// RouteQuote is a driving route between two points.
type RouteQuote struct {
	DistanceKm float64      `json:"distance_km"`
	EtaMinutes int          `json:"eta_minutes"`
	Polyline   [][2]float64 `json:"polyline"`
}

// FromLngLat converts a GeoJSON coordinate sequence ([lng, lat] pairs) into
// latitude-first pairs. Order and length are preserved. Entries with fewer
// than two components are skipped and extra components (altitude) dropped.
func FromLngLat(coords [][]float64) [][2]float64 {
	out := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		out = append(out, [2]float64{c[1], c[0]})
	}
	return out
}
