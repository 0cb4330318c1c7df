package gazetteer

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// dedupe drops a place when a larger place with the same name lies in the same geohash cell.
// kept must already be sorted largest first.
func dedupe(kept []candidate, precision int) ([]candidate, int) {
	seen := make(map[string]bool)
	res := kept[:0:0]
	for _, c := range kept {
		key := c.record.Name + "|" + geohash.EncodeWithPrecision(c.lat, c.lon, precision)
		if seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, c)
	}
	return res, len(kept) - len(res)
}

// declutter keeps, largest first, each place of at least minPopulation that is further
// than radius from every place already kept.
func declutter(kept []candidate, radius float64, minPopulation int64) ([]candidate, int) {
	var res []candidate
	for _, c := range kept {
		if c.record.Population < minPopulation {
			continue
		}
		isolated := true
		for _, k := range res {
			if math.Hypot(c.record.X-k.record.X, c.record.Y-k.record.Y) <= radius {
				isolated = false
				break
			}
		}
		if isolated {
			res = append(res, c)
		}
	}
	return res, len(kept) - len(res)
}
