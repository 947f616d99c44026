// Package track holds static circuit characteristics.
package track

import "strings"

// overtakeDifficulty rates how hard passing is on a 1 (easy) to 10 (near impossible) scale.
// Keys are Ergast circuit identifiers.
var overtakeDifficulty = map[string]float64{
	"monaco":        10,
	"marina_bay":    8,
	"hungaroring":   7,
	"imola":         7,
	"zandvoort":     7,
	"catalunya":     6,
	"suzuka":        6,
	"albert_park":   5,
	"yas_marina":    5,
	"villeneuve":    4,
	"red_bull_ring": 4,
	"americas":      4,
	"jeddah":        4,
	"silverstone":   3,
	"baku":          3,
	"bahrain":       3,
	"interlagos":    3,
	"spa":           2,
	"shanghai":      2,
	"monza":         1,
}

// OvertakeDifficulty returns the rating for a circuit and whether it is known.
func OvertakeDifficulty(circuitID string) (float64, bool) {
	v, ok := overtakeDifficulty[strings.ToLower(strings.TrimSpace(circuitID))]
	return v, ok
}
