package specs

import (
	"math"
	"strings"
)

// numericTolerance is the inclusive relative-difference band within which two
// numeric attribute values count as matching.
const numericTolerance = 0.10

// Match scores how many of the required attributes the candidate satisfies,
// as a percentage in [0, 100] rounded to two decimals.
//
// Numeric attributes match when |candidate-required|/candidate stays within
// the tolerance band. A zero candidate numeric is never compared, but the key
// still counts in the denominator. Everything else compares by
// case-insensitive textual form. An empty required spec scores 0.
func Match(required, candidate Spec) float64 {
	if len(required) == 0 {
		return 0
	}

	total := len(required)
	matched := 0

	for key, req := range required {
		cand, ok := candidate[key]
		if !ok {
			continue
		}

		if req.IsNumeric() && cand.IsNumeric() {
			if cand.Float() == 0 {
				continue
			}
			diff := math.Abs(cand.Float()-req.Float()) / cand.Float()
			if diff <= numericTolerance {
				matched++
			}
			continue
		}

		if strings.EqualFold(req.String(), cand.String()) {
			matched++
		}
	}

	return Round2(100 * float64(matched) / float64(total))
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
