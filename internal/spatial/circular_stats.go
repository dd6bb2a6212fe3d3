package spatial

import (
	"math"
)

// CircularMean calculates the mean of circular data (angles in radians)
// weights: optional weights for each angle (can be nil for equal weights)
// Returns mean angle in radians
func CircularMean(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}

	var sumSin, sumCos float64
	if weights == nil {
		for _, angle := range angles {
			sumSin += math.Sin(angle)
			sumCos += math.Cos(angle)
		}
	} else {
		for i, angle := range angles {
			w := 1.0
			if i < len(weights) {
				w = weights[i]
			}
			sumSin += w * math.Sin(angle)
			sumCos += w * math.Cos(angle)
		}
	}

	return math.Atan2(sumSin, sumCos)
}

// MeanResultantLength calculates the mean resultant length (R)
// R ranges from 0 (uniform distribution) to 1 (all angles identical)
func MeanResultantLength(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}

	var sumSin, sumCos, sumWeights float64
	if weights == nil {
		for _, angle := range angles {
			sumSin += math.Sin(angle)
			sumCos += math.Cos(angle)
		}
		sumWeights = float64(len(angles))
	} else {
		for i, angle := range angles {
			w := 1.0
			if i < len(weights) {
				w = weights[i]
			}
			sumSin += w * math.Sin(angle)
			sumCos += w * math.Cos(angle)
			sumWeights += w
		}
	}

	if sumWeights == 0 {
		return 0
	}

	return math.Sqrt(sumSin*sumSin+sumCos*sumCos) / sumWeights
}

// MeanHour calculates the circular mean of hour-of-day values (0-23).
// Hours wrap at midnight, so 23 and 1 average to 0, not 12.
func MeanHour(hours []int) float64 {
	if len(hours) == 0 {
		return 0
	}

	angles := make([]float64, len(hours))
	for i, h := range hours {
		angles[i] = float64(h) / 24.0 * 2 * math.Pi
	}

	mean := CircularMean(angles, nil)
	meanHour := mean / (2 * math.Pi) * 24.0
	if meanHour < 0 {
		meanHour += 24
	}
	return meanHour
}
