// internal/service/prediction/stats.go

package prediction

import (
	"math"
)

// mean returns the arithmetic mean of values, 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// slope is the ordinary-least-squares slope of values against their index
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}

// rSquared is the coefficient of determination of the least-squares line
// through values, clamped to [0, 1]
func rSquared(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := slope(values)
	avg := mean(values)
	avgX := float64(len(values)-1) / 2
	intercept := avg - m*avgX

	var ssRes, ssTot float64
	for i, y := range values {
		fitted := intercept + m*float64(i)
		ssRes += (y - fitted) * (y - fitted)
		ssTot += (y - avg) * (y - avg)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}

	return clamp01(1 - ssRes/ssTot)
}

// coefficientOfVariation is the population standard deviation over |mean|
func coefficientOfVariation(values []float64) float64 {
	avg := mean(values)
	if avg == 0 {
		return math.Inf(1)
	}

	variance := 0.0
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / math.Abs(avg)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
