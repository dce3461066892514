package projection

import "math"

const (
	// DefaultGrowthWindow is the trailing lookback, in months.
	DefaultGrowthWindow = 3
	// FallbackGrowth is returned whenever the history cannot support an estimate.
	FallbackGrowth = 0.01
)

// TrailingGrowth estimates a constant monthly growth rate from the last
// window+1 valid points of series: (end/start)^(1/window) - 1.
//
// NaN entries are dropped first. Short histories and a non-positive anchor
// return FallbackGrowth instead of an error.
func TrailingGrowth(series []float64, window int) float64 {
	if window <= 0 {
		window = DefaultGrowthWindow
	}

	valid := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < window+1 {
		return FallbackGrowth
	}

	start := valid[len(valid)-window-1]
	end := valid[len(valid)-1]
	if start <= 0 {
		return FallbackGrowth
	}
	return math.Pow(end/start, 1/float64(window)) - 1
}
