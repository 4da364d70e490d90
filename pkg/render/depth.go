package render

import (
	"github.com/montanaflynn/stats"
)

// minDepthSpan is the narrowest depth window mapped across [0, 1], in
// screen-scaled units. Flat structures would otherwise get over-sharp
// contrast from a few pixels of depth variation.
const minDepthSpan = 64.0

// normalizeDepths maps visible-segment depths onto [0, 1], nearer
// segments higher. The window is mean ± 2σ over the inputs, widened to
// at least minDepthSpan by symmetric expansion; a degenerate spread
// falls back to the min/max range and ultimately to a uniform 0.5.
func normalizeDepths(depths []float64) []float64 {
	if len(depths) == 0 {
		return nil
	}
	out := make([]float64, len(depths))
	if len(depths) == 1 {
		out[0] = 0.5
		return out
	}

	data := stats.Float64Data(depths)
	var center, span float64
	mean, merr := stats.Mean(data)
	sd, serr := stats.StandardDeviationSample(data)
	if merr == nil && serr == nil && sd > 1e-9 {
		center, span = mean, 4*sd
	} else {
		lo, _ := stats.Min(data)
		hi, _ := stats.Max(data)
		center, span = (lo+hi)/2, hi-lo
	}
	if span < minDepthSpan {
		span = minDepthSpan
	}

	lo := center - span/2
	for i, d := range depths {
		v := (d - lo) / span
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}
