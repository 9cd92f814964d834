package series

import (
	"math"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

const (
	// fallbackMax is the upper bound used when there is nothing to scale to.
	fallbackMax = 100000
	// paddingRatio widens the observed span on both sides.
	paddingRatio = 0.1
	// maxTicks caps the axis; the step grows tenfold until it fits.
	maxTicks = 100
)

// EstimateRange computes a padded y-axis range snapped to multiples of step,
// with ticks at every step between Min and Max inclusive. Non-finite and
// non-positive values are ignored. With no usable values it returns
// {0, 100000} and no ticks. A step <= 0 is derived from the data magnitude.
func EstimateRange(values []float64, step float64) domain.PriceRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return domain.PriceRange{Min: 0, Max: fallbackMax}
	}

	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = DefaultStep(hi)
	}

	pad := (hi - lo) * paddingRatio
	var kLo, kHi int64
	for {
		kLo = int64(math.Floor((lo - pad) / step))
		kHi = int64(math.Ceil((hi + pad) / step))
		if kLo < 0 {
			kLo = 0
		}
		if kHi == kLo {
			kHi++
		}
		if kHi-kLo <= maxTicks {
			break
		}
		step *= 10
	}

	ticks := make([]float64, 0, kHi-kLo+1)
	for k := kLo; k <= kHi; k++ {
		ticks = append(ticks, float64(k)*step)
	}
	return domain.PriceRange{
		Min:   float64(kLo) * step,
		Max:   float64(kHi) * step,
		Ticks: ticks,
	}
}

// DefaultStep returns one tenth of the order of magnitude of ref, e.g. 1000
// for 60000 and 0.01 for 0.5.
func DefaultStep(ref float64) float64 {
	if ref <= 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return 1
	}
	return math.Pow(10, math.Floor(math.Log10(ref))-1)
}
