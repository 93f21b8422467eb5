package cost

import (
	"hash/fnv"
	"math/rand"

	"github.com/steelroute/rakeflow/core/rng"
)

// maxDelayHours caps the predicted pre-berthing delay at three days.
const maxDelayHours = 72.0

// DelayEstimator predicts the inherent pre-berthing delay for a vessel at a
// port, in days. The prediction is a stand-in for a congestion model: it is
// a deterministic function of (vessel, port, root seed), so identical inputs
// always produce identical schedules.
type DelayEstimator struct {
	src rng.Source
}

// NewDelayEstimator builds an estimator tied to the run's seed source.
func NewDelayEstimator(src rng.Source) *DelayEstimator {
	return &DelayEstimator{src: src}
}

// PredictDelayDays returns the predicted delay in days for the pair,
// in [0, 3].
func (e *DelayEstimator) PredictDelayDays(vesselID, portID string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(vesselID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(portID))
	pairSeed := e.src.PhaseSeed("eta-delay") ^ int64(h.Sum64()&0x7fffffffffffffff)
	if pairSeed == 0 {
		pairSeed = 1
	}
	r := rand.New(rand.NewSource(pairSeed))

	// Weather and congestion pseudo-features, same shape as the historical
	// delay distribution the estimator stands in for.
	weather := 0.1 + 0.7*r.Float64()
	congestion := 0.2 + 0.5*r.Float64()
	hours := (weather*2 + congestion*3) * 8
	if hours < 0 {
		hours = 0
	}
	if hours > maxDelayHours {
		hours = maxDelayHours
	}
	return hours / 24.0
}
