package search

import (
	"golang.org/x/exp/rand"

	"github.com/chewxy/math32"
)

// sampleDirichlet draws n independent symmetric-Dirichlet(alpha) weights,
// used for the optional root noise injection of spec.md §4.6
// (`prior <- (1-eps)*prior + eps*dir(alpha)`). There is no Dirichlet or
// Gamma sampler anywhere in the retrieval pack, so this draws n
// Gamma(alpha, 1) variates via the Marsaglia-Tsang method and normalizes
// them to sum to 1, which is the standard construction of a Dirichlet
// draw from independent Gammas.
func sampleDirichlet(rng *rand.Rand, n int, alpha float32) []float32 {
	samples := make([]float32, n)
	var sum float32
	for i := range samples {
		g := sampleGamma(rng, alpha)
		samples[i] = g
		sum += g
	}
	if sum <= 0 {
		uniform := 1 / float32(n)
		for i := range samples {
			samples[i] = uniform
		}
		return samples
	}
	for i := range samples {
		samples[i] /= sum
	}
	return samples
}

// sampleGamma draws one Gamma(shape, 1) variate via Marsaglia & Tsang's
// 2000 rejection method, boosting shapes below 1 by the standard
// shape+1/U^(1/shape) trick.
func sampleGamma(rng *rand.Rand, shape float32) float32 {
	boost := float32(1)
	if shape < 1 {
		boost = math32.Pow(rng.Float32(), 1/shape)
		shape++
	}
	d := shape - 1.0/3.0
	c := 1 / math32.Sqrt(9*d)
	for {
		var x, v float32
		for {
			x = float32(rng.NormFloat64())
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float32()
		x2 := x * x
		if u < 1-0.0331*x2*x2 {
			return boost * d * v
		}
		if math32.Log(u) < 0.5*x2+d*(1-v+math32.Log(v)) {
			return boost * d * v
		}
	}
}
