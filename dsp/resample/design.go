package resample

import "math"

// designPolyphase builds a lowpass prototype at the upsampled rate and
// splits it into up branches. The prototype is scaled so each branch has
// unity DC gain. The length is odd so the centre tap sits on a sample.
func designPolyphase(up, down int, p profile) ([][]float64, int) {
	nTaps := p.tapsPerPhase*up + 1
	fc := 0.5 / float64(max(up, down)) * p.cutoffScale
	center := 0.5 * float64(nTaps-1)

	taps := make([]float64, nTaps)
	var sum float64
	for n := range taps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiser(n, nTaps, p.kaiserBeta)
		sum += taps[n]
	}

	scale := float64(up) / sum
	phases := make([][]float64, up)
	for ph := range phases {
		branch := make([]float64, 0, (nTaps-ph+up-1)/up)
		for i := ph; i < nTaps; i += up {
			branch = append(branch, taps[i]*scale)
		}
		phases[ph] = branch
	}

	return phases, nTaps
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 evaluates the power series of the zeroth-order modified Bessel
// function of the first kind.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 64; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
