package statx

// KahanSum accumulates values with compensated summation, the way the
// length-weighted block score mean is computed in the peak scorer for
// numerical stability over many small log-probabilities.
type KahanSum struct {
	sum float64
	c   float64
}

// Add folds v into the running sum.
func (k *KahanSum) Add(v float64) {
	t := k.sum + v
	if abs(k.sum) >= abs(v) {
		k.c += (k.sum - t) + v
	} else {
		k.c += (v - t) + k.sum
	}
	k.sum = t
}

// Sum returns the compensated total accumulated so far.
func (k *KahanSum) Sum() float64 { return k.sum + k.c }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
