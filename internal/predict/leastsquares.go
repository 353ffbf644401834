package predict

import (
	"fmt"
	"math"
)

// ridgeLambda stabilizes the normal equations when one-hot columns are
// collinear, which happens whenever a team or venue appears only once.
const ridgeLambda = 1e-6

// solveLeastSquares fits w minimizing ||Xw - y||^2 via the normal
// equations with a small ridge term, solved by Gaussian elimination
// with partial pivoting.
func solveLeastSquares(features [][]float64, targets []float64) ([]float64, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	d := len(features[0])

	// A = X'X + lambda*I, b = X'y
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d)
		a[i][i] = ridgeLambda
	}
	b := make([]float64, d)
	for i, x := range features {
		y := targets[i]
		for r := 0; r < d; r++ {
			b[r] += x[r] * y
			for c := 0; c < d; c++ {
				a[r][c] += x[r] * x[c]
			}
		}
	}

	// Gaussian elimination with partial pivoting
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < d; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < d; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	w := make([]float64, d)
	for r := d - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < d; c++ {
			sum -= a[r][c] * w[c]
		}
		w[r] = sum / a[r][r]
	}
	return w, nil
}

// rmse is the root mean squared error of the fitted weights over the
// training samples.
func rmse(w []float64, features [][]float64, targets []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	sum := 0.0
	for i, x := range features {
		diff := dot(w, x) - targets[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(features)))
}
