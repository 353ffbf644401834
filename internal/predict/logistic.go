package predict

import "math"

const (
	logisticIters = 400
	logisticLR    = 0.15
)

// trainLogistic fits weights by gradient descent on log-loss. Samples
// must carry a leading bias feature of 1.0.
func trainLogistic(features [][]float64, labels []float64) []float64 {
	if len(features) == 0 {
		return nil
	}
	w := make([]float64, len(features[0]))
	n := float64(len(features))
	for iter := 0; iter < logisticIters; iter++ {
		for i, x := range features {
			p := sigmoid(dot(w, x))
			// gradient of -[y*log(p)+(1-y)*log(1-p)] is (p-y)*x
			err := p - labels[i]
			for k := range w {
				w[k] -= logisticLR * err * x[k] / n
			}
		}
	}
	return w
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// trainingAccuracy is the fraction of samples the fitted weights
// classify correctly at the 0.5 threshold.
func trainingAccuracy(w []float64, features [][]float64, labels []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	correct := 0
	for i, x := range features {
		pred := 0.0
		if sigmoid(dot(w, x)) >= 0.5 {
			pred = 1.0
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(features))
}
