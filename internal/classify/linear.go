// Package classify provides one concrete Classifier: an affine layer
// whose weights are loaded from disk with gonum/mat, making the
// black-box classifier contract (core.Classifier) runnable standalone.
// This does not change the contract; it is one possible implementation
// among externally supplied ones.
package classify

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/es-ude/denspp.online/internal/core"
)

// LinearClassifier applies y = W*x + b, where W and the bias column are
// both stored in a single (outputs x (inputSize+1)) matrix serialized
// with gonum/mat's binary format; the last column is the bias.
type LinearClassifier struct {
	weights *mat.Dense
	bias    []float64
}

// Load reads a weight matrix from path and validates it against
// inputSize. Failures here are ClassifierError{Stage: "load"}, fatal at
// startup.
func Load(path string, inputSize int) (*LinearClassifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.ClassifierError{Stage: "load", Err: err}
	}
	defer f.Close()

	var raw mat.Dense
	if _, err := raw.UnmarshalBinaryFrom(f); err != nil {
		return nil, &core.ClassifierError{Stage: "load", Err: err}
	}
	rows, cols := raw.Dims()
	if cols != inputSize+1 {
		return nil, &core.ClassifierError{
			Stage: "load",
			Err:   fmt.Errorf("expected %d input columns plus bias, got %d", inputSize, cols-1),
		}
	}
	bias := make([]float64, rows)
	for r := 0; r < rows; r++ {
		bias[r] = raw.At(r, cols-1)
	}
	weights := mat.DenseCopyOf(raw.Slice(0, rows, 0, cols-1))
	return &LinearClassifier{weights: weights, bias: bias}, nil
}

// Classify implements core.Classifier.
func (c *LinearClassifier) Classify(waveform []float64) ([]float64, error) {
	rows, cols := c.weights.Dims()
	if len(waveform) != cols {
		return nil, &core.ClassifierError{
			Stage: "infer",
			Err:   fmt.Errorf("expected %d inputs, got %d", cols, len(waveform)),
		}
	}
	x := mat.NewVecDense(cols, waveform)
	y := mat.NewVecDense(rows, nil)
	y.MulVec(c.weights, x)

	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = y.AtVec(r) + c.bias[r]
	}
	return out, nil
}
