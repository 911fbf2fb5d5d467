package core

// Classifier is the black-box neural-network inference contract: a pure
// function from a model.input_size-length waveform to an opaque
// label/vector. Implementations own no state the orchestrator mutates.
type Classifier interface {
	Classify(waveform []float64) ([]float64, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface, for
// tests and for trivially wrapping an external inference call.
type ClassifierFunc func([]float64) ([]float64, error)

func (f ClassifierFunc) Classify(waveform []float64) ([]float64, error) { return f(waveform) }
