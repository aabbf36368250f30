// Package transform provides the bijections between a random variable's
// natural (constrained) support and an unconstrained real representation.
//
// Gradient-based samplers explore latent variables in unconstrained space;
// a transform supplies the forward and inverse maps, the log absolute
// Jacobian determinant for the change-of-variables correction, and the
// adjustment that re-expresses a constrained-space gradient in
// unconstrained coordinates.
package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Kind identifies the transform applied to a stochastic node.
type Kind int

const (
	// None means constrained and unconstrained values are identical.
	None Kind = iota
	// Log maps a positive support onto the reals via y = ln x.
	Log
)

// String returns a human-readable name for the transform kind.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Log:
		return "log"
	default:
		return "unknown"
	}
}

// Transformation is a bijection between a constrained support and the
// reals, applied elementwise to scalar and matrix values.
type Transformation interface {
	// Kind returns the transform kind.
	Kind() Kind

	// Forward maps a constrained value to its real-typed unconstrained
	// representation.
	Forward(constrained graph.Value) (graph.Value, error)

	// Inverse recovers the constrained value from an unconstrained one.
	Inverse(unconstrained graph.Value) (graph.Value, error)

	// LogAbsJacobianDeterminant returns log|det J| of the inverse map at
	// the given unconstrained value.
	LogAbsJacobianDeterminant(unconstrained graph.Value) (float64, error)

	// UnconstrainedGradient re-expresses a constrained-space gradient in
	// unconstrained coordinates, including the Jacobian correction term.
	UnconstrainedGradient(constrainedGrad []float64, constrained graph.Value) ([]float64, error)
}

// ForSupport chooses the transform for a distribution's sample type:
// Log for positive-real supports, None otherwise. Discrete and unbounded
// real supports need no transform.
func ForSupport(sampleType graph.ValueType) (Kind, Transformation) {
	if sampleType.Atomic == graph.PositiveReal {
		return Log, logTransform{}
	}
	return None, nil
}

// logTransform is the y = ln x bijection for positive supports.
//
// For the inverse x = e^y the Jacobian is diagonal with entries e^y, so
// log|det J| is the sum of the unconstrained entries. A gradient g = ∂L/∂x
// becomes ∂L/∂y = x·g, and the Jacobian correction contributes a further
// +1 per element.
type logTransform struct{}

func (logTransform) Kind() Kind { return Log }

func (logTransform) Forward(constrained graph.Value) (graph.Value, error) {
	t := constrained.Type()
	if t.Atomic != graph.PositiveReal {
		return graph.Value{}, graph.TypeMismatchf(
			"log transform requires a positive-real value, got %s", t)
	}
	if t.IsScalar() {
		return graph.NewReal(math.Log(constrained.Double())), nil
	}
	src := constrained.Matrix()
	dst := mat.DenseCopyOf(src)
	dst.Apply(func(_, _ int, x float64) float64 { return math.Log(x) }, src)
	return graph.NewMatrix(graph.Real, dst)
}

func (logTransform) Inverse(unconstrained graph.Value) (graph.Value, error) {
	t := unconstrained.Type()
	if t.Atomic != graph.Real {
		return graph.Value{}, graph.TypeMismatchf(
			"log transform inverse requires a real value, got %s", t)
	}
	if t.IsScalar() {
		return graph.NewPositiveReal(math.Exp(unconstrained.Double()))
	}
	src := unconstrained.Matrix()
	dst := mat.DenseCopyOf(src)
	dst.Apply(func(_, _ int, y float64) float64 { return math.Exp(y) }, src)
	return graph.NewMatrix(graph.PositiveReal, dst)
}

func (logTransform) LogAbsJacobianDeterminant(unconstrained graph.Value) (float64, error) {
	t := unconstrained.Type()
	if t.Atomic != graph.Real {
		return 0, graph.TypeMismatchf(
			"log transform jacobian requires a real value, got %s", t)
	}
	if t.IsScalar() {
		return unconstrained.Double(), nil
	}
	return mat.Sum(unconstrained.Matrix()), nil
}

func (logTransform) UnconstrainedGradient(constrainedGrad []float64, constrained graph.Value) ([]float64, error) {
	t := constrained.Type()
	if t.Atomic != graph.PositiveReal {
		return nil, graph.TypeMismatchf(
			"log transform gradient requires a positive-real value, got %s", t)
	}
	out := make([]float64, len(constrainedGrad))
	if t.IsScalar() {
		if len(constrainedGrad) != 1 {
			return nil, graph.InternalInconsistencyf(
				"scalar value carries %d gradient slots", len(constrainedGrad))
		}
		out[0] = constrained.Double()*constrainedGrad[0] + 1
		return out, nil
	}
	m := constrained.Matrix()
	rows, cols := m.Dims()
	if rows*cols != len(constrainedGrad) {
		return nil, graph.InternalInconsistencyf(
			"%dx%d value carries %d gradient slots", rows, cols, len(constrainedGrad))
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := i*cols + j
			out[k] = m.At(i, j)*constrainedGrad[k] + 1
		}
	}
	return out, nil
}
