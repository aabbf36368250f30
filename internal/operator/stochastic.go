package operator

import (
	"golang.org/x/exp/rand"

	"github.com/gibson-ml/gibson/internal/graph"
	"github.com/gibson-ml/gibson/internal/transform"
)

// StochasticOperator is the base for operators that draw their value from a
// distribution parent. It owns the unconstrained mirror of the node's value
// and the transform relating the two.
//
// Invariant: when the transform kind is None the constrained and
// unconstrained values are one and the same; otherwise they are related by
// the transform's forward and inverse maps and kept consistent by the
// explicit sync flags on UnconstrainedValue and OriginalValue. No instance
// holds the two inconsistent outside an in-progress sync.
type StochasticOperator struct {
	graph.NodeBase
	dist          graph.Distribution
	observed      bool
	transformKind transform.Kind
	transformer   transform.Transformation
	unconstrained graph.Value
}

// newStochastic validates the single-distribution-parent contract shared by
// every stochastic operator kind and wires the transform for the
// distribution's support.
func newStochastic(kind string, parents []graph.Node) (StochasticOperator, error) {
	if len(parents) != 1 {
		return StochasticOperator{}, graph.InvalidModelf(
			"%s operator requires a single distribution parent, got %d parents", kind, len(parents))
	}
	dist, ok := parents[0].(graph.Distribution)
	if !ok {
		return StochasticOperator{}, graph.InvalidModelf(
			"%s operator parent must be a distribution, got a %s node", kind, parents[0].Kind())
	}
	tk, tr := transform.ForSupport(dist.SampleType())
	op := StochasticOperator{
		NodeBase:      graph.NewNodeBase(graph.KindOperator, parents),
		dist:          dist,
		transformKind: tk,
		transformer:   tr,
	}
	op.SetValue(graph.ZeroValue(dist.SampleType()))
	return op, nil
}

// Distribution returns the wrapped distribution parent.
func (o *StochasticOperator) Distribution() graph.Distribution { return o.dist }

// TransformKind returns the transform applied to this node's support.
func (o *StochasticOperator) TransformKind() transform.Kind { return o.transformKind }

// IsStochastic reports true.
func (o *StochasticOperator) IsStochastic() bool { return true }

// Observed reports whether the node's value is pinned to data.
func (o *StochasticOperator) Observed() bool { return o.observed }

// SetObserved marks or unmarks the node as observed.
func (o *StochasticOperator) SetObserved(observed bool) { o.observed = observed }

// Eval draws a fresh value from the wrapped distribution into this node's
// value slot. The distribution and its parents are not mutated.
func (o *StochasticOperator) Eval(rng *rand.Rand) error {
	v, err := o.dist.Sample(rng)
	if err != nil {
		return err
	}
	o.SetValue(v)
	return o.syncUnconstrained()
}

// LogProb returns the wrapped distribution's log density at the node's
// current value.
func (o *StochasticOperator) LogProb() (float64, error) {
	return o.dist.LogProb(o.Value())
}

// syncUnconstrained refreshes the unconstrained mirror from the current
// constrained value.
func (o *StochasticOperator) syncUnconstrained() error {
	if o.transformKind == transform.None {
		return nil
	}
	u, err := o.transformer.Forward(o.Value())
	if err != nil {
		return err
	}
	o.unconstrained = u
	return nil
}

// UnconstrainedValue returns the node's value in unconstrained coordinates.
// For transform None this is the constrained value itself.
func (o *StochasticOperator) UnconstrainedValue(syncFromConstrained bool) (graph.Value, error) {
	if o.transformKind == transform.None {
		return o.Value(), nil
	}
	if syncFromConstrained {
		if err := o.syncUnconstrained(); err != nil {
			return graph.Value{}, err
		}
	}
	return o.unconstrained, nil
}

// OriginalValue returns the node's value in its natural support, recovering
// it from the unconstrained mirror first when syncFromUnconstrained is set.
func (o *StochasticOperator) OriginalValue(syncFromUnconstrained bool) (graph.Value, error) {
	if o.transformKind == transform.None {
		return o.Value(), nil
	}
	if syncFromUnconstrained {
		v, err := o.transformer.Inverse(o.unconstrained)
		if err != nil {
			return graph.Value{}, err
		}
		o.SetValue(v)
	}
	return o.Value(), nil
}

// SetUnconstrainedValue overwrites the unconstrained mirror, as a gradient
// sampler does after a leapfrog step. For transform None it writes the
// value slot directly. Callers restore consistency with OriginalValue(true).
func (o *StochasticOperator) SetUnconstrainedValue(v graph.Value) error {
	if o.transformKind == transform.None {
		if !v.Type().Equal(o.Value().Type()) {
			return graph.TypeMismatchf(
				"unconstrained value for node %d must be %s, got %s",
				o.ID(), o.Value().Type(), v.Type())
		}
		o.SetValue(v)
		return nil
	}
	want := o.unconstrainedType()
	if !v.Type().Equal(want) {
		return graph.TypeMismatchf(
			"unconstrained value for node %d must be %s, got %s", o.ID(), want, v.Type())
	}
	o.unconstrained = v
	return nil
}

func (o *StochasticOperator) unconstrainedType() graph.ValueType {
	t := o.Value().Type()
	if t.IsScalar() {
		return graph.ScalarType(graph.Real)
	}
	return graph.MatrixType(graph.BroadcastMatrix, graph.Real, t.Rows, t.Cols)
}

// LogAbsJacobianDeterminant returns log|det J| of the transform at the
// current value; exactly 0 for transform None.
func (o *StochasticOperator) LogAbsJacobianDeterminant() (float64, error) {
	if o.transformKind == transform.None {
		return 0, nil
	}
	u, err := o.UnconstrainedValue(true)
	if err != nil {
		return 0, err
	}
	return o.transformer.LogAbsJacobianDeterminant(u)
}

// UnconstrainedGradient returns the node's backward gradient expressed in
// unconstrained coordinates, combining the distribution's gradient with the
// transform's Jacobian correction.
func (o *StochasticOperator) UnconstrainedGradient() ([]float64, error) {
	grad := make([]float64, elemCount(o.Value()))
	copy(grad, o.BackGrad())
	if o.transformKind == transform.None {
		return grad, nil
	}
	return o.transformer.UnconstrainedGradient(grad, o.Value())
}

// ComputeGradients is a no-op for stochastic operators: their contribution
// enters through the backward pass.
func (o *StochasticOperator) ComputeGradients() error { return nil }

// elemCount returns the number of scalar elements in a value.
func elemCount(v graph.Value) int {
	t := v.Type()
	if t.IsScalar() {
		return 1
	}
	return t.Rows * t.Cols
}

// continuousSupport reports whether an atomic domain admits a value
// gradient. Discrete supports have no unconstrained coordinate to
// differentiate; skipping them in backward is not a capability gap.
func continuousSupport(a graph.AtomicType) bool {
	return a == graph.Real || a == graph.PositiveReal || a == graph.Probability
}

// scalarAsFloat flattens a scalar value to its double storage for matrix
// packing: booleans map to 0/1.
func scalarAsFloat(v graph.Value) float64 {
	switch v.Type().Atomic {
	case graph.Boolean:
		if v.Bool() {
			return 1
		}
		return 0
	case graph.Natural:
		return float64(v.Natural())
	default:
		return v.Double()
	}
}
