// Package operator implements the operator node kinds of the Gibson engine.
//
// Deterministic operators recompute their value as a pure function of their
// parents' values on every evaluation pass. Stochastic operators draw their
// value from a distribution parent and additionally maintain the
// unconstrained mirror that gradient-based samplers work in.
//
// Kinds self-register with the graph container in init().
package operator

import (
	"golang.org/x/exp/rand"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Registered operator kind names.
const (
	SampleKind    = "sample"
	IIdSampleKind = "iid_sample"
	AddKind       = "add"
	MultiplyKind  = "multiply"
)

func init() {
	graph.RegisterOperator(SampleKind, func(parents []graph.Node) (graph.Node, error) {
		return NewSample(parents)
	})
	graph.RegisterOperator(IIdSampleKind, func(parents []graph.Node) (graph.Node, error) {
		return NewIIdSample(parents)
	})
	graph.RegisterOperator(AddKind, func(parents []graph.Node) (graph.Node, error) {
		return NewAdd(parents)
	})
	graph.RegisterOperator(MultiplyKind, func(parents []graph.Node) (graph.Node, error) {
		return NewMultiply(parents)
	})
}

// checkNumericScalars verifies that every parent of a deterministic
// operator holds a numeric scalar.
func checkNumericScalars(kind string, parents []graph.Node) error {
	if len(parents) < 2 {
		return graph.InvalidModelf(
			"%s operator requires at least two parents, got %d", kind, len(parents))
	}
	for _, parent := range parents {
		t := parent.Value().Type()
		if !t.IsScalar() ||
			(t.Atomic != graph.Real && t.Atomic != graph.PositiveReal && t.Atomic != graph.Probability) {
			return graph.InvalidModelf(
				"%s operator parents must be numeric scalars, got %s", kind, t)
		}
	}
	return nil
}

// Add is the deterministic sum of its parents' scalar values.
//
// Gradient propagation through deterministic operators is a deferred
// capability: ComputeGradients is a stated no-op and Backward contributes
// nothing, pending the chain-rule extension.
type Add struct {
	graph.NodeBase
}

// NewAdd validates and constructs an Add operator.
func NewAdd(parents []graph.Node) (*Add, error) {
	if err := checkNumericScalars(AddKind, parents); err != nil {
		return nil, err
	}
	op := &Add{NodeBase: graph.NewNodeBase(graph.KindOperator, parents)}
	op.SetValue(graph.NewReal(0))
	return op, nil
}

// Eval recomputes the sum from current parent values.
func (o *Add) Eval(_ *rand.Rand) error {
	var sum float64
	for _, parent := range o.Parents() {
		sum += parent.Value().Double()
	}
	o.SetValue(graph.NewReal(sum))
	return nil
}

// Multiply is the deterministic product of its parents' scalar values.
//
// Gradient propagation is deferred; see Add.
type Multiply struct {
	graph.NodeBase
}

// NewMultiply validates and constructs a Multiply operator.
func NewMultiply(parents []graph.Node) (*Multiply, error) {
	if err := checkNumericScalars(MultiplyKind, parents); err != nil {
		return nil, err
	}
	op := &Multiply{NodeBase: graph.NewNodeBase(graph.KindOperator, parents)}
	op.SetValue(graph.NewReal(0))
	return op, nil
}

// Eval recomputes the product from current parent values.
func (o *Multiply) Eval(_ *rand.Rand) error {
	product := 1.0
	for _, parent := range o.Parents() {
		product *= parent.Value().Double()
	}
	o.SetValue(graph.NewReal(product))
	return nil
}
