package graph

import (
	"golang.org/x/exp/rand"
)

// NodeID is a stable integer handle into the owning Graph's node arena.
// It is used only for diagnostics and for addressing nodes through the
// container; nodes themselves hold direct references to their parents.
type NodeID int

// NodeKind enumerates the kinds of nodes in the computation graph.
type NodeKind int

const (
	KindConstant NodeKind = iota
	KindDistribution
	KindOperator
)

// String returns a human-readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindDistribution:
		return "distribution"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Node is a vertex in the computation graph.
//
// Nodes are created once per graph build and never destroyed individually;
// the Graph container is the sole owner. Parent references are ordered,
// non-owning, and never change after construction. Values are overwritten
// in place on every evaluation pass; only the node's own evaluation logic
// may mutate its Value, and only during its phase of the iteration protocol.
//
// Implementations embed NodeBase; the unexported assignID method keeps the
// set of implementations closed over the base.
type Node interface {
	// ID returns the node's handle in the owning graph.
	ID() NodeID

	// Kind returns the node kind.
	Kind() NodeKind

	// Parents returns the ordered parent references.
	Parents() []Node

	// Value returns the node's current value.
	Value() Value

	// SetValue overwrites the node's current value.
	SetValue(v Value)

	// IsStochastic reports whether the node draws its value from a
	// distribution. Drivers use this to separate latent and observed
	// variables from deterministic computation.
	IsStochastic() bool

	// Eval recomputes the node's value from its parents, drawing from the
	// caller-supplied generator where the node is stochastic. Parents must
	// already hold current-iteration values; the caller's topological
	// scheduling guarantees this.
	Eval(rng *rand.Rand) error

	// ComputeGradients propagates forward-mode first and second derivative
	// accumulators from parents to this node via the chain rule.
	ComputeGradients() error

	// Backward runs the node's gradient-accumulation entry point for the
	// backward pass, skipping observed nodes.
	Backward() error

	// Grad returns the forward-mode first and second derivative accumulators.
	Grad() (grad1, grad2 float64)

	// AddGrad adds contributions to the forward-mode accumulators.
	AddGrad(grad1, grad2 float64)

	// BackGrad returns the backward-pass gradient accumulator, one slot per
	// element of the node's value.
	BackGrad() []float64

	// AddToBackGrad adds a contribution to slot i of the backward
	// accumulator, growing it to cover the node's current value if needed.
	AddToBackGrad(i int, delta float64)

	// ResetGradients zeroes all gradient accumulators; drivers call it
	// before each iteration so no stale state leaks across passes.
	ResetGradients()

	assignID(id NodeID)
}

// NodeBase carries the state shared by every node implementation: identity,
// kind, parents, the mutable value slot, and the gradient accumulators.
type NodeBase struct {
	id       NodeID
	kind     NodeKind
	parents  []Node
	value    Value
	grad1    float64
	grad2    float64
	backGrad []float64
}

// NewNodeBase creates the embedded base for a node of the given kind.
func NewNodeBase(kind NodeKind, parents []Node) NodeBase {
	return NodeBase{kind: kind, parents: parents}
}

// ID returns the node's handle in the owning graph.
func (n *NodeBase) ID() NodeID { return n.id }

// Kind returns the node kind.
func (n *NodeBase) Kind() NodeKind { return n.kind }

// Parents returns the ordered parent references.
func (n *NodeBase) Parents() []Node { return n.parents }

// Value returns the node's current value.
func (n *NodeBase) Value() Value { return n.value }

// SetValue overwrites the node's current value.
func (n *NodeBase) SetValue(v Value) { n.value = v }

// IsStochastic reports false; stochastic operators override.
func (n *NodeBase) IsStochastic() bool { return false }

// Eval is a no-op for nodes with nothing to recompute (constants and
// distribution nodes, whose law is read through their parents).
func (n *NodeBase) Eval(_ *rand.Rand) error { return nil }

// ComputeGradients is a no-op by default.
func (n *NodeBase) ComputeGradients() error { return nil }

// Backward is a no-op by default.
func (n *NodeBase) Backward() error { return nil }

// Grad returns the forward-mode derivative accumulators.
func (n *NodeBase) Grad() (float64, float64) { return n.grad1, n.grad2 }

// AddGrad adds contributions to the forward-mode accumulators.
func (n *NodeBase) AddGrad(grad1, grad2 float64) {
	n.grad1 += grad1
	n.grad2 += grad2
}

// BackGrad returns the backward-pass gradient accumulator.
func (n *NodeBase) BackGrad() []float64 { return n.backGrad }

// AddToBackGrad adds delta to slot i of the backward accumulator.
func (n *NodeBase) AddToBackGrad(i int, delta float64) {
	for len(n.backGrad) <= i {
		n.backGrad = append(n.backGrad, 0)
	}
	n.backGrad[i] += delta
}

// ResetGradients zeroes all gradient accumulators.
func (n *NodeBase) ResetGradients() {
	n.grad1 = 0
	n.grad2 = 0
	for i := range n.backGrad {
		n.backGrad[i] = 0
	}
}

func (n *NodeBase) assignID(id NodeID) { n.id = id }

// ConstNode is a constant-valued node. Its value is fixed at construction
// and never overwritten by evaluation.
type ConstNode struct {
	NodeBase
}

// NewConstant creates a constant node holding v.
func NewConstant(v Value) *ConstNode {
	c := &ConstNode{NodeBase: NewNodeBase(KindConstant, nil)}
	c.SetValue(v)
	return c
}

// Distribution is the capability interface for distribution nodes: a
// probability law over a declared sample type, parameterized by parent
// values read at call time. Distributions hold no mutable parameter state.
//
// Concrete kinds validate sample type, arity, per-slot parent types, and
// constant parameter ranges at construction, before any sampling occurs.
type Distribution interface {
	Node

	// SampleType returns the semantic type of values the law produces.
	SampleType() ValueType

	// Sample draws one value of the declared sample type using current
	// parent values. It must not mutate parent state, and is deterministic
	// given the generator state and parent values.
	Sample(rng *rand.Rand) (Value, error)

	// LogProb returns the natural-log density or mass at v given current
	// parent values. Fails with ErrTypeMismatch if v does not match the
	// declared sample type. Degenerate parameters (probability exactly 0 or
	// 1) may yield -Inf for the unsupported outcome; that is the
	// mathematical value, not an error.
	LogProb(v Value) (float64, error)

	// GradientLogProbValue accumulates the first and second derivatives of
	// LogProb with respect to the sampled value into grad1 and grad2.
	// Fails with ErrNotImplemented when the kind has no such path.
	GradientLogProbValue(v Value, grad1, grad2 *float64) error

	// GradientLogProbParam accumulates the first and second derivatives of
	// LogProb with respect to the kind's designated parameter into grad1
	// and grad2. Fails with ErrNotImplemented when the kind has no such path.
	GradientLogProbParam(v Value, grad1, grad2 *float64) error

	// Param returns the designated parameter parent differentiated by
	// GradientLogProbParam, or false when the kind declares none.
	Param() (Node, bool)
}

// Stochastic is the capability interface for stochastic operator nodes:
// operators that draw their value from a distribution parent and carry an
// unconstrained mirror for gradient-based samplers.
type Stochastic interface {
	Node

	// LogProb returns the wrapped distribution's log density at the node's
	// current value.
	LogProb() (float64, error)

	// Observed reports whether the node's value is pinned to data.
	Observed() bool

	// SetObserved marks or unmarks the node as observed.
	SetObserved(observed bool)

	// UnconstrainedValue returns the node's value in unconstrained
	// coordinates. When syncFromConstrained is true the unconstrained
	// mirror is refreshed from the current constrained value first.
	UnconstrainedValue(syncFromConstrained bool) (Value, error)

	// OriginalValue returns the node's value in its natural support. When
	// syncFromUnconstrained is true the constrained value is recovered from
	// the unconstrained mirror first, as after a sampler's perturbation.
	OriginalValue(syncFromUnconstrained bool) (Value, error)

	// SetUnconstrainedValue overwrites the unconstrained mirror; the caller
	// follows up with OriginalValue(true) to restore consistency.
	SetUnconstrainedValue(v Value) error

	// LogAbsJacobianDeterminant returns log|det J| of the transform at the
	// current value; exactly 0 when no transform applies.
	LogAbsJacobianDeterminant() (float64, error)

	// UnconstrainedGradient returns the node's backward gradient expressed
	// in unconstrained coordinates, including the Jacobian correction.
	UnconstrainedGradient() ([]float64, error)
}
