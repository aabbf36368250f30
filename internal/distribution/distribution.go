// Package distribution implements the concrete distribution kinds of the
// Gibson engine.
//
// Every kind validates its declared sample type, parent arity, per-slot
// parent types, and constant parameter ranges at construction, before any
// sampling: no invalid model is ever completed. At runtime a distribution
// holds no mutable parameter state; it always reads current parent values.
//
// Kinds self-register with the graph container in init(), so new kinds are
// added without changing the core contracts:
//
//	g := graph.New()
//	p := g.AddConstant(mustProbability(0.2))
//	d, err := g.AddDistribution(distribution.BernoulliKind,
//		graph.ScalarType(graph.Boolean), []graph.NodeID{p})
package distribution

import (
	"github.com/gibson-ml/gibson/internal/graph"
)

// Registered distribution kind names.
const (
	BernoulliKind = "bernoulli"
	TabularKind   = "tabular"
	NormalKind    = "normal"
	GammaKind     = "gamma"
)

func init() {
	graph.RegisterDistribution(BernoulliKind, func(st graph.ValueType, parents []graph.Node) (graph.Distribution, error) {
		return NewBernoulli(st, parents)
	})
	graph.RegisterDistribution(TabularKind, func(st graph.ValueType, parents []graph.Node) (graph.Distribution, error) {
		return NewTabular(st, parents)
	})
	graph.RegisterDistribution(NormalKind, func(st graph.ValueType, parents []graph.Node) (graph.Distribution, error) {
		return NewNormal(st, parents)
	})
	graph.RegisterDistribution(GammaKind, func(st graph.ValueType, parents []graph.Node) (graph.Distribution, error) {
		return NewGamma(st, parents)
	})
}

// base carries the state shared by every distribution kind: the node base
// plus the declared sample type. It provides NotImplemented defaults for
// both differentiation paths so kinds without derivatives report a
// capability gap rather than a silent zero.
type base struct {
	graph.NodeBase
	sampleType graph.ValueType
}

func newBase(sampleType graph.ValueType, parents []graph.Node) base {
	b := base{
		NodeBase:   graph.NewNodeBase(graph.KindDistribution, parents),
		sampleType: sampleType,
	}
	b.SetValue(graph.ZeroValue(sampleType))
	return b
}

// SampleType returns the semantic type of values this law produces.
func (b *base) SampleType() graph.ValueType { return b.sampleType }

// Param reports no designated parameter by default.
func (b *base) Param() (graph.Node, bool) { return nil, false }

// checkSampleValue verifies a value against the declared sample type.
func (b *base) checkSampleValue(kind string, v graph.Value) error {
	if !v.Type().Equal(b.sampleType) {
		return graph.TypeMismatchf("%s log prob expects a %s value, got %s",
			kind, b.sampleType, v.Type())
	}
	return nil
}
