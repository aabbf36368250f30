package graph

import (
	"golang.org/x/exp/rand"
)

// DistributionFactory builds a distribution node of one registered kind
// from its declared sample type and resolved parents.
type DistributionFactory func(sampleType ValueType, parents []Node) (Distribution, error)

// OperatorFactory builds an operator node of one registered kind from its
// resolved parents.
type OperatorFactory func(parents []Node) (Node, error)

var (
	distributionFactories = map[string]DistributionFactory{}
	operatorFactories     = map[string]OperatorFactory{}
)

// RegisterDistribution registers a distribution kind under a name. Concrete
// kinds self-register in init(); new kinds are added without touching the
// core contracts.
func RegisterDistribution(kind string, factory DistributionFactory) {
	if _, dup := distributionFactories[kind]; dup {
		panic("graph: duplicate distribution kind " + kind)
	}
	distributionFactories[kind] = factory
}

// RegisterOperator registers an operator kind under a name.
func RegisterOperator(kind string, factory OperatorFactory) {
	if _, dup := operatorFactories[kind]; dup {
		panic("graph: duplicate operator kind " + kind)
	}
	operatorFactories[kind] = factory
}

// Graph is the arena that owns every node of one model. Nodes are addressed
// by stable integer handles; parents are resolved at Add time, so a child
// can only ever reference nodes that already exist and construction order is
// a valid evaluation order.
//
// The container is single-threaded: one evaluation pass mutates node values
// in construction order, and the caller threads one generator through it.
type Graph struct {
	nodes []Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node resolves a handle. Fails with ErrInvalidModel for unknown handles.
func (g *Graph) Node(id NodeID) (Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, InvalidModelf("node %d does not exist, graph has %d nodes", id, len(g.nodes))
	}
	return g.nodes[id], nil
}

func (g *Graph) resolve(ids []NodeID) ([]Node, error) {
	parents := make([]Node, len(ids))
	for i, id := range ids {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		parents[i] = n
	}
	return parents, nil
}

func (g *Graph) add(n Node) NodeID {
	id := NodeID(len(g.nodes))
	n.assignID(id)
	g.nodes = append(g.nodes, n)
	return id
}

// AddConstant adds a constant node holding v and returns its handle.
func (g *Graph) AddConstant(v Value) NodeID {
	return g.add(NewConstant(v))
}

// AddDistribution constructs and adds a distribution node of a registered
// kind. The kind's constructor validates sample type, arity, parent types,
// and constant parameter ranges before the node enters the graph: an invalid
// model is never completed.
func (g *Graph) AddDistribution(kind string, sampleType ValueType, parents []NodeID) (NodeID, error) {
	factory, ok := distributionFactories[kind]
	if !ok {
		return 0, InvalidModelf("unknown distribution kind %q", kind)
	}
	resolved, err := g.resolve(parents)
	if err != nil {
		return 0, err
	}
	d, err := factory(sampleType, resolved)
	if err != nil {
		return 0, err
	}
	return g.add(d), nil
}

// AddOperator constructs and adds an operator node of a registered kind.
func (g *Graph) AddOperator(kind string, parents []NodeID) (NodeID, error) {
	factory, ok := operatorFactories[kind]
	if !ok {
		return 0, InvalidModelf("unknown operator kind %q", kind)
	}
	resolved, err := g.resolve(parents)
	if err != nil {
		return 0, err
	}
	op, err := factory(resolved)
	if err != nil {
		return 0, err
	}
	return g.add(op), nil
}

// Observe pins a stochastic node's value to data. The value's semantic type
// must match the node's exactly.
func (g *Graph) Observe(id NodeID, v Value) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	st, ok := n.(Stochastic)
	if !ok {
		return InvalidModelf("node %d is not stochastic and cannot be observed", id)
	}
	if !v.Type().Equal(n.Value().Type()) {
		return TypeMismatchf("observation for node %d must be %s, got %s",
			id, n.Value().Type(), v.Type())
	}
	st.SetValue(v)
	st.SetObserved(true)
	return nil
}

// Eval runs one forward pass: every node recomputes its value from its
// parents in construction order, which is topological by construction.
// Observed stochastic nodes keep their pinned values.
func (g *Graph) Eval(rng *rand.Rand) error {
	for _, n := range g.nodes {
		if st, ok := n.(Stochastic); ok && st.Observed() {
			continue
		}
		if err := n.Eval(rng); err != nil {
			return err
		}
	}
	return nil
}

// LogProb returns the joint log density of the model at the current node
// values: the sum of every stochastic node's log probability.
func (g *Graph) LogProb() (float64, error) {
	var total float64
	for _, n := range g.nodes {
		st, ok := n.(Stochastic)
		if !ok {
			continue
		}
		lp, err := st.LogProb()
		if err != nil {
			return 0, err
		}
		total += lp
	}
	return total, nil
}

// Backward runs the gradient-accumulation entry point of every stochastic
// node. Callers ResetGradients first; after the pass each free latent's
// backward accumulator holds ∂log-joint/∂value.
func (g *Graph) Backward() error {
	for _, n := range g.nodes {
		if !n.IsStochastic() {
			continue
		}
		if err := n.Backward(); err != nil {
			return err
		}
	}
	return nil
}

// ResetGradients zeroes every node's gradient accumulators. Drivers call it
// at the top of each iteration so no state leaks across passes.
func (g *Graph) ResetGradients() {
	for _, n := range g.nodes {
		n.ResetGradients()
	}
}
