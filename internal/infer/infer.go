// Package infer provides minimal inference drivers over a built graph: an
// ancestral forward sampler, a rejection conditioner for discrete
// observations, and the log-joint/gradient pass a Hamiltonian-style sampler
// performs each step. These drivers own the per-iteration protocol (reset,
// evaluate in topological order, score, differentiate) that the node layer
// relies on but does not schedule itself.
package infer

import (
	"log/slog"

	"golang.org/x/exp/rand"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Ancestral runs draws forward passes over the graph and collects the
// values of the queried nodes after each pass. Results are deterministic
// given the generator state.
func Ancestral(g *graph.Graph, queries []graph.NodeID, draws int, rng *rand.Rand) ([][]graph.Value, error) {
	if draws < 1 {
		return nil, graph.InvalidModelf("ancestral sampling requires draws >= 1, got %d", draws)
	}
	nodes, err := resolveQueries(g, queries)
	if err != nil {
		return nil, err
	}
	out := make([][]graph.Value, 0, draws)
	for it := 0; it < draws; it++ {
		g.ResetGradients()
		if err := g.Eval(rng); err != nil {
			return nil, err
		}
		row := make([]graph.Value, len(nodes))
		for i, n := range nodes {
			row[i] = n.Value().Clone()
		}
		out = append(out, row)
	}
	return out, nil
}

// RejectionResult summarizes a rejection-sampling run.
type RejectionResult struct {
	// Draws is the number of forward passes attempted.
	Draws int
	// Accepted is the number of passes whose sampled values matched every
	// observation.
	Accepted int
	// Means holds, per queried node, the mean of its accepted values
	// (booleans count as 0/1, so the mean is the posterior P(true)).
	Means []float64
}

// Rejection estimates posterior means of the queried nodes given exact-match
// observations on discrete stochastic nodes. Each iteration samples the full
// graph forward and keeps the draw only when every observed node sampled its
// observed value.
func Rejection(g *graph.Graph, observations map[graph.NodeID]graph.Value, queries []graph.NodeID, draws int, rng *rand.Rand, logger *slog.Logger) (*RejectionResult, error) {
	if draws < 1 {
		return nil, graph.InvalidModelf("rejection sampling requires draws >= 1, got %d", draws)
	}
	if logger == nil {
		logger = slog.Default()
	}
	queryNodes, err := resolveQueries(g, queries)
	if err != nil {
		return nil, err
	}
	type obs struct {
		node graph.Node
		want graph.Value
	}
	observed := make([]obs, 0, len(observations))
	for id, want := range observations {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		if !n.IsStochastic() {
			return nil, graph.InvalidModelf("observed node %d is not stochastic", id)
		}
		if !want.Type().Equal(n.Value().Type()) {
			return nil, graph.TypeMismatchf("observation for node %d must be %s, got %s",
				id, n.Value().Type(), want.Type())
		}
		observed = append(observed, obs{node: n, want: want})
	}

	result := &RejectionResult{Draws: draws, Means: make([]float64, len(queryNodes))}
	for it := 0; it < draws; it++ {
		g.ResetGradients()
		if err := g.Eval(rng); err != nil {
			return nil, err
		}
		match := true
		for _, o := range observed {
			if !o.node.Value().Equal(o.want) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		result.Accepted++
		for i, n := range queryNodes {
			result.Means[i] += queryStatistic(n.Value())
		}
	}
	if result.Accepted == 0 {
		return nil, graph.InternalInconsistencyf(
			"rejection sampling accepted 0 of %d draws; observations may have zero probability", draws)
	}
	for i := range result.Means {
		result.Means[i] /= float64(result.Accepted)
	}
	logger.Debug("rejection sampling finished",
		slog.Int("draws", result.Draws),
		slog.Int("accepted", result.Accepted))
	return result, nil
}

// LogJoint returns the joint log density at the current node values.
func LogJoint(g *graph.Graph) (float64, error) {
	return g.LogProb()
}

// UnconstrainedLogJoint returns the joint log density plus the
// change-of-variables correction for every free latent: the objective a
// sampler operating in unconstrained space ascends.
func UnconstrainedLogJoint(g *graph.Graph) (float64, error) {
	total, err := g.LogProb()
	if err != nil {
		return 0, err
	}
	for id := 0; id < g.Len(); id++ {
		n, err := g.Node(graph.NodeID(id))
		if err != nil {
			return 0, err
		}
		st, ok := n.(graph.Stochastic)
		if !ok || st.Observed() {
			continue
		}
		lj, err := st.LogAbsJacobianDeterminant()
		if err != nil {
			return 0, err
		}
		total += lj
	}
	return total, nil
}

// GradientLogJoint runs one backward pass and returns, per free latent,
// ∂log-joint/∂(unconstrained value). Accumulators are reset first so no
// state leaks from a previous iteration.
func GradientLogJoint(g *graph.Graph) (map[graph.NodeID][]float64, error) {
	g.ResetGradients()
	if err := g.Backward(); err != nil {
		return nil, err
	}
	grads := make(map[graph.NodeID][]float64)
	for id := 0; id < g.Len(); id++ {
		n, err := g.Node(graph.NodeID(id))
		if err != nil {
			return nil, err
		}
		st, ok := n.(graph.Stochastic)
		if !ok || st.Observed() {
			continue
		}
		grad, err := st.UnconstrainedGradient()
		if err != nil {
			return nil, err
		}
		grads[n.ID()] = grad
	}
	return grads, nil
}

func resolveQueries(g *graph.Graph, queries []graph.NodeID) ([]graph.Node, error) {
	nodes := make([]graph.Node, len(queries))
	for i, id := range queries {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// queryStatistic maps a queried value to the scalar accumulated by the
// posterior-mean estimate.
func queryStatistic(v graph.Value) float64 {
	switch v.Type().Atomic {
	case graph.Boolean:
		if v.Type().IsScalar() && v.Bool() {
			return 1
		}
		return 0
	case graph.Natural:
		return float64(v.Natural())
	default:
		return v.Double()
	}
}
