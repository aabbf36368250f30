package operator

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/gibson-ml/gibson/internal/graph"
)

// IIdSample draws a batch of independent, identically distributed values
// from its distribution parent. Parents are the distribution followed by
// one or two constant naturals giving the batch dimensions; the node's
// value is a rows×cols matrix of draws.
type IIdSample struct {
	StochasticOperator
	rows int
	cols int
}

// NewIIdSample validates and constructs an IIdSample operator.
func NewIIdSample(parents []graph.Node) (*IIdSample, error) {
	if len(parents) != 2 && len(parents) != 3 {
		return nil, graph.InvalidModelf(
			"iid sample operator requires a distribution and one or two size parents, got %d parents",
			len(parents))
	}
	dist, ok := parents[0].(graph.Distribution)
	if !ok {
		return nil, graph.InvalidModelf(
			"iid sample operator's first parent must be a distribution, got a %s node",
			parents[0].Kind())
	}
	st := dist.SampleType()
	if !st.IsScalar() {
		return nil, graph.InvalidModelf(
			"iid sample requires a scalar-sample distribution, got sample type %s", st)
	}
	dims := make([]int, 0, 2)
	for _, parent := range parents[1:] {
		if parent.Kind() != graph.KindConstant ||
			!parent.Value().Type().Equal(graph.ScalarType(graph.Natural)) {
			return nil, graph.InvalidModelf(
				"iid sample size parents must be constant naturals, got %s", parent.Value().Type())
		}
		n := parent.Value().Natural()
		if n < 1 {
			return nil, graph.InvalidModelf("iid sample size must be >= 1, got %d", n)
		}
		dims = append(dims, n)
	}
	rows, cols := dims[0], 1
	if len(dims) == 2 {
		cols = dims[1]
	}

	base, err := newStochastic(IIdSampleKind, parents[:1])
	if err != nil {
		return nil, err
	}
	// The base resolved only the distribution parent; restore the full list
	// and the matrix-shaped value slot.
	op := &IIdSample{StochasticOperator: base, rows: rows, cols: cols}
	op.NodeBase = graph.NewNodeBase(graph.KindOperator, parents)
	op.SetValue(graph.ZeroValue(graph.MatrixType(graph.BroadcastMatrix, st.Atomic, rows, cols)))
	return op, nil
}

// Eval fills the node's matrix value with independent draws from the
// wrapped distribution.
func (o *IIdSample) Eval(rng *rand.Rand) error {
	dist := o.Distribution()
	m := mat.NewDense(o.rows, o.cols, nil)
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			sv, err := dist.Sample(rng)
			if err != nil {
				return err
			}
			m.Set(i, j, scalarAsFloat(sv))
		}
	}
	v, err := graph.NewMatrix(dist.SampleType().Atomic, m)
	if err != nil {
		return err
	}
	o.SetValue(v)
	return o.syncUnconstrained()
}

// LogProb returns the sum of the wrapped distribution's log density over
// every element of the batch.
func (o *IIdSample) LogProb() (float64, error) {
	dist := o.Distribution()
	m := o.Value().Matrix()
	var total float64
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			ev, err := graph.ScalarValueOf(dist.SampleType().Atomic, m.At(i, j))
			if err != nil {
				return 0, err
			}
			lp, err := dist.LogProb(ev)
			if err != nil {
				return 0, err
			}
			total += lp
		}
	}
	return total, nil
}

// Backward runs the backward pass for this node, skipping observed values.
func (o *IIdSample) Backward() error {
	return o.backward(true)
}

// backward accumulates per-element value gradients into this node's
// backward accumulator and the parameter gradient of every element into the
// designated parameter parent's accumulator.
func (o *IIdSample) backward(skipObserved bool) error {
	dist := o.Distribution()
	atomic := dist.SampleType().Atomic
	param, hasParam := dist.Param()
	wantValueGrad := !(o.Observed() && skipObserved) && continuousSupport(atomic)

	m := o.Value().Matrix()
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			ev, err := graph.ScalarValueOf(atomic, m.At(i, j))
			if err != nil {
				return err
			}
			if wantValueGrad {
				var g1, g2 float64
				if err := dist.GradientLogProbValue(ev, &g1, &g2); err != nil {
					return err
				}
				o.AddToBackGrad(i*o.cols+j, g1)
			}
			if hasParam {
				var g1, g2 float64
				if err := dist.GradientLogProbParam(ev, &g1, &g2); err != nil {
					return err
				}
				param.AddToBackGrad(0, g1)
			}
		}
	}
	return nil
}
