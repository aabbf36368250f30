package operator

import (
	"github.com/gibson-ml/gibson/internal/graph"
)

// Sample draws a single value from its distribution parent.
type Sample struct {
	StochasticOperator
}

// NewSample validates and constructs a Sample operator.
func NewSample(parents []graph.Node) (*Sample, error) {
	base, err := newStochastic(SampleKind, parents)
	if err != nil {
		return nil, err
	}
	return &Sample{StochasticOperator: base}, nil
}

// Backward runs the backward pass for this node, skipping observed values.
func (s *Sample) Backward() error {
	return s.backward(true)
}

// backward accumulates this node's local contributions to the joint
// log-density gradient: the derivative with respect to its own value into
// its backward accumulator (unless the value is observed data and
// skipObserved is set), and the derivative with respect to the
// distribution's designated parameter into that parent's accumulator.
func (s *Sample) backward(skipObserved bool) error {
	dist := s.Distribution()
	if !(s.Observed() && skipObserved) && continuousSupport(dist.SampleType().Atomic) {
		var g1, g2 float64
		if err := dist.GradientLogProbValue(s.Value(), &g1, &g2); err != nil {
			return err
		}
		s.AddToBackGrad(0, g1)
	}
	param, ok := dist.Param()
	if !ok {
		return nil
	}
	var g1, g2 float64
	if err := dist.GradientLogProbParam(s.Value(), &g1, &g2); err != nil {
		return err
	}
	param.AddToBackGrad(0, g1)
	return nil
}
