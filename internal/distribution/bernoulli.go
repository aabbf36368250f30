package distribution

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Bernoulli is a distribution over booleans with a single parent
// interpreted as P(true). The parent may be real- or probability-typed;
// a constant parent is range-checked to [0, 1] at construction.
type Bernoulli struct {
	base
}

// NewBernoulli validates and constructs a Bernoulli distribution node.
func NewBernoulli(sampleType graph.ValueType, parents []graph.Node) (*Bernoulli, error) {
	if !sampleType.Equal(graph.ScalarType(graph.Boolean)) {
		return nil, graph.InvalidModelf(
			"bernoulli produces boolean valued samples, got sample type %s", sampleType)
	}
	if len(parents) != 1 {
		return nil, graph.InvalidModelf(
			"bernoulli distribution must have exactly one parent, got %d", len(parents))
	}
	pt := parents[0].Value().Type()
	if !pt.Equal(graph.ScalarType(graph.Real)) && !pt.Equal(graph.ScalarType(graph.Probability)) {
		return nil, graph.InvalidModelf(
			"bernoulli parent must be probability- or real-valued, got %s", pt)
	}
	if parents[0].Kind() == graph.KindConstant {
		if p := parents[0].Value().Double(); p < 0 || p > 1 {
			return nil, graph.InvalidModelf(
				"bernoulli probability must be between 0 and 1, got %g", p)
		}
	}
	return &Bernoulli{base: newBase(sampleType, parents)}, nil
}

// probability reads P(true) from the current parent value.
func (d *Bernoulli) probability() float64 {
	return d.Parents()[0].Value().Double()
}

// Sample draws one boolean with the current parent probability.
func (d *Bernoulli) Sample(rng *rand.Rand) (graph.Value, error) {
	b := distuv.Bernoulli{P: d.probability(), Src: rng}
	return graph.NewBoolean(b.Rand() != 0), nil
}

// LogProb returns ln(p) for true and ln(1-p) for false. A degenerate parent
// (p exactly 0 or 1) legitimately yields -Inf for the unsupported outcome.
func (d *Bernoulli) LogProb(v graph.Value) (float64, error) {
	if err := d.checkSampleValue("bernoulli", v); err != nil {
		return 0, err
	}
	p := d.probability()
	if v.Bool() {
		return math.Log(p), nil
	}
	return math.Log(1 - p), nil
}

// GradientLogProbValue has no derivative path: the sample is boolean.
func (d *Bernoulli) GradientLogProbValue(_ graph.Value, _, _ *float64) error {
	return graph.NotImplementedf("gradient of log prob with respect to value for bernoulli")
}

// GradientLogProbParam accumulates derivatives of the log mass with respect
// to the probability parameter p:
//
//	d/dp   =  v/p - (1-v)/(1-p)
//	d²/dp² = -v/p² - (1-v)/(1-p)²
func (d *Bernoulli) GradientLogProbParam(v graph.Value, grad1, grad2 *float64) error {
	if err := d.checkSampleValue("bernoulli", v); err != nil {
		return err
	}
	p := d.probability()
	if v.Bool() {
		*grad1 += 1 / p
		*grad2 += -1 / (p * p)
	} else {
		q := 1 - p
		*grad1 += -1 / q
		*grad2 += -1 / (q * q)
	}
	return nil
}

// Param designates the probability parent.
func (d *Bernoulli) Param() (graph.Node, bool) {
	return d.Parents()[0], true
}
