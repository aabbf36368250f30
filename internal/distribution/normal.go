package distribution

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gibson-ml/gibson/internal/graph"
)

const logSqrt2Pi = 0.9189385332046727 // ln sqrt(2π)

// Normal is a distribution over reals with two parents: a real-valued mean
// and a positive-real standard deviation. A constant standard deviation
// must be strictly positive.
type Normal struct {
	base
}

// NewNormal validates and constructs a Normal distribution node.
func NewNormal(sampleType graph.ValueType, parents []graph.Node) (*Normal, error) {
	if !sampleType.Equal(graph.ScalarType(graph.Real)) {
		return nil, graph.InvalidModelf(
			"normal produces real valued samples, got sample type %s", sampleType)
	}
	if len(parents) != 2 {
		return nil, graph.InvalidModelf(
			"normal distribution must have exactly two parents, got %d", len(parents))
	}
	if pt := parents[0].Value().Type(); !pt.Equal(graph.ScalarType(graph.Real)) {
		return nil, graph.InvalidModelf("normal mean must be real-valued, got %s", pt)
	}
	if pt := parents[1].Value().Type(); !pt.Equal(graph.ScalarType(graph.PositiveReal)) {
		return nil, graph.InvalidModelf(
			"normal standard deviation must be positive-real-valued, got %s", pt)
	}
	if parents[1].Kind() == graph.KindConstant {
		if s := parents[1].Value().Double(); s <= 0 {
			return nil, graph.InvalidModelf(
				"normal standard deviation must be > 0, got %g", s)
		}
	}
	return &Normal{base: newBase(sampleType, parents)}, nil
}

func (d *Normal) params() (mu, sigma float64) {
	return d.Parents()[0].Value().Double(), d.Parents()[1].Value().Double()
}

// Sample draws one real with the current mean and standard deviation.
func (d *Normal) Sample(rng *rand.Rand) (graph.Value, error) {
	mu, sigma := d.params()
	n := distuv.Normal{Mu: mu, Sigma: sigma, Src: rng}
	return graph.NewReal(n.Rand()), nil
}

// LogProb returns the log density -ln σ - ln√(2π) - (x-μ)²/(2σ²).
func (d *Normal) LogProb(v graph.Value) (float64, error) {
	if err := d.checkSampleValue("normal", v); err != nil {
		return 0, err
	}
	mu, sigma := d.params()
	z := v.Double() - mu
	return -math.Log(sigma) - logSqrt2Pi - z*z/(2*sigma*sigma), nil
}

// GradientLogProbValue accumulates the derivatives with respect to the
// sampled value: d/dx = -(x-μ)/σ², d²/dx² = -1/σ².
func (d *Normal) GradientLogProbValue(v graph.Value, grad1, grad2 *float64) error {
	if err := d.checkSampleValue("normal", v); err != nil {
		return err
	}
	mu, sigma := d.params()
	s2 := sigma * sigma
	*grad1 += -(v.Double() - mu) / s2
	*grad2 += -1 / s2
	return nil
}

// GradientLogProbParam accumulates the derivatives with respect to the
// mean: d/dμ = (x-μ)/σ², d²/dμ² = -1/σ².
func (d *Normal) GradientLogProbParam(v graph.Value, grad1, grad2 *float64) error {
	if err := d.checkSampleValue("normal", v); err != nil {
		return err
	}
	mu, sigma := d.params()
	s2 := sigma * sigma
	*grad1 += (v.Double() - mu) / s2
	*grad2 += -1 / s2
	return nil
}

// Param designates the mean parent.
func (d *Normal) Param() (graph.Node, bool) {
	return d.Parents()[0], true
}
