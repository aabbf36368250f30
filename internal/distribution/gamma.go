package distribution

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Gamma is a distribution over positive reals in the shape/rate
// parameterization: two positive-real parents α (shape) and β (rate), with
// density β^α x^(α-1) e^(-βx) / Γ(α). Constant parents must be strictly
// positive.
type Gamma struct {
	base
}

// NewGamma validates and constructs a Gamma distribution node.
func NewGamma(sampleType graph.ValueType, parents []graph.Node) (*Gamma, error) {
	if !sampleType.Equal(graph.ScalarType(graph.PositiveReal)) {
		return nil, graph.InvalidModelf(
			"gamma produces positive real valued samples, got sample type %s", sampleType)
	}
	if len(parents) != 2 {
		return nil, graph.InvalidModelf(
			"gamma distribution must have exactly two parents, got %d", len(parents))
	}
	names := [2]string{"shape", "rate"}
	for i, parent := range parents {
		if pt := parent.Value().Type(); !pt.Equal(graph.ScalarType(graph.PositiveReal)) {
			return nil, graph.InvalidModelf(
				"gamma %s must be positive-real-valued, got %s", names[i], pt)
		}
		if parent.Kind() == graph.KindConstant {
			if x := parent.Value().Double(); x <= 0 {
				return nil, graph.InvalidModelf("gamma %s must be > 0, got %g", names[i], x)
			}
		}
	}
	return &Gamma{base: newBase(sampleType, parents)}, nil
}

func (d *Gamma) params() (alpha, beta float64) {
	return d.Parents()[0].Value().Double(), d.Parents()[1].Value().Double()
}

// Sample draws one positive real with the current shape and rate.
func (d *Gamma) Sample(rng *rand.Rand) (graph.Value, error) {
	alpha, beta := d.params()
	g := distuv.Gamma{Alpha: alpha, Beta: beta, Src: rng}
	return graph.NewPositiveReal(g.Rand())
}

// LogProb returns α ln β - ln Γ(α) + (α-1) ln x - βx.
func (d *Gamma) LogProb(v graph.Value) (float64, error) {
	if err := d.checkSampleValue("gamma", v); err != nil {
		return 0, err
	}
	alpha, beta := d.params()
	x := v.Double()
	lg, _ := math.Lgamma(alpha)
	return alpha*math.Log(beta) - lg + (alpha-1)*math.Log(x) - beta*x, nil
}

// GradientLogProbValue accumulates derivatives with respect to the sampled
// value: d/dx = (α-1)/x - β, d²/dx² = -(α-1)/x².
func (d *Gamma) GradientLogProbValue(v graph.Value, grad1, grad2 *float64) error {
	if err := d.checkSampleValue("gamma", v); err != nil {
		return err
	}
	alpha, beta := d.params()
	x := v.Double()
	*grad1 += (alpha-1)/x - beta
	*grad2 += -(alpha - 1) / (x * x)
	return nil
}

// GradientLogProbParam accumulates derivatives with respect to the rate:
// d/dβ = α/β - x, d²/dβ² = -α/β².
func (d *Gamma) GradientLogProbParam(v graph.Value, grad1, grad2 *float64) error {
	if err := d.checkSampleValue("gamma", v); err != nil {
		return err
	}
	alpha, beta := d.params()
	*grad1 += alpha/beta - v.Double()
	*grad2 += -alpha / (beta * beta)
	return nil
}

// Param designates the rate parent.
func (d *Gamma) Param() (graph.Node, bool) {
	return d.Parents()[1], true
}
