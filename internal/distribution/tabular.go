package distribution

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gibson-ml/gibson/internal/graph"
)

// Tabular is a distribution over booleans driven by a conditional
// probability table. The first parent is a constant row-simplex matrix with
// exactly two columns; the remaining parents are boolean conditioning
// variables. The row is selected by reading the conditioning parents from
// last to first as the bits of a binary number, the parent farthest from
// the table contributing the least-significant bit. The selected row's
// second column is P(true).
type Tabular struct {
	base
}

// NewTabular validates and constructs a Tabular distribution node.
func NewTabular(sampleType graph.ValueType, parents []graph.Node) (*Tabular, error) {
	if !sampleType.Equal(graph.ScalarType(graph.Boolean)) {
		return nil, graph.InvalidModelf(
			"tabular supports only boolean valued samples, got sample type %s", sampleType)
	}
	if len(parents) < 1 ||
		parents[0].Kind() != graph.KindConstant ||
		parents[0].Value().Type().Variable != graph.RowSimplexMatrix {
		return nil, graph.InvalidModelf(
			"tabular distribution's first parent must be a constant row-simplex matrix")
	}
	matrix := parents[0].Value().Matrix()
	rows, cols := matrix.Dims()
	if cols != 2 {
		return nil, graph.InvalidModelf(
			"tabular distribution's table must have 2 columns, got %d", cols)
	}
	// 2^k rows for k boolean conditioning parents.
	if want := 1 << (len(parents) - 1); rows != want {
		return nil, graph.InvalidModelf(
			"tabular distribution's table expected %d rows, got %d", want, rows)
	}
	for _, parent := range parents[1:] {
		if pt := parent.Value().Type(); !pt.Equal(graph.ScalarType(graph.Boolean)) {
			return nil, graph.InvalidModelf(
				"tabular distribution only supports boolean parents, got %s", pt)
		}
	}
	return &Tabular{base: newBase(sampleType, parents)}, nil
}

// getProbability selects the row for the current conditioning parent values
// and returns its P(true). The result is re-validated to [0, 1] on every
// call; a violation is an internal-consistency failure, not a usage error.
func (d *Tabular) getProbability() (float64, error) {
	parents := d.Parents()
	row := 0
	for i, j := len(parents)-1, 0; i > 0; i, j = i-1, j+1 {
		pv := parents[i].Value()
		if !pv.Type().Equal(graph.ScalarType(graph.Boolean)) {
			return 0, graph.InternalInconsistencyf(
				"tabular node %d expects boolean parents, got %s", d.ID(), pv.Type())
		}
		if pv.Bool() {
			row += 1 << j
		}
	}
	prob := parents[0].Value().Matrix().At(row, 1)
	if prob < 0 || prob > 1 {
		return 0, graph.InternalInconsistencyf(
			"unexpected probability %g in tabular node %d", prob, d.ID())
	}
	return prob, nil
}

// Sample draws one boolean with the row probability selected by the current
// conditioning parent values.
func (d *Tabular) Sample(rng *rand.Rand) (graph.Value, error) {
	p, err := d.getProbability()
	if err != nil {
		return graph.Value{}, err
	}
	b := distuv.Bernoulli{P: p, Src: rng}
	return graph.NewBoolean(b.Rand() != 0), nil
}

// LogProb returns ln(p) for true and ln(1-p) for false, with p the selected
// row probability.
func (d *Tabular) LogProb(v graph.Value) (float64, error) {
	if err := d.checkSampleValue("tabular", v); err != nil {
		return 0, err
	}
	p, err := d.getProbability()
	if err != nil {
		return 0, err
	}
	if v.Bool() {
		return math.Log(p), nil
	}
	return math.Log(1 - p), nil
}

// GradientLogProbValue is not implemented for tabular distributions.
func (d *Tabular) GradientLogProbValue(_ graph.Value, _, _ *float64) error {
	return graph.NotImplementedf("gradient of log prob with respect to value for tabular")
}

// GradientLogProbParam is not implemented for tabular distributions.
func (d *Tabular) GradientLogProbParam(_ graph.Value, _, _ *float64) error {
	return graph.NotImplementedf("gradient of log prob with respect to parameter for tabular")
}
