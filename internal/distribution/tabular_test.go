package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/gibson-ml/gibson/internal/graph"
)

func simplexConst(t *testing.T, rows, cols int, data []float64) graph.Node {
	t.Helper()
	v, err := graph.NewRowSimplexMatrix(mat.NewDense(rows, cols, data))
	require.NoError(t, err)
	return graph.NewConstant(v)
}

func boolConst(b bool) graph.Node {
	return graph.NewConstant(graph.NewBoolean(b))
}

func TestTabularLookup(t *testing.T) {
	table := []float64{
		0.9, 0.1,
		0.2, 0.8,
	}

	tests := []struct {
		parent bool
		pTrue  float64
	}{
		{parent: false, pTrue: 0.1},
		{parent: true, pTrue: 0.8},
	}

	for _, tt := range tests {
		d, err := NewTabular(graph.ScalarType(graph.Boolean),
			[]graph.Node{simplexConst(t, 2, 2, table), boolConst(tt.parent)})
		require.NoError(t, err)

		p, err := d.getProbability()
		require.NoError(t, err)
		assert.InDelta(t, tt.pTrue, p, 1e-12, "parent=%t", tt.parent)

		lpTrue, err := d.LogProb(graph.NewBoolean(true))
		require.NoError(t, err)
		assert.InDelta(t, math.Log(tt.pTrue), lpTrue, 1e-12)

		lpFalse, err := d.LogProb(graph.NewBoolean(false))
		require.NoError(t, err)
		assert.InDelta(t, math.Log(1-tt.pTrue), lpFalse, 1e-12)
	}
}

func TestTabularRowIndexBitOrder(t *testing.T) {
	// Two conditioning parents: the parent farthest from the table is the
	// least-significant bit.
	table := []float64{
		0.9, 0.1, // row 0: a=false b=false
		0.8, 0.2, // row 1: a=false b=true
		0.7, 0.3, // row 2: a=true  b=false
		0.6, 0.4, // row 3: a=true  b=true
	}
	tests := []struct {
		a, b  bool
		pTrue float64
	}{
		{false, false, 0.1},
		{false, true, 0.2},
		{true, false, 0.3},
		{true, true, 0.4},
	}

	for _, tt := range tests {
		d, err := NewTabular(graph.ScalarType(graph.Boolean),
			[]graph.Node{simplexConst(t, 4, 2, table), boolConst(tt.a), boolConst(tt.b)})
		require.NoError(t, err)
		p, err := d.getProbability()
		require.NoError(t, err)
		assert.InDelta(t, tt.pTrue, p, 1e-12, "a=%t b=%t", tt.a, tt.b)
	}
}

func TestTabularConstruction(t *testing.T) {
	boolType := graph.ScalarType(graph.Boolean)
	twoRow := []float64{0.9, 0.1, 0.2, 0.8}

	tests := []struct {
		name       string
		sampleType graph.ValueType
		parents    []graph.Node
	}{
		{
			name:       "non-boolean sample type",
			sampleType: graph.ScalarType(graph.Real),
			parents:    []graph.Node{simplexConst(t, 2, 2, twoRow), boolConst(false)},
		},
		{
			name:       "no parents",
			sampleType: boolType,
			parents:    nil,
		},
		{
			name:       "first parent not a matrix",
			sampleType: boolType,
			parents:    []graph.Node{probabilityConst(t, 0.5), boolConst(false)},
		},
		{
			name:       "three columns",
			sampleType: boolType,
			parents: []graph.Node{
				simplexConst(t, 1, 3, []float64{0.2, 0.3, 0.5}),
			},
		},
		{
			name:       "row count is not 2^parents",
			sampleType: boolType,
			parents:    []graph.Node{simplexConst(t, 2, 2, twoRow), boolConst(false), boolConst(true)},
		},
		{
			name:       "non-boolean conditioning parent",
			sampleType: boolType,
			parents:    []graph.Node{simplexConst(t, 2, 2, twoRow), probabilityConst(t, 0.5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTabular(tt.sampleType, tt.parents)
			assert.ErrorIs(t, err, graph.ErrInvalidModel)
		})
	}
}

func TestTabularFirstParentMustBeConstant(t *testing.T) {
	// A distribution node holding a simplex-typed slot is still rejected:
	// the table must be a constant.
	inner, err := NewBernoulli(graph.ScalarType(graph.Boolean),
		[]graph.Node{probabilityConst(t, 0.5)})
	require.NoError(t, err)

	_, err = NewTabular(graph.ScalarType(graph.Boolean), []graph.Node{inner, boolConst(true)})
	assert.ErrorIs(t, err, graph.ErrInvalidModel)
}

func TestTabularGradientsNotImplemented(t *testing.T) {
	d, err := NewTabular(graph.ScalarType(graph.Boolean),
		[]graph.Node{simplexConst(t, 2, 2, []float64{0.9, 0.1, 0.2, 0.8}), boolConst(false)})
	require.NoError(t, err)

	var g1, g2 float64
	assert.ErrorIs(t, d.GradientLogProbValue(graph.NewBoolean(true), &g1, &g2), graph.ErrNotImplemented)
	assert.ErrorIs(t, d.GradientLogProbParam(graph.NewBoolean(true), &g1, &g2), graph.ErrNotImplemented)

	_, ok := d.Param()
	assert.False(t, ok, "tabular declares no designated parameter")
}

func TestTabularLogProbTypeMismatch(t *testing.T) {
	d, err := NewTabular(graph.ScalarType(graph.Boolean),
		[]graph.Node{simplexConst(t, 2, 2, []float64{0.9, 0.1, 0.2, 0.8}), boolConst(false)})
	require.NoError(t, err)

	_, err = d.LogProb(graph.NewReal(0))
	assert.ErrorIs(t, err, graph.ErrTypeMismatch)
}

func TestTabularSample(t *testing.T) {
	d, err := NewTabular(graph.ScalarType(graph.Boolean),
		[]graph.Node{simplexConst(t, 2, 2, []float64{0.9, 0.1, 0.2, 0.8}), boolConst(true)})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	const n = 10000
	trues := 0
	for i := 0; i < n; i++ {
		v, err := d.Sample(rng)
		require.NoError(t, err)
		if v.Bool() {
			trues++
		}
	}
	// p=0.8 row selected by parent=true.
	assert.InDelta(t, 8000, trues, 250)
}
