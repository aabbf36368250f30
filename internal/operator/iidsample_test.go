package operator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gibson-ml/gibson/internal/graph"
	"github.com/gibson-ml/gibson/internal/operator"
	"github.com/gibson-ml/gibson/internal/transform"
)

func naturalConst(t *testing.T, n int) graph.Node {
	t.Helper()
	v, err := graph.NewNatural(n)
	require.NoError(t, err)
	return graph.NewConstant(v)
}

func TestIIdSampleConstruction(t *testing.T) {
	d := bernoulliDist(t, 0.5)

	_, err := operator.NewIIdSample([]graph.Node{d})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "a size parent is required")

	_, err = operator.NewIIdSample([]graph.Node{naturalConst(t, 3), naturalConst(t, 3)})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "first parent must be a distribution")

	_, err = operator.NewIIdSample([]graph.Node{d, graph.NewConstant(graph.NewReal(3))})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "size parents must be naturals")

	_, err = operator.NewIIdSample([]graph.Node{d, naturalConst(t, 0)})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "size must be >= 1")

	op, err := operator.NewIIdSample([]graph.Node{d, naturalConst(t, 4), naturalConst(t, 2)})
	require.NoError(t, err)
	vt := op.Value().Type()
	assert.True(t, vt.Equal(graph.MatrixType(graph.BroadcastMatrix, graph.Boolean, 4, 2)))
	assert.True(t, op.IsStochastic())
}

func TestIIdSampleBernoulliBatch(t *testing.T) {
	const n = 1000
	op, err := operator.NewIIdSample([]graph.Node{bernoulliDist(t, 0.5), naturalConst(t, n)})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(17))
	require.NoError(t, op.Eval(rng))

	m := op.Value().Matrix()
	trues := 0
	for i := 0; i < n; i++ {
		if m.At(i, 0) == 1 {
			trues++
		}
	}
	assert.InDelta(t, n/2, trues, 80, "p=0.5 over %d iid draws", n)

	// With p=0.5 every element scores ln(0.5) regardless of outcome.
	lp, err := op.LogProb()
	require.NoError(t, err)
	assert.InDelta(t, float64(n)*math.Log(0.5), lp, 1e-9)
}

func TestIIdSampleBackwardAccumulatesParam(t *testing.T) {
	const n = 10
	d := bernoulliDist(t, 0.5)
	op, err := operator.NewIIdSample([]graph.Node{d, naturalConst(t, n)})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(23))
	require.NoError(t, op.Eval(rng))
	require.NoError(t, op.Backward())

	m := op.Value().Matrix()
	trues := 0
	for i := 0; i < n; i++ {
		if m.At(i, 0) == 1 {
			trues++
		}
	}
	// Each true contributes 1/p = 2, each false -1/(1-p) = -2.
	want := float64(trues)*2 - float64(n-trues)*2
	p, ok := d.Param()
	require.True(t, ok)
	require.Len(t, p.BackGrad(), 1)
	assert.InDelta(t, want, p.BackGrad()[0], 1e-9)
}

func TestIIdSampleGammaUnconstrained(t *testing.T) {
	const n = 5
	op, err := operator.NewIIdSample([]graph.Node{gammaDist(t, 3, 2), naturalConst(t, n)})
	require.NoError(t, err)
	assert.Equal(t, transform.Log, op.TransformKind())

	rng := rand.New(rand.NewSource(29))
	require.NoError(t, op.Eval(rng))

	u, err := op.UnconstrainedValue(true)
	require.NoError(t, err)
	m, um := op.Value().Matrix(), u.Matrix()
	var sumLogs float64
	for i := 0; i < n; i++ {
		assert.InDelta(t, math.Log(m.At(i, 0)), um.At(i, 0), 1e-12)
		sumLogs += um.At(i, 0)
	}

	lj, err := op.LogAbsJacobianDeterminant()
	require.NoError(t, err)
	assert.InDelta(t, sumLogs, lj, 1e-12)

	// Round trip back to the constrained support.
	back, err := op.OriginalValue(true)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, m.At(i, 0), back.Matrix().At(i, 0), 1e-9)
	}

	// Per-element value gradients in unconstrained coordinates.
	require.NoError(t, op.Backward())
	grad, err := op.UnconstrainedGradient()
	require.NoError(t, err)
	require.Len(t, grad, n)
	for i := 0; i < n; i++ {
		x := m.At(i, 0)
		wantX := (3.0-1)/x - 2
		assert.InDelta(t, x*wantX+1, grad[i], 1e-9)
	}
}
