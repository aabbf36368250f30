package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gibson-ml/gibson/internal/graph"
)

func TestForSupport(t *testing.T) {
	tests := []struct {
		sampleType graph.ValueType
		kind       Kind
	}{
		{graph.ScalarType(graph.Boolean), None},
		{graph.ScalarType(graph.Real), None},
		{graph.ScalarType(graph.PositiveReal), Log},
		{graph.MatrixType(graph.BroadcastMatrix, graph.PositiveReal, 3, 1), Log},
	}

	for _, tt := range tests {
		kind, tr := ForSupport(tt.sampleType)
		assert.Equal(t, tt.kind, kind, "sample type %s", tt.sampleType)
		if tt.kind == None {
			assert.Nil(t, tr)
		} else {
			require.NotNil(t, tr)
			assert.Equal(t, tt.kind, tr.Kind())
		}
	}
}

func TestLogScalarRoundTrip(t *testing.T) {
	_, tr := ForSupport(graph.ScalarType(graph.PositiveReal))

	for _, x := range []float64{1e-6, 0.5, 1, 42} {
		v, err := graph.NewPositiveReal(x)
		require.NoError(t, err)

		u, err := tr.Forward(v)
		require.NoError(t, err)
		assert.True(t, u.Type().Equal(graph.ScalarType(graph.Real)))
		assert.InDelta(t, math.Log(x), u.Double(), 1e-12)

		back, err := tr.Inverse(u)
		require.NoError(t, err)
		assert.InDelta(t, x, back.Double(), 1e-12*math.Max(1, x))
	}
}

func TestLogMatrixRoundTrip(t *testing.T) {
	_, tr := ForSupport(graph.ScalarType(graph.PositiveReal))

	v, err := graph.NewMatrix(graph.PositiveReal, mat.NewDense(2, 2, []float64{0.5, 1, 2, 8}))
	require.NoError(t, err)

	u, err := tr.Forward(v)
	require.NoError(t, err)
	back, err := tr.Inverse(u)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, v.Matrix().At(i, j), back.Matrix().At(i, j), 1e-12)
		}
	}
}

func TestLogJacobian(t *testing.T) {
	_, tr := ForSupport(graph.ScalarType(graph.PositiveReal))

	// Scalar: log|J| of x = e^y is y itself.
	lj, err := tr.LogAbsJacobianDeterminant(graph.NewReal(1.7))
	require.NoError(t, err)
	assert.InDelta(t, 1.7, lj, 1e-12)

	// Matrix: the sum of unconstrained entries.
	u, err := graph.NewMatrix(graph.Real, mat.NewDense(1, 3, []float64{-1, 0.5, 2}))
	require.NoError(t, err)
	lj, err = tr.LogAbsJacobianDeterminant(u)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, lj, 1e-12)
}

func TestLogUnconstrainedGradient(t *testing.T) {
	_, tr := ForSupport(graph.ScalarType(graph.PositiveReal))

	// d/dy = x * d/dx + 1 (the +1 is the Jacobian term of log|J| = y).
	x := 2.5
	v, err := graph.NewPositiveReal(x)
	require.NoError(t, err)

	out, err := tr.UnconstrainedGradient([]float64{3}, v)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, x*3+1, out[0], 1e-12)
}

func TestLogTypeChecks(t *testing.T) {
	_, tr := ForSupport(graph.ScalarType(graph.PositiveReal))

	_, err := tr.Forward(graph.NewReal(1))
	assert.ErrorIs(t, err, graph.ErrTypeMismatch)

	_, err = tr.Inverse(graph.NewBoolean(true))
	assert.ErrorIs(t, err, graph.ErrTypeMismatch)

	v, err := graph.NewPositiveReal(1)
	require.NoError(t, err)
	_, err = tr.UnconstrainedGradient([]float64{1, 2}, v)
	assert.ErrorIs(t, err, graph.ErrInternalInconsistency)
}
