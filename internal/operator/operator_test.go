package operator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gibson-ml/gibson/internal/graph"
	"github.com/gibson-ml/gibson/internal/operator"
)

func TestAddEval(t *testing.T) {
	op, err := operator.NewAdd([]graph.Node{
		graph.NewConstant(graph.NewReal(1.5)),
		graph.NewConstant(mustPositive(t, 2)),
		graph.NewConstant(mustProbability(t, 0.25)),
	})
	require.NoError(t, err)
	assert.False(t, op.IsStochastic())

	require.NoError(t, op.Eval(rand.New(rand.NewSource(1))))
	assert.InDelta(t, 3.75, op.Value().Double(), 1e-12)
}

func TestMultiplyEval(t *testing.T) {
	op, err := operator.NewMultiply([]graph.Node{
		graph.NewConstant(graph.NewReal(3)),
		graph.NewConstant(graph.NewReal(-2)),
	})
	require.NoError(t, err)

	require.NoError(t, op.Eval(rand.New(rand.NewSource(1))))
	assert.InDelta(t, -6, op.Value().Double(), 1e-12)
}

func TestDeterministicOperatorConstruction(t *testing.T) {
	_, err := operator.NewAdd([]graph.Node{graph.NewConstant(graph.NewReal(1))})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "at least two parents")

	_, err = operator.NewMultiply([]graph.Node{
		graph.NewConstant(graph.NewReal(1)),
		graph.NewConstant(graph.NewBoolean(true)),
	})
	assert.ErrorIs(t, err, graph.ErrInvalidModel, "parents must be numeric scalars")
}

func TestDeterministicGradientsAreDeferred(t *testing.T) {
	op, err := operator.NewAdd([]graph.Node{
		graph.NewConstant(graph.NewReal(1)),
		graph.NewConstant(graph.NewReal(2)),
	})
	require.NoError(t, err)

	// Chain-rule propagation through deterministic nodes is a deferred
	// capability: both entry points succeed and contribute nothing.
	require.NoError(t, op.ComputeGradients())
	require.NoError(t, op.Backward())
	assert.Empty(t, op.BackGrad())
}

func TestEvalRecomputesFromCurrentParents(t *testing.T) {
	parent := graph.NewConstant(graph.NewReal(2))
	op, err := operator.NewMultiply([]graph.Node{parent, graph.NewConstant(graph.NewReal(10))})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))

	require.NoError(t, op.Eval(rng))
	assert.InDelta(t, 20, op.Value().Double(), 1e-12)

	parent.SetValue(graph.NewReal(-1))
	require.NoError(t, op.Eval(rng))
	assert.InDelta(t, -10, op.Value().Double(), 1e-12)
}
