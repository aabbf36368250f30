package graph

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// simplexTol is the absolute tolerance used when checking that a row of a
// conditional probability table sums to one.
const simplexTol = 1e-9

// AtomicType is the atomic domain of a value: the set its scalar entries
// are drawn from.
type AtomicType int

// Supported atomic domains.
const (
	Boolean AtomicType = iota
	Natural
	Real
	PositiveReal
	Probability
)

// String returns a human-readable name for the atomic type.
func (a AtomicType) String() string {
	switch a {
	case Boolean:
		return "boolean"
	case Natural:
		return "natural"
	case Real:
		return "real"
	case PositiveReal:
		return "positive real"
	case Probability:
		return "probability"
	default:
		return "unknown"
	}
}

// VariableType is the storage shape of a value.
type VariableType int

// Supported storage shapes.
const (
	// Scalar holds a single atomic value.
	Scalar VariableType = iota
	// BroadcastMatrix holds a dense matrix of atomic values.
	BroadcastMatrix
	// RowSimplexMatrix holds a dense matrix whose rows are each
	// non-negative and sum to one (a conditional probability table).
	RowSimplexMatrix
)

// String returns a human-readable name for the variable type.
func (v VariableType) String() string {
	switch v {
	case Scalar:
		return "scalar"
	case BroadcastMatrix:
		return "matrix"
	case RowSimplexMatrix:
		return "row-simplex matrix"
	default:
		return "unknown"
	}
}

// ValueType is the semantic type of a Value: the atomic domain paired with
// the storage shape, plus matrix dimensions where applicable.
//
// Two ValueTypes are equal iff every component matches. Distributions and
// operators compare types exactly, never approximately: PROBABILITY and REAL
// are distinct types even though both store doubles.
type ValueType struct {
	Variable VariableType
	Atomic   AtomicType
	Rows     int
	Cols     int
}

// ScalarType returns the ValueType for a scalar of the given atomic domain.
func ScalarType(a AtomicType) ValueType {
	return ValueType{Variable: Scalar, Atomic: a}
}

// MatrixType returns the ValueType for a rows×cols matrix of the given
// variable and atomic types.
func MatrixType(v VariableType, a AtomicType, rows, cols int) ValueType {
	return ValueType{Variable: v, Atomic: a, Rows: rows, Cols: cols}
}

// Equal reports whether two ValueTypes match exactly.
func (t ValueType) Equal(other ValueType) bool {
	return t == other
}

// IsScalar reports whether the type has scalar storage.
func (t ValueType) IsScalar() bool {
	return t.Variable == Scalar
}

// String returns a human-readable representation of the type.
func (t ValueType) String() string {
	if t.Variable == Scalar {
		return t.Atomic.String()
	}
	return fmt.Sprintf("%s<%s>[%dx%d]", t.Variable, t.Atomic, t.Rows, t.Cols)
}

// Value is the tagged representation of a node's current value. Exactly one
// representation (boolean, double, or dense matrix) is active, and the
// active representation always agrees with the value's ValueType.
//
// Values are constructed through the checked New* constructors; reading the
// wrong representation afterwards is a programming error and panics, in the
// same spirit as calling Item() on a non-scalar tensor.
type Value struct {
	vtype ValueType
	b     bool
	f     float64
	n     int
	m     *mat.Dense
}

// NewBoolean creates a scalar boolean Value.
func NewBoolean(b bool) Value {
	return Value{vtype: ScalarType(Boolean), b: b}
}

// NewReal creates a scalar real Value.
func NewReal(f float64) Value {
	return Value{vtype: ScalarType(Real), f: f}
}

// NewPositiveReal creates a scalar positive-real Value.
// Fails with ErrInvalidModel if f is negative.
func NewPositiveReal(f float64) (Value, error) {
	if f < 0 {
		return Value{}, InvalidModelf("positive real must be >= 0, got %g", f)
	}
	return Value{vtype: ScalarType(PositiveReal), f: f}, nil
}

// NewProbability creates a scalar probability Value.
// Fails with ErrInvalidModel unless p lies in [0, 1].
func NewProbability(p float64) (Value, error) {
	if p < 0 || p > 1 {
		return Value{}, InvalidModelf("probability must be between 0 and 1, got %g", p)
	}
	return Value{vtype: ScalarType(Probability), f: p}, nil
}

// NewNatural creates a scalar natural-number Value.
// Fails with ErrInvalidModel if n is negative.
func NewNatural(n int) (Value, error) {
	if n < 0 {
		return Value{}, InvalidModelf("natural must be >= 0, got %d", n)
	}
	return Value{vtype: ScalarType(Natural), n: n}, nil
}

// NewMatrix creates a BroadcastMatrix Value of the given atomic domain.
// Every entry is range-checked against the domain: booleans must be 0 or 1,
// probabilities must lie in [0, 1], positive reals must be non-negative.
func NewMatrix(atomic AtomicType, m *mat.Dense) (Value, error) {
	if m == nil {
		return Value{}, InvalidModelf("matrix value requires a non-nil matrix")
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if err := checkEntry(atomic, m.At(i, j)); err != nil {
				return Value{}, err
			}
		}
	}
	return Value{vtype: MatrixType(BroadcastMatrix, atomic, rows, cols), m: m}, nil
}

// NewRowSimplexMatrix creates a RowSimplexMatrix Value: a probability matrix
// whose rows are each non-negative and sum to one.
func NewRowSimplexMatrix(m *mat.Dense) (Value, error) {
	if m == nil {
		return Value{}, InvalidModelf("row-simplex matrix value requires a non-nil matrix")
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, m)
		for j, p := range row {
			if p < 0 || p > 1 {
				return Value{}, InvalidModelf(
					"row-simplex matrix entry (%d,%d) must be in [0,1], got %g", i, j, p)
			}
		}
		if sum := floats.Sum(row); !scalar.EqualWithinAbs(sum, 1, simplexTol) {
			return Value{}, InvalidModelf(
				"row-simplex matrix row %d must sum to 1, got %g", i, sum)
		}
	}
	return Value{vtype: MatrixType(RowSimplexMatrix, Probability, rows, cols), m: m}, nil
}

// checkEntry validates a scalar against an atomic domain.
func checkEntry(atomic AtomicType, x float64) error {
	switch atomic {
	case Boolean:
		if x != 0 && x != 1 {
			return InvalidModelf("boolean entry must be 0 or 1, got %g", x)
		}
	case Probability:
		if x < 0 || x > 1 {
			return InvalidModelf("probability entry must be in [0,1], got %g", x)
		}
	case PositiveReal:
		if x < 0 {
			return InvalidModelf("positive real entry must be >= 0, got %g", x)
		}
	case Natural:
		if x < 0 || x != float64(int(x)) {
			return InvalidModelf("natural entry must be a non-negative integer, got %g", x)
		}
	}
	return nil
}

// ScalarValueOf builds a scalar Value of the given atomic domain from a raw
// double, range-checking against the domain. Booleans map nonzero to true.
func ScalarValueOf(atomic AtomicType, x float64) (Value, error) {
	switch atomic {
	case Boolean:
		return NewBoolean(x != 0), nil
	case Real:
		return NewReal(x), nil
	case PositiveReal:
		return NewPositiveReal(x)
	case Probability:
		return NewProbability(x)
	case Natural:
		if x != float64(int(x)) {
			return Value{}, InvalidModelf("natural must be an integer, got %g", x)
		}
		return NewNatural(int(x))
	default:
		return Value{}, InvalidModelf("unsupported atomic type %s", atomic)
	}
}

// ZeroValue returns the zero Value of the given type. Row-simplex matrices
// are initialized to uniform rows so the simplex invariant holds.
func ZeroValue(t ValueType) Value {
	switch t.Variable {
	case Scalar:
		return Value{vtype: t}
	case RowSimplexMatrix:
		m := mat.NewDense(t.Rows, t.Cols, nil)
		uniform := 1 / float64(t.Cols)
		for i := 0; i < t.Rows; i++ {
			for j := 0; j < t.Cols; j++ {
				m.Set(i, j, uniform)
			}
		}
		return Value{vtype: t, m: m}
	default:
		return Value{vtype: t, m: mat.NewDense(t.Rows, t.Cols, nil)}
	}
}

// Type returns the value's semantic type.
func (v Value) Type() ValueType {
	return v.vtype
}

// Bool returns the boolean representation.
// Panics if the value is not a scalar boolean.
func (v Value) Bool() bool {
	if !v.vtype.Equal(ScalarType(Boolean)) {
		panic(fmt.Sprintf("Bool() called on %s value", v.vtype))
	}
	return v.b
}

// Double returns the real representation. Valid for scalar real,
// positive-real, and probability values; panics otherwise.
func (v Value) Double() float64 {
	if v.vtype.Variable != Scalar ||
		(v.vtype.Atomic != Real && v.vtype.Atomic != PositiveReal && v.vtype.Atomic != Probability) {
		panic(fmt.Sprintf("Double() called on %s value", v.vtype))
	}
	return v.f
}

// Natural returns the natural-number representation.
// Panics if the value is not a scalar natural.
func (v Value) Natural() int {
	if !v.vtype.Equal(ScalarType(Natural)) {
		panic(fmt.Sprintf("Natural() called on %s value", v.vtype))
	}
	return v.n
}

// Matrix returns the dense matrix representation.
// Panics if the value has scalar storage.
func (v Value) Matrix() *mat.Dense {
	if v.vtype.Variable == Scalar {
		panic(fmt.Sprintf("Matrix() called on %s value", v.vtype))
	}
	return v.m
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	c := v
	if v.m != nil {
		c.m = mat.DenseCopyOf(v.m)
	}
	return c
}

// Equal reports whether two values have equal types and equal contents.
func (v Value) Equal(other Value) bool {
	if !v.vtype.Equal(other.vtype) {
		return false
	}
	switch v.vtype.Variable {
	case Scalar:
		switch v.vtype.Atomic {
		case Boolean:
			return v.b == other.b
		case Natural:
			return v.n == other.n
		default:
			return v.f == other.f
		}
	default:
		return mat.Equal(v.m, other.m)
	}
}

// String returns a human-readable representation of the value.
func (v Value) String() string {
	switch v.vtype.Variable {
	case Scalar:
		switch v.vtype.Atomic {
		case Boolean:
			return fmt.Sprintf("%s(%t)", v.vtype, v.b)
		case Natural:
			return fmt.Sprintf("%s(%d)", v.vtype, v.n)
		default:
			return fmt.Sprintf("%s(%g)", v.vtype, v.f)
		}
	default:
		return fmt.Sprintf("%s%v", v.vtype, mat.Formatted(v.m, mat.Squeeze()))
	}
}
