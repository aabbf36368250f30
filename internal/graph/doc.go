// Package graph provides the node and value type system at the heart of the
// Gibson probabilistic-graph engine.
//
// A model is a directed acyclic graph of typed nodes. Every node is one of
// three kinds: a constant, a distribution, or an operator. Distributions
// describe probability laws parameterized by their parent nodes; operators
// compute values from their parents, either deterministically or by drawing
// from a distribution parent. The Graph container owns all nodes and hands
// out stable integer handles; parents are validated eagerly so that an
// invalid model can never finish construction.
//
// Values are a tagged sum type: exactly one of a boolean, a real scalar, or
// a dense matrix is active, and the active representation always agrees with
// the value's semantic type. Accessing the wrong representation is a
// programming error and panics.
package graph
