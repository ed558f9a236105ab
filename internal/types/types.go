// Package types provides the rule-tree data model shared across formulatree components.
//
// Zero-dependency design: the node, tree and record types use only the standard
// library so the engine can be embedded without pulling in storage or transport
// deps. ID utilities in ids.go import uuid but are isolated for rule-set identity.
//
// Separation from transports: gRPC payloads are google.protobuf.Struct values built
// from Record in internal/core/api. This package never sees wire formats.
package types

// Structural limits enforced by the engine to keep recursion and payloads bounded.
const (
	// MinLookupParams is the number of structurally required LOOKUP parameters.
	// The first MinLookupParams children of a LOOKUP node may not be removed.
	MinLookupParams = 3

	// MaxTreeDepth bounds recursion in validation, generation and serialization.
	// 32 levels is far beyond anything an editor produces by hand.
	MaxTreeDepth = 32

	// MaxTreeNodes caps the number of nodes in one tree.
	// Unflatten drops records past this count; the editor rejects growth past it.
	MaxTreeNodes = 5000

	// MaxRuleSetNameLength bounds rule-set names stored alongside a tree.
	MaxRuleSetNameLength = 128
)
