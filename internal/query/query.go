// Package query implements the show-predicate language. A predicate is either
// a per-node comparison such as "lines>=5000" or "mtime>=now-1week", a global
// ranking query such as "lines@top10", or the duplicate-grouping queries
// "duplicates" and "nonempty-duplicates". Compilation resolves relative-time
// literals against a single instant so every comparison in one run agrees on
// "now".
package query

import (
	"fmt"

	"github.com/aafulei/atree/internal/types"
)

// Kind identifies the form of a compiled query.
type Kind int

const (
	// KindComparison is a per-node boolean comparison.
	KindComparison Kind = iota
	// KindTopN is a global ranking query resolved once per tree.
	KindTopN
	// KindDuplicates is a global grouping query resolved once per tree.
	KindDuplicates
)

// Operator is a comparison operator accepted by the grammar.
type Operator string

const (
	OperatorEqual        Operator = "=="
	OperatorNotEqual     Operator = "!="
	OperatorLess         Operator = "<"
	OperatorLessEqual    Operator = "<="
	OperatorGreater      Operator = ">"
	OperatorGreaterEqual Operator = ">="
)

// Comparison pairs an attribute with an operator and a resolved literal.
// Size literals are bytes, line literals are terminator counts, and time
// literals are Unix nanoseconds resolved at compile time.
type Comparison struct {
	Attribute string
	Operator  Operator
	Value     int64
}

// TopN selects the n largest file nodes by the named attribute.
type TopN struct {
	Attribute string
	Count     int
}

// Query is a compiled show-predicate.
type Query struct {
	Kind       Kind
	Comparison *Comparison
	TopN       *TopN
	// IncludeEmpty applies to duplicate queries: "duplicates" groups empty
	// files too, "nonempty-duplicates" leaves them out.
	IncludeEmpty bool
}

// NeedsLineCounts reports whether evaluating the query requires line counts.
func (query *Query) NeedsLineCounts() bool {
	if query == nil {
		return false
	}
	switch query.Kind {
	case KindComparison:
		return query.Comparison.Attribute == types.AttributeLines
	case KindTopN:
		return query.TopN.Attribute == types.AttributeLines
	default:
		return false
	}
}

// NeedsContentHashes reports whether evaluating the query requires hashes.
func (query *Query) NeedsContentHashes() bool {
	return query != nil && query.Kind == KindDuplicates
}

// SyntaxError describes a malformed predicate. Position is the zero-based
// byte offset where parsing failed.
type SyntaxError struct {
	Position int
	Message  string
}

// Error formats the syntax error with its position.
func (syntaxError *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", syntaxError.Position, syntaxError.Message)
}

// Evaluate applies a comparison to a node. The result is false whenever the
// attribute is unavailable on the node, never an error.
func Evaluate(comparison *Comparison, node *types.Node) bool {
	attributeValue, available := node.AttributeValue(comparison.Attribute)
	if !available {
		return false
	}
	switch comparison.Operator {
	case OperatorEqual:
		return attributeValue == comparison.Value
	case OperatorNotEqual:
		return attributeValue != comparison.Value
	case OperatorLess:
		return attributeValue < comparison.Value
	case OperatorLessEqual:
		return attributeValue <= comparison.Value
	case OperatorGreater:
		return attributeValue > comparison.Value
	case OperatorGreaterEqual:
		return attributeValue >= comparison.Value
	default:
		return false
	}
}
