package schema

import (
	"fmt"

	"github.com/jkminder/data2neo/internal/location"
)

// ParseError reports a lexical or syntactic defect in schema text: malformed
// tokens, inconsistent indentation, or a construct that does not match the
// grammar.
type ParseError struct {
	Span    location.Span
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// SemanticError reports a schema that parses but violates a static
// constraint: a duplicate primary attribute within one block, a relationship
// endpoint identifier that was never declared by an earlier NODE block in
// the same entity, or any other condition the compiler (not the factory
// graph) must catch before the plan is used.
type SemanticError struct {
	Span    location.Span
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// UnknownSymbolError reports a wrapper or function name referenced by
// schema text that is not bound in any of the registry's five families at
// compile time.
type UnknownSymbolError struct {
	Span location.Span
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("%s: unknown wrapper or function %q", e.Span, e.Name)
}
