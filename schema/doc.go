// Package schema is a hand-written lexer and recursive-descent parser for
// an indentation-structured schema DSL describing entities, nodes, and
// relationships, plus a compiler that resolves every wrapper/function
// identifier it contains against a
// [github.com/jkminder/data2neo/registry.Snapshot], producing an immutable
// [Plan] the factory graph builds against.
//
// The grammar is small enough that a hand-rolled lexer/parser pair, rather
// than a generated one, keeps the whole front end in one readable package;
// see DESIGN.md for why this package does not depend on an external parser
// generator.
package schema
