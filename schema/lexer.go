package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jkminder/data2neo/internal/location"
)

// tokenKind enumerates the DSL's lexical tokens, plus the synthetic
// INDENT/DEDENT/NEWLINE/EOF tokens an indentation-structured grammar
// needs.
type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIndent
	tokDedent
	tokNewline
	tokIdent
	tokString
	tokInt
	tokFloat
	tokBool
	tokLParen
	tokRParen
	tokColon
	tokComma
	tokDot
	tokEquals
	tokMinus
	tokPlus
)

type token struct {
	kind tokenKind
	text string
	val  any // parsed literal value for tokString/tokInt/tokFloat/tokBool
	span location.Span
}

// lex tokenizes src (named by source for diagnostics) into a flat stream,
// handling indentation the way an indentation-structured, YAML-adjacent
// grammar requires: blank lines and '#' comment lines never affect the
// indent stack, an increase in a logical line's leading whitespace emits
// INDENT, a decrease emits one DEDENT per popped level.
func lex(source location.SourceID, src string) ([]token, error) {
	lines := strings.Split(src, "\n")
	var toks []token
	indent := []int{0}

	emit := func(k tokenKind, text string, val any, line, col int) {
		toks = append(toks, token{kind: k, text: text, val: val, span: location.Point(source, line, col, -1)})
	}

	for lineIdx, raw := range lines {
		lineNo := lineIdx + 1
		trimmed := strings.TrimRight(raw, "\r")
		stripped := strings.TrimLeft(trimmed, " \t")
		width := len(trimmed) - len(stripped)

		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue // blank/comment lines never affect indentation
		}

		top := indent[len(indent)-1]
		switch {
		case width > top:
			indent = append(indent, width)
			emit(tokIndent, "", nil, lineNo, 1)
		case width < top:
			for len(indent) > 1 && indent[len(indent)-1] > width {
				indent = indent[:len(indent)-1]
				emit(tokDedent, "", nil, lineNo, 1)
			}
			if indent[len(indent)-1] != width {
				return nil, &ParseError{Span: location.Point(source, lineNo, 1, -1),
					Message: fmt.Sprintf("inconsistent indentation: column %d matches no enclosing block", width+1)}
			}
		}

		if err := lexLine(source, stripped, lineNo, width+1, emit); err != nil {
			return nil, err
		}
		emit(tokNewline, "", nil, lineNo, len(trimmed)+1)
	}

	lastLine := len(lines) + 1
	for len(indent) > 1 {
		indent = indent[:len(indent)-1]
		emit(tokDedent, "", nil, lastLine, 1)
	}
	emit(tokEOF, "", nil, lastLine, 1)
	return toks, nil
}

// lexLine tokenizes the content of one logical (non-indentation) line.
func lexLine(source location.SourceID, s string, lineNo, colBase int, emit func(tokenKind, string, any, int, int)) error {
	i := 0
	for i < len(s) {
		c := s[i]
		col := colBase + i
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			emit(tokLParen, "(", nil, lineNo, col)
			i++
		case c == ')':
			emit(tokRParen, ")", nil, lineNo, col)
			i++
		case c == ':':
			emit(tokColon, ":", nil, lineNo, col)
			i++
		case c == ',':
			emit(tokComma, ",", nil, lineNo, col)
			i++
		case c == '.':
			// A dot between two digits is a float continuation, not an
			// entity_attr separator; numbers are handled in the digit case
			// below, so a bare '.' here always means entity_attr.
			emit(tokDot, ".", nil, lineNo, col)
			i++
		case c == '=':
			emit(tokEquals, "=", nil, lineNo, col)
			i++
		case c == '-':
			emit(tokMinus, "-", nil, lineNo, col)
			i++
		case c == '+':
			emit(tokPlus, "+", nil, lineNo, col)
			i++
		case c == '#':
			return nil // trailing comment: stop scanning the rest of the line
		case c == '"' || c == '\'':
			str, n, err := scanString(s[i:], c)
			if err != nil {
				return &ParseError{Span: location.Point(source, lineNo, col, -1), Message: err.Error()}
			}
			emit(tokString, str, str, lineNo, col)
			i += n
		case isDigit(c):
			lit, kind, n := scanNumber(s[i:])
			emit(kind, s[i:i+n], lit, lineNo, col)
			i += n
		case isIdentStart(c):
			n := 1
			for i+n < len(s) && isIdentPart(s[i+n]) {
				n++
			}
			word := s[i : i+n]
			switch word {
			case "true":
				emit(tokBool, word, true, lineNo, col)
			case "false":
				emit(tokBool, word, false, lineNo, col)
			default:
				emit(tokIdent, word, nil, lineNo, col)
			}
			i += n
		default:
			return &ParseError{Span: location.Point(source, lineNo, col, -1),
				Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// scanString reads a quoted string literal starting at s[0] == quote,
// returning its decoded text and the number of bytes consumed (including
// both quotes). Supports \" \\ \n \t \r escapes.
func scanString(s string, quote byte) (string, int, error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == quote {
			return sb.String(), i + 1, nil
		}
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"', '\'':
				sb.WriteByte(s[i+1])
			default:
				sb.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

// scanNumber reads an INT or FLOAT token.
func scanNumber(s string) (any, tokenKind, int) {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	isFloat := false
	if n < len(s) && s[n] == '.' && n+1 < len(s) && isDigit(s[n+1]) {
		isFloat = true
		n++
		for n < len(s) && isDigit(s[n]) {
			n++
		}
	}
	text := s[:n]
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return f, tokFloat, n
	}
	v, _ := strconv.ParseInt(text, 10, 64)
	return v, tokInt, n
}
