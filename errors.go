// errors.go — diagnostic types for every phase of both pipelines.
//
// Three disjoint kinds of failure exist:
//
//   - static errors (*LexError, *ParseError, *ResolveError, *CompileError):
//     produced while turning source into an AST or a chunk. They are
//     collected into a *multierror.Error so one pass reports everything it
//     found; a process exits 65 when any were reported.
//   - runtime errors (*RuntimeError): raised while executing; they abort the
//     current run and a process exits 70.
//   - host errors (file not found and the like) are not represented here;
//     the cmd/ wrappers deal with those directly.
//
// Static errors found at a token render in the same form on stderr:
//
//	[line 4] Error at ')': Expect expression.
//	[line 9] Error at end: Expect '}' after block.
//
// Lexical errors have no token and omit the location part:
//
//	[line 2] Error: Unterminated string.
//
// Runtime errors render as the message followed by the line:
//
//	Operands must be two numbers or two strings.
//	[line 7]
package lox

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// LexError is a lexical error: an unterminated string or a character that
// begins no token.
type LexError struct {
	Line int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// ParseError is a syntax error at a specific token.
type ParseError struct {
	Token Token
	Msg   string
}

func (e *ParseError) Error() string {
	return staticMessage(e.Token, e.Msg)
}

// ResolveError is a static semantic error found by the resolver: 'this'
// outside a class, a value returned from an initializer, and so on.
type ResolveError struct {
	Token Token
	Msg   string
}

func (e *ResolveError) Error() string {
	return staticMessage(e.Token, e.Msg)
}

// CompileError is a static error reported by the bytecode compiler.
type CompileError struct {
	Token Token
	Msg   string
}

func (e *CompileError) Error() string {
	return staticMessage(e.Token, e.Msg)
}

func staticMessage(tok Token, msg string) string {
	if tok.Type == EOF {
		return fmt.Sprintf("[line %d] Error at end: %s", tok.Line, msg)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", tok.Line, tok.Lexeme, msg)
}

// RuntimeError aborts execution of the current program. Line is taken from
// the token (tree-walk) or the chunk's line table (VM) nearest the failure.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Msg, e.Line)
}

// errorList unwraps a collected *multierror.Error into its parts, so callers
// can print one diagnostic per line. A plain error becomes a one-element
// slice; nil becomes nil.
func errorList(err error) []error {
	if err == nil {
		return nil
	}
	if merr, ok := err.(*multierror.Error); ok {
		return merr.Errors
	}
	return []error{err}
}
