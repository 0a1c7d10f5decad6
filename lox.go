// lox.go — the package's entry points, as the cmd/ binaries consume them.
//
// Two pipelines, one source language:
//
//	tree-walk: source → Lexer → Parser → Resolver → Interpreter → stdout
//	bytecode:  source → Lexer → Compiler → Chunk → VM → stdout
//
// Both report static errors (exit 65) and runtime errors (exit 70) through
// the same error taxonomy in errors.go; ExitCode maps an error to the
// process exit status.
package lox

import (
	"errors"
	"fmt"
	"io"
)

// Version of the interpreters.
const Version = "0.1.0"

// RunSource parses, resolves, and executes src on the interpreter. The
// returned error is a collected static error set or a *RuntimeError.
func RunSource(ip *Interpreter, src string) error {
	stmts, err := NewParser(src).Parse()
	if err != nil {
		return err
	}
	locals, err := NewResolver().Resolve(stmts)
	if err != nil {
		return err
	}
	return ip.Interpret(stmts, locals)
}

// EvalLine executes one REPL line. A line that parses as a bare expression
// is evaluated and its value returned with echo=true, so the REPL can show
// it; otherwise the line runs as a program.
func EvalLine(ip *Interpreter, src string) (v Value, echo bool, err error) {
	if expr, perr := NewParser(src).ParseExpression(); perr == nil {
		locals, rerr := NewResolver().ResolveExpr(expr)
		if rerr != nil {
			return Nil, false, rerr
		}
		v, err = ip.EvalExpression(expr, locals)
		return v, err == nil, err
	}
	return Nil, false, RunSource(ip, src)
}

// ExitCode maps an error from either pipeline to the CLI exit status:
// 0 for nil, 70 for runtime errors, 65 for static errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var rt *RuntimeError
	if errors.As(err, &rt) {
		return 70
	}
	return 65
}

// ReportErrors writes each collected diagnostic to w, one per line.
func ReportErrors(w io.Writer, err error) {
	for _, e := range errorList(err) {
		fmt.Fprintln(w, e.Error())
	}
}
