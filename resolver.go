// resolver.go — static scope analysis for the tree-walk pipeline.
//
// The resolver walks the AST with a stack of lexical scopes. Each scope maps
// a name to its binding status: declared (initializer not yet resolved) or
// defined. A name lookup scans scopes inner→outer and, on a match at
// distance d, annotates the expression with d. Names found in no scope are
// left unannotated and resolve against globals at runtime.
//
// The resolver also rejects the static misuses the parser lets through:
// 'return' outside a function, a value returned from 'init', 'this' and
// 'super' outside their classes, a class inheriting from itself, and
// duplicate declarations in one scope.
package lox

import (
	"github.com/hashicorp/go-multierror"
)

type functionKind int

const (
	funcNone functionKind = iota
	funcFunction
	funcMethod
	funcInitializer
)

type classKind int

const (
	classNone classKind = iota
	classClass
	classSubclass
)

// Resolver computes scope-hop distances for every local variable use.
type Resolver struct {
	scopes []map[string]bool // name → defined? (false = declared only)
	locals map[Expr]int

	currentFunction functionKind
	currentClass    classKind

	errors *multierror.Error
}

// NewResolver creates a resolver with no open scopes (the implicit global
// scope is not modeled; unresolved names are global).
func NewResolver() *Resolver {
	return &Resolver{locals: make(map[Expr]int)}
}

// Resolve analyzes the program and returns the expression→distance
// annotations, or every static error found.
func (r *Resolver) Resolve(stmts []Stmt) (map[Expr]int, error) {
	r.resolveStmts(stmts)
	if err := r.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r.locals, nil
}

// ResolveExpr analyzes a single expression (REPL echo mode).
func (r *Resolver) ResolveExpr(expr Expr) (map[Expr]int, error) {
	r.resolveExpr(expr)
	if err := r.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r.locals, nil
}

func (r *Resolver) resolveStmts(stmts []Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s Stmt) {
	switch n := s.(type) {
	case *BlockStmt:
		r.beginScope()
		r.resolveStmts(n.Stmts)
		r.endScope()

	case *VarStmt:
		r.declare(n.Name)
		if n.Initializer != nil {
			r.resolveExpr(n.Initializer)
		}
		r.define(n.Name)

	case *FunctionStmt:
		// Declare and define eagerly so a function can recurse.
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveFunction(n, funcFunction)

	case *ClassStmt:
		enclosing := r.currentClass
		r.currentClass = classClass

		r.declare(n.Name)
		r.define(n.Name)

		if n.Superclass != nil {
			if n.Superclass.Name.Lexeme == n.Name.Lexeme {
				r.errorAt(n.Superclass.Name, "A class can't inherit from itself.")
			}
			r.currentClass = classSubclass
			r.resolveExpr(n.Superclass)

			// 'super' lives in a scope enclosing all the methods of this
			// class, so its distance is fixed by the defining class.
			r.beginScope()
			r.scopes[len(r.scopes)-1]["super"] = true
		}

		// 'this' lives in a scope between 'super' and each method body.
		r.beginScope()
		r.scopes[len(r.scopes)-1]["this"] = true

		for _, method := range n.Methods {
			kind := funcMethod
			if method.Name.Lexeme == "init" {
				kind = funcInitializer
			}
			r.resolveFunction(method, kind)
		}

		r.endScope()
		if n.Superclass != nil {
			r.endScope()
		}
		r.currentClass = enclosing

	case *ExpressionStmt:
		r.resolveExpr(n.Expr)

	case *IfStmt:
		r.resolveExpr(n.Cond)
		r.resolveStmt(n.Then)
		if n.Else != nil {
			r.resolveStmt(n.Else)
		}

	case *PrintStmt:
		r.resolveExpr(n.Expr)

	case *ReturnStmt:
		if r.currentFunction == funcNone {
			r.errorAt(n.Keyword, "Can't return from top-level code.")
		}
		if n.Value != nil {
			if r.currentFunction == funcInitializer {
				r.errorAt(n.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpr(n.Value)
		}

	case *WhileStmt:
		r.resolveExpr(n.Cond)
		r.resolveStmt(n.Body)
	}
}

func (r *Resolver) resolveExpr(e Expr) {
	switch n := e.(type) {
	case *VariableExpr:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][n.Name.Lexeme]; ok && !defined {
				r.errorAt(n.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, n.Name)

	case *AssignExpr:
		r.resolveExpr(n.Value)
		r.resolveLocal(e, n.Name)

	case *BinaryExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)

	case *CallExpr:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}

	case *GetExpr:
		r.resolveExpr(n.Object)

	case *SetExpr:
		r.resolveExpr(n.Value)
		r.resolveExpr(n.Object)

	case *GroupingExpr:
		r.resolveExpr(n.Inner)

	case *LiteralExpr:
		// Nothing to resolve.

	case *LogicalExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)

	case *UnaryExpr:
		r.resolveExpr(n.Operand)

	case *ThisExpr:
		if r.currentClass == classNone {
			r.errorAt(n.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, n.Keyword)

	case *SuperExpr:
		switch r.currentClass {
		case classNone:
			r.errorAt(n.Keyword, "Can't use 'super' outside of a class.")
		case classClass:
			r.errorAt(n.Keyword, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(e, n.Keyword)
	}
}

func (r *Resolver) resolveFunction(fn *FunctionStmt, kind functionKind) {
	enclosing := r.currentFunction
	r.currentFunction = kind

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFunction = enclosing
}

// Scope bookkeeping
// --------------------------------------------------------

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bool))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name.Lexeme]; exists {
		r.errorAt(name, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = false
}

func (r *Resolver) define(name Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal scans scopes inner→outer and annotates expr with the hop
// distance to the first scope containing name. No match means global.
func (r *Resolver) resolveLocal(expr Expr, name Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) errorAt(tok Token, msg string) {
	r.errors = multierror.Append(r.errors, &ResolveError{Token: tok, Msg: msg})
}
