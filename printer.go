// printer.go — parenthesized-prefix rendering of the AST.
//
// Mostly a parser-debugging aid: "1 + 2 * 3" prints as "(+ 1 (* 2 3))", so
// tests can assert on structure without walking nodes by hand.
package lox

import (
	"strings"
)

// PrintExpr renders an expression in prefix form.
func PrintExpr(e Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

// SprintStmt renders a statement in prefix form.
func SprintStmt(s Stmt) string {
	var b strings.Builder
	printStmt(&b, s)
	return b.String()
}

func printExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *AssignExpr:
		wrap(b, "= "+n.Name.Lexeme, n.Value)
	case *BinaryExpr:
		wrap(b, n.Op.Lexeme, n.Left, n.Right)
	case *CallExpr:
		wrap(b, "call", append([]Expr{n.Callee}, n.Args...)...)
	case *GetExpr:
		wrap(b, "."+n.Name.Lexeme, n.Object)
	case *GroupingExpr:
		wrap(b, "group", n.Inner)
	case *LiteralExpr:
		switch v := n.Value.(type) {
		case nil:
			b.WriteString("nil")
		case string:
			b.WriteString(v)
		default:
			b.WriteString(FormatValue(literalValue(n)))
		}
	case *LogicalExpr:
		wrap(b, n.Op.Lexeme, n.Left, n.Right)
	case *SetExpr:
		wrap(b, "= ."+n.Name.Lexeme, n.Object, n.Value)
	case *SuperExpr:
		b.WriteString("(super " + n.Method.Lexeme + ")")
	case *ThisExpr:
		b.WriteString("this")
	case *UnaryExpr:
		wrap(b, n.Op.Lexeme, n.Operand)
	case *VariableExpr:
		b.WriteString(n.Name.Lexeme)
	}
}

func printStmt(b *strings.Builder, s Stmt) {
	switch n := s.(type) {
	case *BlockStmt:
		b.WriteString("(block")
		for _, inner := range n.Stmts {
			b.WriteByte(' ')
			printStmt(b, inner)
		}
		b.WriteByte(')')

	case *ClassStmt:
		b.WriteString("(class " + n.Name.Lexeme)
		if n.Superclass != nil {
			b.WriteString(" < " + n.Superclass.Name.Lexeme)
		}
		for _, m := range n.Methods {
			b.WriteByte(' ')
			printStmt(b, m)
		}
		b.WriteByte(')')

	case *ExpressionStmt:
		b.WriteString("(; ")
		printExpr(b, n.Expr)
		b.WriteByte(')')

	case *FunctionStmt:
		b.WriteString("(fun " + n.Name.Lexeme + " (")
		for i, p := range n.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Lexeme)
		}
		b.WriteByte(')')
		for _, inner := range n.Body {
			b.WriteByte(' ')
			printStmt(b, inner)
		}
		b.WriteByte(')')

	case *IfStmt:
		b.WriteString("(if ")
		printExpr(b, n.Cond)
		b.WriteByte(' ')
		printStmt(b, n.Then)
		if n.Else != nil {
			b.WriteByte(' ')
			printStmt(b, n.Else)
		}
		b.WriteByte(')')

	case *PrintStmt:
		b.WriteString("(print ")
		printExpr(b, n.Expr)
		b.WriteByte(')')

	case *ReturnStmt:
		if n.Value == nil {
			b.WriteString("(return)")
			return
		}
		b.WriteString("(return ")
		printExpr(b, n.Value)
		b.WriteByte(')')

	case *VarStmt:
		b.WriteString("(var " + n.Name.Lexeme)
		if n.Initializer != nil {
			b.WriteByte(' ')
			printExpr(b, n.Initializer)
		}
		b.WriteByte(')')

	case *WhileStmt:
		b.WriteString("(while ")
		printExpr(b, n.Cond)
		b.WriteByte(' ')
		printStmt(b, n.Body)
		b.WriteByte(')')
	}
}

func wrap(b *strings.Builder, name string, exprs ...Expr) {
	b.WriteString("(" + name)
	for _, e := range exprs {
		b.WriteByte(' ')
		printExpr(b, e)
	}
	b.WriteByte(')')
}

func literalValue(n *LiteralExpr) Value {
	switch v := n.Value.(type) {
	case bool:
		return Bool(v)
	case float64:
		return Num(v)
	case string:
		return Str(v)
	default:
		return Nil
	}
}
