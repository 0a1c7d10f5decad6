// parser.go — recursive-descent parser for the tree-walk pipeline.
//
// Grammar, precedence low→high:
//
//	program    → declaration* EOF
//	declaration→ classDecl | funDecl | varDecl | statement
//	statement  → exprStmt | forStmt | ifStmt | printStmt | returnStmt
//	           | whileStmt | block
//	expression → assignment
//	assignment → ( call "." )? IDENT "=" assignment | logic_or
//	logic_or   → logic_and ( "or" logic_and )*
//	logic_and  → equality ( "and" equality )*
//	equality   → comparison ( ("!="|"==") comparison )*
//	comparison → term ( (">"|">="|"<"|"<=") term )*
//	term       → factor ( ("+"|"-") factor )*
//	factor     → unary ( ("*"|"/") unary )*
//	unary      → ("!"|"-") unary | call
//	call       → primary ( "(" args? ")" | "." IDENT )*
//
// A syntax error is recorded and the parser synchronizes: it discards tokens
// until a ';' or the start of the next statement, then resumes at the next
// declaration. All errors found in one pass are collected; no tree is
// produced if any error occurred.
package lox

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const maxCallArgs = 255

// Parser turns a token stream into statements.
type Parser struct {
	lex      *Lexer
	previous Token
	current  Token

	errors *multierror.Error
}

// syntaxError is the panic sentinel that unwinds to the synchronization
// point. It never escapes Parse.
type syntaxError struct{}

// NewParser creates a parser over src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// Parse parses a whole program. On any error it returns (nil, err) where err
// collects every diagnostic found.
func (p *Parser) Parse() ([]Stmt, error) {
	p.advance() // prime current

	var stmts []Stmt
	for !p.check(EOF) {
		if s := p.declarationSynced(); s != nil {
			stmts = append(stmts, s)
		}
	}

	if err := p.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return stmts, nil
}

// ParseExpression parses a single expression followed by EOF. The REPL uses
// it so a bare expression like "1 + 2" can be evaluated and echoed.
func (p *Parser) ParseExpression() (Expr, error) {
	p.advance()

	var expr Expr
	func() {
		defer func() {
			if v := recover(); v != nil {
				if _, ok := v.(syntaxError); !ok {
					panic(v)
				}
				expr = nil
			}
		}()
		expr = p.expression()
		p.consume(EOF, "Expect end of expression.")
	}()

	if err := p.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return expr, nil
}

// declarationSynced parses one declaration, recovering to a statement
// boundary if the syntax is malformed.
func (p *Parser) declarationSynced() (s Stmt) {
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(syntaxError); !ok {
				panic(v)
			}
			p.synchronize()
			s = nil
		}
	}()
	return p.declaration()
}

func (p *Parser) declaration() Stmt {
	switch {
	case p.match(CLASS):
		return p.classDeclaration()
	case p.match(FUN):
		return p.function("function")
	case p.match(VAR):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() Stmt {
	name := p.consume(IDENT, "Expect class name.")

	var superclass *VariableExpr
	if p.match(LESS) {
		sname := p.consume(IDENT, "Expect superclass name.")
		superclass = &VariableExpr{Name: sname}
	}

	p.consume(LBRACE, "Expect '{' before class body.")

	var methods []*FunctionStmt
	for !p.check(RBRACE) && !p.check(EOF) {
		methods = append(methods, p.function("method"))
	}

	p.consume(RBRACE, "Expect '}' after class body.")
	return &ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) function(kind string) *FunctionStmt {
	name := p.consume(IDENT, "Expect "+kind+" name.")
	p.consume(LPAREN, "Expect '(' after "+kind+" name.")

	var params []Token
	if !p.check(RPAREN) {
		for {
			if len(params) >= maxCallArgs {
				p.errorAt(p.current, fmt.Sprintf("Can't have more than %d parameters.", maxCallArgs))
			}
			params = append(params, p.consume(IDENT, "Expect parameter name."))
			if !p.match(COMMA) {
				break
			}
		}
	}
	p.consume(RPAREN, "Expect ')' after parameters.")

	p.consume(LBRACE, "Expect '{' before "+kind+" body.")
	body := p.blockBody()
	return &FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() Stmt {
	name := p.consume(IDENT, "Expect variable name.")

	var init Expr
	if p.match(EQUAL) {
		init = p.expression()
	}

	p.consume(SEMICOLON, "Expect ';' after variable declaration.")
	return &VarStmt{Name: name, Initializer: init}
}

func (p *Parser) statement() Stmt {
	switch {
	case p.match(FOR):
		return p.forStatement()
	case p.match(IF):
		return p.ifStatement()
	case p.match(PRINT):
		return p.printStatement()
	case p.match(RETURN):
		return p.returnStatement()
	case p.match(WHILE):
		return p.whileStatement()
	case p.match(LBRACE):
		return &BlockStmt{Stmts: p.blockBody()}
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars "for" into { init; while (cond) { body; incr; } }.
func (p *Parser) forStatement() Stmt {
	p.consume(LPAREN, "Expect '(' after 'for'.")

	var init Stmt
	switch {
	case p.match(SEMICOLON):
		init = nil
	case p.match(VAR):
		init = p.varDeclaration()
	default:
		init = p.expressionStatement()
	}

	var cond Expr
	if !p.check(SEMICOLON) {
		cond = p.expression()
	}
	p.consume(SEMICOLON, "Expect ';' after loop condition.")

	var incr Expr
	if !p.check(RPAREN) {
		incr = p.expression()
	}
	p.consume(RPAREN, "Expect ')' after for clauses.")

	body := p.statement()

	if incr != nil {
		body = &BlockStmt{Stmts: []Stmt{body, &ExpressionStmt{Expr: incr}}}
	}
	if cond == nil {
		cond = &LiteralExpr{Value: true}
	}
	var loop Stmt = &WhileStmt{Cond: cond, Body: body}
	if init != nil {
		loop = &BlockStmt{Stmts: []Stmt{init, loop}}
	}
	return loop
}

func (p *Parser) ifStatement() Stmt {
	p.consume(LPAREN, "Expect '(' after 'if'.")
	cond := p.expression()
	p.consume(RPAREN, "Expect ')' after if condition.")

	then := p.statement()
	var els Stmt
	if p.match(ELSE) {
		els = p.statement()
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

func (p *Parser) printStatement() Stmt {
	expr := p.expression()
	p.consume(SEMICOLON, "Expect ';' after value.")
	return &PrintStmt{Expr: expr}
}

func (p *Parser) returnStatement() Stmt {
	keyword := p.previous
	var value Expr
	if !p.check(SEMICOLON) {
		value = p.expression()
	}
	p.consume(SEMICOLON, "Expect ';' after return value.")
	return &ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() Stmt {
	p.consume(LPAREN, "Expect '(' after 'while'.")
	cond := p.expression()
	p.consume(RPAREN, "Expect ')' after condition.")
	body := p.statement()
	return &WhileStmt{Cond: cond, Body: body}
}

// blockBody parses declaration* '}' (the '{' was already consumed).
func (p *Parser) blockBody() []Stmt {
	var stmts []Stmt
	for !p.check(RBRACE) && !p.check(EOF) {
		if s := p.declarationSynced(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.consume(RBRACE, "Expect '}' after block.")
	return stmts
}

func (p *Parser) expressionStatement() Stmt {
	expr := p.expression()
	p.consume(SEMICOLON, "Expect ';' after expression.")
	return &ExpressionStmt{Expr: expr}
}

// Expression parsing
// --------------------------------------------------------

func (p *Parser) expression() Expr {
	return p.assignment()
}

// assignment parses an l-value candidate first; if '=' follows, the
// candidate is converted: Variable → Assign, Get → Set. Anything else is not
// assignable.
func (p *Parser) assignment() Expr {
	expr := p.logicOr()

	if p.match(EQUAL) {
		equals := p.previous
		value := p.assignment()

		switch target := expr.(type) {
		case *VariableExpr:
			return &AssignExpr{Name: target.Name, Value: value}
		case *GetExpr:
			return &SetExpr{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.errorAt(equals, "Invalid assignment target.")
			// The syntax is otherwise well formed; no need to synchronize.
		}
	}

	return expr
}

func (p *Parser) logicOr() Expr {
	expr := p.logicAnd()
	for p.match(OR) {
		op := p.previous
		right := p.logicAnd()
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) logicAnd() Expr {
	expr := p.equality()
	for p.match(AND) {
		op := p.previous
		right := p.equality()
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() Expr {
	expr := p.comparison()
	for p.matchAny(BANG_EQ, EQ) {
		op := p.previous
		right := p.comparison()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() Expr {
	expr := p.term()
	for p.matchAny(GREATER, GREATER_EQ, LESS, LESS_EQ) {
		op := p.previous
		right := p.term()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() Expr {
	expr := p.factor()
	for p.matchAny(PLUS, MINUS) {
		op := p.previous
		right := p.factor()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() Expr {
	expr := p.unary()
	for p.matchAny(STAR, SLASH) {
		op := p.previous
		right := p.unary()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.matchAny(BANG, MINUS) {
		op := p.previous
		operand := p.unary()
		return &UnaryExpr{Op: op, Operand: operand}
	}
	return p.call()
}

func (p *Parser) call() Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(LPAREN):
			expr = p.finishCall(expr)
		case p.match(DOT):
			name := p.consume(IDENT, "Expect property name after '.'.")
			expr = &GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	var args []Expr
	if !p.check(RPAREN) {
		for {
			if len(args) >= maxCallArgs {
				p.errorAt(p.current, fmt.Sprintf("Can't have more than %d arguments.", maxCallArgs))
			}
			args = append(args, p.expression())
			if !p.match(COMMA) {
				break
			}
		}
	}
	paren := p.consume(RPAREN, "Expect ')' after arguments.")
	return &CallExpr{Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() Expr {
	switch {
	case p.match(FALSE):
		return &LiteralExpr{Value: false}
	case p.match(TRUE):
		return &LiteralExpr{Value: true}
	case p.match(NIL):
		return &LiteralExpr{Value: nil}

	case p.matchAny(NUMBER, STRING):
		return &LiteralExpr{Value: p.previous.Literal}

	case p.match(SUPER):
		keyword := p.previous
		p.consume(DOT, "Expect '.' after 'super'.")
		method := p.consume(IDENT, "Expect superclass method name.")
		return &SuperExpr{Keyword: keyword, Method: method}

	case p.match(THIS):
		return &ThisExpr{Keyword: p.previous}

	case p.match(IDENT):
		return &VariableExpr{Name: p.previous}

	case p.match(LPAREN):
		expr := p.expression()
		p.consume(RPAREN, "Expect ')' after expression.")
		return &GroupingExpr{Inner: expr}
	}

	p.errorAt(p.current, "Expect expression.")
	panic(syntaxError{})
}

// Error reporting and recovery
// --------------------------------------------------------

func (p *Parser) errorAt(tok Token, msg string) {
	p.errors = multierror.Append(p.errors, &ParseError{Token: tok, Msg: msg})
}

// synchronize discards tokens until a likely statement boundary so one
// syntax error does not cascade.
func (p *Parser) synchronize() {
	p.advance()

	for !p.check(EOF) {
		if p.previous.Type == SEMICOLON {
			return
		}
		switch p.current.Type {
		case CLASS, FUN, VAR, FOR, IF, WHILE, PRINT, RETURN:
			return
		}
		p.advance()
	}
}

// Token plumbing
// --------------------------------------------------------

func (p *Parser) consume(tt TokenType, msg string) Token {
	if p.check(tt) {
		return p.advance()
	}
	p.errorAt(p.current, msg)
	panic(syntaxError{})
}

func (p *Parser) match(tt TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(tts ...TokenType) bool {
	for _, tt := range tts {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(tt TokenType) bool {
	return p.current.Type == tt
}

// advance pulls the next token from the lexer. Lexical errors are recorded
// and scanning continues past them.
func (p *Parser) advance() Token {
	p.previous = p.current
	for {
		tok, err := p.lex.NextToken()
		if err == nil {
			p.current = tok
			return p.previous
		}
		p.errors = multierror.Append(p.errors, err)
	}
}
