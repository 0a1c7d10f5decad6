// compiler.go — single-pass bytecode compiler.
//
// The compiler is a Pratt parser over a fixed rule table indexed by token
// type. It consumes tokens straight from the lexer and emits bytecode as it
// parses; there is no AST. Statements compile to stack-neutral sequences,
// control flow is encoded with forward jumps patched after the fact and
// backward OP_LOOP offsets.
//
// Scope model: block-local variables live on the VM stack. The compiler
// tracks them in a locals array paralleling the runtime stack layout; a name
// that resolves to no local compiles to a global access by name constant.
//
// This pipeline has no call or class opcodes: 'fun', 'class', and 'return'
// are reported as compile errors rather than half-supported.
package lox

import (
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const (
	maxLocals     = 256
	maxJumpLength = 0xffff
)

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is the Pratt table. Populated in init to break the initialization
// cycle between the table and the parse functions.
var rules [EOF + 1]parseRule

func init() {
	rules[LPAREN] = parseRule{prefix: (*Compiler).grouping}
	rules[MINUS] = parseRule{prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: precTerm}
	rules[PLUS] = parseRule{infix: (*Compiler).binary, prec: precTerm}
	rules[SLASH] = parseRule{infix: (*Compiler).binary, prec: precFactor}
	rules[STAR] = parseRule{infix: (*Compiler).binary, prec: precFactor}
	rules[BANG] = parseRule{prefix: (*Compiler).unary}
	rules[BANG_EQ] = parseRule{infix: (*Compiler).binary, prec: precEquality}
	rules[EQ] = parseRule{infix: (*Compiler).binary, prec: precEquality}
	rules[GREATER] = parseRule{infix: (*Compiler).binary, prec: precComparison}
	rules[GREATER_EQ] = parseRule{infix: (*Compiler).binary, prec: precComparison}
	rules[LESS] = parseRule{infix: (*Compiler).binary, prec: precComparison}
	rules[LESS_EQ] = parseRule{infix: (*Compiler).binary, prec: precComparison}
	rules[IDENT] = parseRule{prefix: (*Compiler).variable}
	rules[STRING] = parseRule{prefix: (*Compiler).str}
	rules[NUMBER] = parseRule{prefix: (*Compiler).number}
	rules[AND] = parseRule{infix: (*Compiler).and, prec: precAnd}
	rules[OR] = parseRule{infix: (*Compiler).or, prec: precOr}
	rules[FALSE] = parseRule{prefix: (*Compiler).literal}
	rules[NIL] = parseRule{prefix: (*Compiler).literal}
	rules[TRUE] = parseRule{prefix: (*Compiler).literal}
}

// local is a block-scoped variable. Its index in the locals array equals its
// runtime stack slot. depth -1 marks a declared-but-uninitialized local.
type local struct {
	name  Token
	depth int
}

// Compiler compiles one source string into one chunk.
type Compiler struct {
	lex  *Lexer
	prev Token
	curr Token

	chunk      *Chunk
	locals     []local
	scopeDepth int

	errors    *multierror.Error
	panicMode bool
}

// NewCompiler creates a compiler for src.
func NewCompiler(src string) *Compiler {
	return &Compiler{lex: NewLexer(src), chunk: &Chunk{}}
}

// Compile compiles the whole source. On any static error it returns
// (nil, err) with every diagnostic collected.
func (c *Compiler) Compile() (*Chunk, error) {
	c.advance()
	for !c.match(EOF) {
		c.declaration()
	}
	c.emitOp(OpReturn)

	if err := c.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debug("\n" + DisassembleChunk(c.chunk, "code"))
	}
	return c.chunk, nil
}

// Declarations & statements
// --------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(VAR):
		c.varDeclaration()
	case c.match(FUN):
		c.errorAt(c.prev, "Functions are not supported by the bytecode compiler.")
	case c.match(CLASS):
		c.errorAt(c.prev, "Classes are not supported by the bytecode compiler.")
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	nameConst := c.parseVariable("Expect variable name.")

	if c.match(EQUAL) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(nameConst)
}

func (c *Compiler) statement() {
	switch {
	case c.match(PRINT):
		c.printStatement()
	case c.match(FOR):
		c.forStatement()
	case c.match(IF):
		c.ifStatement()
	case c.match(WHILE):
		c.whileStatement()
	case c.match(RETURN):
		c.errorAt(c.prev, "Can't return from top-level code.")
	case c.match(LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(SEMICOLON, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *Compiler) block() {
	for !c.check(RBRACE) && !c.check(EOF) {
		c.declaration()
	}
	c.consume(RBRACE, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop) // drop the condition on the then path
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop) // drop the condition on the else path
	if c.match(ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.consume(LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

// forStatement compiles "for (init; cond; incr) body" with the increment
// clause jumped over on the way in and looped back through on each
// iteration.
func (c *Compiler) forStatement() {
	c.beginScope()

	c.consume(LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(SEMICOLON):
		// No initializer.
	case c.match(VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk.Code)
	exitJump := -1
	if !c.match(SEMICOLON) {
		c.expression()
		c.consume(SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.match(RPAREN) {
		bodyJump := c.emitJump(OpJump)
		incrStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}

	c.endScope()
}

// Expressions
// --------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence drives the Pratt loop: the current token's prefix rule,
// then every following infix rule whose precedence is at least prec.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := rules[c.prev.Type].prefix
	if prefix == nil {
		c.errorAt(c.prev, "Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= rules[c.curr.Type].prec {
		c.advance()
		rules[c.prev.Type].infix(c, canAssign)
	}

	if canAssign && c.match(EQUAL) {
		c.errorAt(c.prev, "Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	c.emitConstant(Num(c.prev.Literal.(float64)))
}

func (c *Compiler) str(_ bool) {
	c.emitConstant(Str(c.prev.Literal.(string)))
}

func (c *Compiler) literal(_ bool) {
	switch c.prev.Type {
	case FALSE:
		c.emitOp(OpFalse)
	case NIL:
		c.emitOp(OpNil)
	case TRUE:
		c.emitOp(OpTrue)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	op := c.prev.Type
	c.parsePrecedence(precUnary)
	switch op {
	case BANG:
		c.emitOp(OpNot)
	case MINUS:
		c.emitOp(OpNegate)
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.prev.Type
	c.parsePrecedence(rules[op].prec + 1)

	switch op {
	case BANG_EQ:
		c.emitOps(OpEqual, OpNot)
	case EQ:
		c.emitOp(OpEqual)
	case GREATER:
		c.emitOp(OpGreater)
	case GREATER_EQ:
		c.emitOps(OpLess, OpNot)
	case LESS:
		c.emitOp(OpLess)
	case LESS_EQ:
		c.emitOps(OpGreater, OpNot)
	case PLUS:
		c.emitOp(OpAdd)
	case MINUS:
		c.emitOp(OpSubtract)
	case STAR:
		c.emitOp(OpMultiply)
	case SLASH:
		c.emitOp(OpDivide)
	}
}

// and short-circuits: a falsey left operand is the result and the right
// operand is skipped.
func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or short-circuits: a truthy left operand is the result. Encoded with a
// conditional hop over an unconditional jump.
func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)

	c.patchJump(elseJump)
	c.emitOp(OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// variable compiles an identifier as a read, or as a write when an '='
// follows in assignment position.
func (c *Compiler) variable(canAssign bool) {
	name := c.prev

	var arg byte
	var getOp, setOp OpCode
	if slot := c.resolveLocal(name); slot >= 0 {
		arg, getOp, setOp = byte(slot), OpGetLocal, OpSetLocal
	} else {
		arg, getOp, setOp = c.identifierConstant(name), OpGetGlobal, OpSetGlobal
	}

	if canAssign && c.match(EQUAL) {
		c.expression()
		c.emitBytes(byte(setOp), arg)
	} else {
		c.emitBytes(byte(getOp), arg)
	}
}

// Variables & scopes
// --------------------------------------------------------

// parseVariable consumes an identifier. At global scope it returns the index
// of the name constant; in a block it declares a local and returns 0.
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(IDENT, errMsg)
	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.prev)
}

// declareVariable registers a new local in the current block. Globals are
// late-bound by name and need no declaration.
func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.prev
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.errorAt(name, "Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name Token) {
	if len(c.locals) >= maxLocals {
		c.errorAt(name, "Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

// defineVariable makes the just-declared variable usable: globals get an
// OP_DEFINE_GLOBAL, locals simply become initialized in place.
func (c *Compiler) defineVariable(nameConst byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(OpDefineGlobal), nameConst)
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// resolveLocal scans the locals top-down for name. -1 means global.
func (c *Compiler) resolveLocal(name Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name.Lexeme == name.Lexeme {
			if c.locals[i].depth == -1 {
				c.errorAt(name, "Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) identifierConstant(name Token) byte {
	return c.makeConstant(Str(name.Lexeme))
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// Emission
// --------------------------------------------------------

func (c *Compiler) emitOp(op OpCode) {
	c.chunk.WriteOp(op, c.prev.Line)
}

func (c *Compiler) emitOps(ops ...OpCode) {
	for _, op := range ops {
		c.emitOp(op)
	}
}

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.chunk.Write(b, c.prev.Line)
	}
}

func (c *Compiler) emitConstant(v Value) {
	c.emitBytes(byte(OpConstant), c.makeConstant(v))
}

func (c *Compiler) makeConstant(v Value) byte {
	k := c.chunk.AddConstant(v)
	if k > 0xff {
		c.errorAt(c.prev, "Too many constants in one chunk.")
		return 0
	}
	return byte(k)
}

// emitJump emits a forward jump with a placeholder offset and returns the
// offset of the operand for patchJump.
func (c *Compiler) emitJump(op OpCode) int {
	c.emitBytes(byte(op), 0xff, 0xff)
	return len(c.chunk.Code) - 2
}

// patchJump back-fills a forward jump to land just past the current end of
// the code. Offsets are relative to the byte after the operand.
func (c *Compiler) patchJump(operandAt int) {
	jump := len(c.chunk.Code) - (operandAt + 2)
	if jump > maxJumpLength {
		c.errorAt(c.prev, "Too much code to jump over.")
		return
	}
	c.chunk.PatchUint16(operandAt, uint16(jump))
}

// emitLoop emits a backward jump to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	back := len(c.chunk.Code) + 2 - loopStart
	if back > maxJumpLength {
		c.errorAt(c.prev, "Loop body too large.")
		back = 0
	}
	c.emitBytes(0, 0)
	c.chunk.PatchUint16(len(c.chunk.Code)-2, uint16(back))
}

// Error handling & token plumbing
// --------------------------------------------------------

func (c *Compiler) errorAt(tok Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errors = multierror.Append(c.errors, &CompileError{Token: tok, Msg: msg})
}

// synchronize skips to a statement boundary after an error.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(EOF) {
		if c.prev.Type == SEMICOLON {
			return
		}
		switch c.curr.Type {
		case CLASS, FUN, VAR, FOR, IF, WHILE, PRINT, RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) advance() {
	c.prev = c.curr
	for {
		tok, err := c.lex.NextToken()
		if err == nil {
			c.curr = tok
			return
		}
		if !c.panicMode {
			c.panicMode = true
			c.errors = multierror.Append(c.errors, err)
		}
	}
}

func (c *Compiler) consume(tt TokenType, msg string) {
	if c.check(tt) {
		c.advance()
		return
	}
	c.errorAt(c.curr, msg)
}

func (c *Compiler) check(tt TokenType) bool {
	return c.curr.Type == tt
}

func (c *Compiler) match(tt TokenType) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}
