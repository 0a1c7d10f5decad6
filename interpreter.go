// interpreter.go — the tree-walk evaluator.
//
// Statements execute for effect, expressions evaluate to a Value. Variable
// accesses annotated by the resolver are read at a fixed scope distance;
// everything else goes to the global environment.
//
// Control flow out of a function body is a returnSignal panic recovered at
// the call frame (Function.Call); runtime failures are *RuntimeError panics
// recovered at the Interpret boundary. Neither can cross the public API.
package lox

import (
	"fmt"
	"io"
)

// returnSignal unwinds a 'return' statement to the enclosing call frame.
type returnSignal struct {
	value Value
}

// Interpreter executes resolved programs. One interpreter holds one global
// environment, so a REPL can feed it statement after statement.
type Interpreter struct {
	globals *Env
	env     *Env
	locals  map[Expr]int
	stdout  io.Writer
}

// NewInterpreter creates an interpreter whose 'print' output goes to stdout.
// Built-in natives are installed into the fresh global environment.
func NewInterpreter(stdout io.Writer) *Interpreter {
	globals := NewEnv(nil)
	DefineNatives(globals)
	return &Interpreter{
		globals: globals,
		env:     globals,
		locals:  make(map[Expr]int),
		stdout:  stdout,
	}
}

// Interpret executes the statements with the given resolver annotations.
// It returns a *RuntimeError if execution aborted. Globals defined so far
// survive, so the REPL keeps its state after a failed line.
func (ip *Interpreter) Interpret(stmts []Stmt, locals map[Expr]int) (err error) {
	ip.adoptLocals(locals)

	defer func() {
		switch r := recover().(type) {
		case nil:
		case *RuntimeError:
			// Execution aborted mid-statement; drop any local frames.
			ip.env = ip.globals
			err = r
		default:
			panic(r)
		}
	}()

	for _, s := range stmts {
		ip.execute(s)
	}
	return nil
}

// EvalExpression evaluates a bare expression (REPL echo mode).
func (ip *Interpreter) EvalExpression(expr Expr, locals map[Expr]int) (v Value, err error) {
	ip.adoptLocals(locals)

	defer func() {
		switch r := recover().(type) {
		case nil:
		case *RuntimeError:
			ip.env = ip.globals
			err = r
		default:
			panic(r)
		}
	}()

	return ip.evaluate(expr), nil
}

func (ip *Interpreter) adoptLocals(locals map[Expr]int) {
	for e, d := range locals {
		ip.locals[e] = d
	}
}

// Statement execution
// --------------------------------------------------------

func (ip *Interpreter) execute(s Stmt) {
	switch n := s.(type) {
	case *BlockStmt:
		ip.executeBlock(n.Stmts, NewEnv(ip.env))

	case *ClassStmt:
		var superclass *Class
		if n.Superclass != nil {
			sv := ip.evaluate(n.Superclass)
			if sv.Tag != VTClass {
				ip.fail(n.Superclass.Name, "Superclass must be a class.")
			}
			superclass = sv.Data.(*Class)
		}

		ip.env.Define(n.Name.Lexeme, Nil)

		env := ip.env
		if superclass != nil {
			env = NewEnv(env)
			env.Define("super", Value{Tag: VTClass, Data: superclass})
		}

		methods := make(map[string]*Function, len(n.Methods))
		for _, m := range n.Methods {
			methods[m.Name.Lexeme] = &Function{
				Declaration:   m,
				Closure:       env,
				IsInitializer: m.Name.Lexeme == "init",
			}
		}

		class := &Class{Name: n.Name.Lexeme, Superclass: superclass, Methods: methods}
		ip.env.Assign(n.Name.Lexeme, Value{Tag: VTClass, Data: class})

	case *ExpressionStmt:
		ip.evaluate(n.Expr)

	case *FunctionStmt:
		fn := &Function{Declaration: n, Closure: ip.env}
		ip.env.Define(n.Name.Lexeme, Value{Tag: VTFunction, Data: fn})

	case *IfStmt:
		if Truthy(ip.evaluate(n.Cond)) {
			ip.execute(n.Then)
		} else if n.Else != nil {
			ip.execute(n.Else)
		}

	case *PrintStmt:
		v := ip.evaluate(n.Expr)
		fmt.Fprintln(ip.stdout, FormatValue(v))

	case *ReturnStmt:
		value := Nil
		if n.Value != nil {
			value = ip.evaluate(n.Value)
		}
		panic(returnSignal{value: value})

	case *VarStmt:
		value := Nil
		if n.Initializer != nil {
			value = ip.evaluate(n.Initializer)
		}
		ip.env.Define(n.Name.Lexeme, value)

	case *WhileStmt:
		for Truthy(ip.evaluate(n.Cond)) {
			ip.execute(n.Body)
		}
	}
}

// executeBlock runs statements in env, restoring the previous environment
// afterwards even when a return or error unwinds through.
func (ip *Interpreter) executeBlock(stmts []Stmt, env *Env) {
	prev := ip.env
	ip.env = env
	defer func() { ip.env = prev }()

	for _, s := range stmts {
		ip.execute(s)
	}
}

// Expression evaluation
// --------------------------------------------------------

func (ip *Interpreter) evaluate(e Expr) Value {
	switch n := e.(type) {
	case *LiteralExpr:
		switch v := n.Value.(type) {
		case nil:
			return Nil
		case bool:
			return Bool(v)
		case float64:
			return Num(v)
		case string:
			return Str(v)
		}
		panic(fmt.Sprintf("invalid literal payload %T", n.Value))

	case *GroupingExpr:
		return ip.evaluate(n.Inner)

	case *VariableExpr:
		return ip.lookupVariable(n.Name, e)

	case *ThisExpr:
		return ip.lookupVariable(n.Keyword, e)

	case *AssignExpr:
		value := ip.evaluate(n.Value)
		if dist, ok := ip.locals[e]; ok {
			ip.env.AssignAt(dist, n.Name.Lexeme, value)
		} else if !ip.globals.Assign(n.Name.Lexeme, value) {
			ip.fail(n.Name, "Undefined variable '%s'.", n.Name.Lexeme)
		}
		return value

	case *UnaryExpr:
		operand := ip.evaluate(n.Operand)
		switch n.Op.Type {
		case BANG:
			return Bool(!Truthy(operand))
		case MINUS:
			if operand.Tag != VTNum {
				ip.fail(n.Op, "Operand must be a number.")
			}
			return Num(-operand.Data.(float64))
		}
		panic("invalid unary operator")

	case *BinaryExpr:
		return ip.binary(n)

	case *LogicalExpr:
		left := ip.evaluate(n.Left)
		// Short-circuit, yielding the deciding operand itself.
		if n.Op.Type == OR {
			if Truthy(left) {
				return left
			}
		} else {
			if !Truthy(left) {
				return left
			}
		}
		return ip.evaluate(n.Right)

	case *CallExpr:
		return ip.call(n)

	case *GetExpr:
		object := ip.evaluate(n.Object)
		if object.Tag != VTInstance {
			ip.fail(n.Name, "Only instances have properties.")
		}
		v, ok := object.Data.(*Instance).Get(n.Name.Lexeme)
		if !ok {
			ip.fail(n.Name, "Undefined property '%s'.", n.Name.Lexeme)
		}
		return v

	case *SetExpr:
		object := ip.evaluate(n.Object)
		if object.Tag != VTInstance {
			ip.fail(n.Name, "Only instances have fields.")
		}
		value := ip.evaluate(n.Value)
		object.Data.(*Instance).Set(n.Name.Lexeme, value)
		return value

	case *SuperExpr:
		// 'super' starts lookup at the superclass of the method's defining
		// class; 'this' sits one scope closer than 'super'.
		dist := ip.locals[e]
		superclass := ip.env.GetAt(dist, "super").Data.(*Class)
		object := ip.env.GetAt(dist-1, "this").Data.(*Instance)

		method := superclass.FindMethod(n.Method.Lexeme)
		if method == nil {
			ip.fail(n.Method, "Undefined property '%s'.", n.Method.Lexeme)
		}
		return Value{Tag: VTFunction, Data: method.Bind(object)}
	}

	panic(fmt.Sprintf("invalid expression node %T", e))
}

func (ip *Interpreter) binary(n *BinaryExpr) Value {
	left := ip.evaluate(n.Left)
	right := ip.evaluate(n.Right)

	bothNums := left.Tag == VTNum && right.Tag == VTNum

	switch n.Op.Type {
	case PLUS:
		if bothNums {
			return Num(left.Data.(float64) + right.Data.(float64))
		}
		if left.Tag == VTStr && right.Tag == VTStr {
			return Str(left.Data.(string) + right.Data.(string))
		}
		ip.fail(n.Op, "Operands must be two numbers or two strings.")

	case MINUS, STAR, SLASH, GREATER, GREATER_EQ, LESS, LESS_EQ:
		if !bothNums {
			ip.fail(n.Op, "Operands must be numbers.")
		}
		l, r := left.Data.(float64), right.Data.(float64)
		switch n.Op.Type {
		case MINUS:
			return Num(l - r)
		case STAR:
			return Num(l * r)
		case SLASH:
			// IEEE semantics: dividing by zero yields inf or nan.
			return Num(l / r)
		case GREATER:
			return Bool(l > r)
		case GREATER_EQ:
			return Bool(l >= r)
		case LESS:
			return Bool(l < r)
		case LESS_EQ:
			return Bool(l <= r)
		}

	case EQ:
		return Bool(Equal(left, right))
	case BANG_EQ:
		return Bool(!Equal(left, right))
	}

	panic("invalid binary operator")
}

func (ip *Interpreter) call(n *CallExpr) Value {
	callee := ip.evaluate(n.Callee)

	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, ip.evaluate(a))
	}

	var fn Callable
	switch callee.Tag {
	case VTFunction:
		fn = callee.Data.(*Function)
	case VTNative:
		fn = callee.Data.(*Native)
	case VTClass:
		fn = callee.Data.(*Class)
	default:
		ip.fail(n.Paren, "Can only call functions and classes.")
	}

	if len(args) != fn.Arity() {
		ip.fail(n.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return fn.Call(ip, args)
}

func (ip *Interpreter) lookupVariable(name Token, expr Expr) Value {
	if dist, ok := ip.locals[expr]; ok {
		return ip.env.GetAt(dist, name.Lexeme)
	}
	v, ok := ip.globals.Get(name.Lexeme)
	if !ok {
		ip.fail(name, "Undefined variable '%s'.", name.Lexeme)
	}
	return v
}

// fail raises a runtime error located at tok's line.
func (ip *Interpreter) fail(tok Token, format string, args ...any) {
	panic(&RuntimeError{Line: tok.Line, Msg: fmt.Sprintf(format, args...)})
}
