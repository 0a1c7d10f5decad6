// callable.go — callable values for the tree-walk interpreter: user
// functions (closures), bound methods, and host natives.
package lox

import (
	"time"
)

// Callable is anything a CallExpr may invoke. Call runs on the interpreter's
// thread; runtime failures unwind as *RuntimeError panics and are caught at
// the Interpret boundary.
type Callable interface {
	Arity() int
	Call(ip *Interpreter, args []Value) Value
}

// Function is a user-defined function or method. It closes over the
// environment where it was declared; binding a method wraps that closure in
// a fresh frame defining 'this'.
type Function struct {
	Declaration   *FunctionStmt
	Closure       *Env
	IsInitializer bool
}

func (f *Function) Name() string { return f.Declaration.Name.Lexeme }

func (f *Function) Arity() int { return len(f.Declaration.Params) }

func (f *Function) Call(ip *Interpreter, args []Value) Value {
	env := NewEnv(f.Closure)
	for i, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	ret := Nil
	func() {
		defer func() {
			switch sig := recover().(type) {
			case nil:
			case returnSignal:
				ret = sig.value
			default:
				panic(sig)
			}
		}()
		ip.executeBlock(f.Declaration.Body, env)
	}()

	// An initializer always yields the instance, whether it falls off the
	// end or hits a bare "return;".
	if f.IsInitializer {
		return f.Closure.GetAt(0, "this")
	}
	return ret
}

// Bind returns a copy of the function whose closure defines 'this' as the
// given instance. Method lookups produce bound methods through here.
func (f *Function) Bind(inst *Instance) *Function {
	env := NewEnv(f.Closure)
	env.Define("this", Value{Tag: VTInstance, Data: inst})
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// Native wraps a host function as a Lox callable.
type Native struct {
	NativeName string
	ArityCount int
	Fn         func(args []Value) Value
}

func (n *Native) Arity() int { return n.ArityCount }

func (n *Native) Call(_ *Interpreter, args []Value) Value {
	return n.Fn(args)
}

// DefineNatives installs the built-in natives into the global environment.
// The only built-in is clock(), seconds since the Unix epoch.
func DefineNatives(globals *Env) {
	globals.Define("clock", Value{Tag: VTNative, Data: &Native{
		NativeName: "clock",
		Fn: func([]Value) Value {
			return Num(float64(time.Now().UnixNano()) / 1e9)
		},
	}})
}
