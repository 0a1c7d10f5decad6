// class.go — classes, instances, and method binding.
package lox

// Class is a factory for instances. It holds the method table and a
// reference to the superclass, so method lookup walks the inheritance chain.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

// FindMethod looks name up on this class, then up the superclass chain.
func (c *Class) FindMethod(name string) *Function {
	if m, ok := c.Methods[name]; ok {
		return m
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil
}

// Arity of a class is the arity of its initializer, zero without one.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call constructs an instance, running 'init' bound to it when present. The
// call's value is the instance regardless of what 'init' does.
func (c *Class) Call(ip *Interpreter, args []Value) Value {
	inst := &Instance{Class: c, Fields: make(map[string]Value)}
	if init := c.FindMethod("init"); init != nil {
		init.Bind(inst).Call(ip, args)
	}
	return Value{Tag: VTInstance, Data: inst}
}

// Instance is a bag of fields plus its class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

// Get reads a field; a missing field falls back to a method on the class,
// returned bound to this instance. (ok, found) distinguishes "no such
// property" for the caller's error report.
func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m := i.Class.FindMethod(name); m != nil {
		return Value{Tag: VTFunction, Data: m.Bind(i)}, true
	}
	return Value{}, false
}

// Set writes a field. Fields shadow methods on later reads.
func (i *Instance) Set(name string, v Value) {
	i.Fields[name] = v
}
