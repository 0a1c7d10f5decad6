// vm_test.go
package lox

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func runVM(t *testing.T, src string) (string, *VM, error) {
	t.Helper()
	var out bytes.Buffer
	vm := NewVM(&out)
	err := vm.Interpret(src)
	return out.String(), vm, err
}

func wantVMOutput(t *testing.T, src string, wantLines ...string) *VM {
	t.Helper()
	out, vm, err := runVM(t, src)
	if err != nil {
		t.Fatalf("interpret error: %v", err)
	}
	want := strings.Join(wantLines, "\n") + "\n"
	if len(wantLines) == 0 {
		want = ""
	}
	if out != want {
		t.Fatalf("\nsource:\n%s\nwant output:\n%q\ngot output:\n%q", src, want, out)
	}
	return vm
}

func wantVMRuntimeError(t *testing.T, src, wantMsg string) {
	t.Helper()
	_, _, err := runVM(t, src)
	if err == nil {
		t.Fatalf("want runtime error %q, got none", wantMsg)
	}
	rt, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T: %v", err, err)
	}
	if !strings.Contains(rt.Msg, wantMsg) {
		t.Fatalf("want %q in message, got %q", wantMsg, rt.Msg)
	}
	if ExitCode(err) != 70 {
		t.Fatalf("exit code = %d, want 70", ExitCode(err))
	}
}

func wantVMCompileError(t *testing.T, src, wantMsg string) {
	t.Helper()
	_, err := NewCompiler(src).Compile()
	if err == nil {
		t.Fatalf("want compile error %q, got none", wantMsg)
	}
	if !strings.Contains(err.Error(), wantMsg) {
		t.Fatalf("want %q in error, got: %v", wantMsg, err)
	}
	if ExitCode(err) != 65 {
		t.Fatalf("exit code = %d, want 65", ExitCode(err))
	}
}

func Test_VM_Arithmetic(t *testing.T) {
	wantVMOutput(t, "print 1 + 2 * 3;", "7")
	wantVMOutput(t, "print (1 + 2) * 3;", "9")
	wantVMOutput(t, "print -3 + 1;", "-2")
	wantVMOutput(t, "print 10 / 4;", "2.5")
	wantVMOutput(t, "print 1 / 0;", "inf")
}

func Test_VM_Comparisons_And_Equality(t *testing.T) {
	wantVMOutput(t, "print 1 < 2;", "true")
	wantVMOutput(t, "print 2 <= 2;", "true")
	wantVMOutput(t, "print 3 > 4;", "false")
	wantVMOutput(t, "print 3 >= 4;", "false")
	wantVMOutput(t, "print 1 == 1;", "true")
	wantVMOutput(t, "print 1 != 1;", "false")
	wantVMOutput(t, `print 1 == "1";`, "false")
	wantVMOutput(t, "print nil == nil;", "true")
}

func Test_VM_Strings(t *testing.T) {
	wantVMOutput(t, `var a = "hi"; var b = " there"; print a + b;`, "hi there")
}

func Test_VM_Truthiness_And_Not(t *testing.T) {
	wantVMOutput(t, "print !nil;", "true")
	wantVMOutput(t, "print !0;", "false")
	wantVMOutput(t, "print !false;", "true")
}

func Test_VM_Globals(t *testing.T) {
	wantVMOutput(t, "var a = 1; a = a + 1; print a;", "2")
	wantVMOutput(t, "var a; print a;", "nil")
}

func Test_VM_Locals_And_Shadowing(t *testing.T) {
	wantVMOutput(t, `var a = 1; { var a = 2; print a; } print a;`, "2", "1")
	wantVMOutput(t, `{ var a = 1; { var b = a + 1; print b; } print a; }`, "2", "1")
}

func Test_VM_Local_Assignment_Is_An_Expression(t *testing.T) {
	wantVMOutput(t, `{ var a = 1; var b = a = 5; print a; print b; }`, "5", "5")
}

func Test_VM_If_Else(t *testing.T) {
	wantVMOutput(t, `if (1 < 2) print "then"; else print "else";`, "then")
	wantVMOutput(t, `if (1 > 2) print "then"; else print "else";`, "else")
	wantVMOutput(t, `if (false) print "then";`)
}

func Test_VM_Logical_Yields_Operand(t *testing.T) {
	wantVMOutput(t, `print nil or "x";`, "x")
	wantVMOutput(t, `print "a" or "b";`, "a")
	wantVMOutput(t, `print nil and "x";`, "nil")
	wantVMOutput(t, `print 1 and 2;`, "2")
}

func Test_VM_While(t *testing.T) {
	wantVMOutput(t, `
var i = 0;
while (i < 3) { print i; i = i + 1; }
`, "0", "1", "2")
}

func Test_VM_For(t *testing.T) {
	wantVMOutput(t, `for (var i = 0; i < 3; i = i + 1) print i;`, "0", "1", "2")

	// Empty init and step.
	wantVMOutput(t, `var i = 0; for (; i < 2;) { print i; i = i + 1; }`, "0", "1")

	// No condition at all would loop forever, so this case is only
	// compiled, not run.
	if _, err := NewCompiler("for (;;) print 1;").Compile(); err != nil {
		t.Fatalf("empty for clauses must compile: %v", err)
	}
}

func Test_VM_Stack_Neutral_Statements(t *testing.T) {
	vm := wantVMOutput(t, `
var a = 1;
a = 2;
print a;
{ var b = 3; var c = 4; print b + c; }
if (a == 2) print "two";
`, "2", "7", "two")
	if depth := vm.StackDepth(); depth != 0 {
		t.Fatalf("stack depth after program = %d, want 0", depth)
	}
}

func Test_VM_Runtime_Errors(t *testing.T) {
	wantVMRuntimeError(t, `print "a" + 1;`, "Operands must be two numbers or two strings.")
	wantVMRuntimeError(t, `print -"a";`, "Operand must be a number.")
	wantVMRuntimeError(t, `print 1 < "a";`, "Operands must be numbers.")
	wantVMRuntimeError(t, "print missing;", "Undefined variable 'missing'.")
	wantVMRuntimeError(t, "missing = 1;", "Undefined variable 'missing'.")
}

func Test_VM_Runtime_Error_Line(t *testing.T) {
	_, _, err := runVM(t, "\n\nprint 1 + nil;")
	rt, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %v", err)
	}
	if rt.Line != 3 {
		t.Fatalf("error line = %d, want 3", rt.Line)
	}
}

func Test_VM_Compile_Errors(t *testing.T) {
	wantVMCompileError(t, "print ;", "Expect expression.")
	wantVMCompileError(t, "1 + 2", "Expect ';' after expression.")
	wantVMCompileError(t, "1 + 2 = 3;", "Invalid assignment target.")
	wantVMCompileError(t, "{ var a = 1; var a = 2; }", "Already a variable with this name in this scope.")
	wantVMCompileError(t, "{ var a = a; }", "Can't read local variable in its own initializer.")
	wantVMCompileError(t, "fun f() { }", "Functions are not supported by the bytecode compiler.")
	wantVMCompileError(t, "class A { }", "Classes are not supported by the bytecode compiler.")
	wantVMCompileError(t, "return 1;", "Can't return from top-level code.")
}

func Test_VM_Compiler_Collects_Multiple_Errors(t *testing.T) {
	_, err := NewCompiler("print ;\nprint ;\n").Compile()
	if err == nil {
		t.Fatal("want errors")
	}
	if n := len(errorList(err)); n != 2 {
		t.Fatalf("want 2 collected errors, got %d: %v", n, err)
	}
}

func Test_VM_Local_Slot_Limit(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < maxLocals+1; i++ {
		fmt.Fprintf(&b, "var v%03d = 0;\n", i)
	}
	b.WriteString("}\n")

	_, err := NewCompiler(b.String()).Compile()
	if err == nil {
		t.Fatal("want error for too many locals")
	}
	if !strings.Contains(err.Error(), "Too many local variables in function.") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_VM_Deeply_Nested_Blocks(t *testing.T) {
	// 300 nested scopes is fine: the scope depth is unbounded, only live
	// locals per function are limited.
	depth := 300
	src := strings.Repeat("{ ", depth) + "print 1;" + strings.Repeat(" }", depth)
	wantVMOutput(t, src, "1")
}

func Test_VM_Globals_Persist_Across_Interpret_Calls(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(&out)
	if err := vm.Interpret("var a = 41;"); err != nil {
		t.Fatal(err)
	}
	if err := vm.Interpret("print a + 1;"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Fatalf("output %q", out.String())
	}
}
