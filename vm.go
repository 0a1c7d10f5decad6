// vm.go — the bytecode virtual machine.
//
// The VM executes one chunk at a time over an operand stack and a globals
// map. Globals persist across Interpret calls, so the REPL keeps state the
// way the tree-walk interpreter does. Dispatch is a switch over the opcode
// byte; jump operands are u16 offsets relative to the byte after the
// operand.
package lox

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// VM executes chunks produced by the Compiler.
type VM struct {
	chunk   *Chunk
	ip      int
	stack   []Value
	globals map[string]Value

	stdout io.Writer

	// Trace logs the stack and the disassembled instruction before each
	// step at debug level.
	Trace bool
}

// NewVM creates a VM whose 'print' output goes to stdout.
func NewVM(stdout io.Writer) *VM {
	return &VM{
		globals: make(map[string]Value),
		stdout:  stdout,
	}
}

// Interpret compiles and runs src. The error is a collected static error
// set from the compiler, or a *RuntimeError from execution.
func (m *VM) Interpret(src string) error {
	chunk, err := NewCompiler(src).Compile()
	if err != nil {
		return err
	}
	return m.Run(chunk)
}

// Run executes a compiled chunk from its first instruction.
func (m *VM) Run(chunk *Chunk) error {
	m.chunk = chunk
	m.ip = 0
	m.stack = m.stack[:0]

	for m.ip < len(chunk.Code) {
		if m.Trace {
			m.traceInstruction()
		}

		at := m.ip
		op := OpCode(chunk.Code[m.ip])
		m.ip++

		switch op {
		case OpConstant:
			m.push(chunk.Constants[m.readByte()])

		case OpNil:
			m.push(Nil)
		case OpTrue:
			m.push(Bool(true))
		case OpFalse:
			m.push(Bool(false))

		case OpPop:
			m.pop()

		case OpGetLocal:
			m.push(m.stack[m.readByte()])

		case OpSetLocal:
			m.stack[m.readByte()] = m.peek(0)

		case OpGetGlobal:
			name := chunk.Constants[m.readByte()].Data.(string)
			v, ok := m.globals[name]
			if !ok {
				return m.fail(at, "Undefined variable '%s'.", name)
			}
			m.push(v)

		case OpSetGlobal:
			name := chunk.Constants[m.readByte()].Data.(string)
			if _, ok := m.globals[name]; !ok {
				return m.fail(at, "Undefined variable '%s'.", name)
			}
			m.globals[name] = m.peek(0)

		case OpDefineGlobal:
			name := chunk.Constants[m.readByte()].Data.(string)
			m.globals[name] = m.pop()

		case OpEqual:
			b := m.pop()
			a := m.pop()
			m.push(Bool(Equal(a, b)))

		case OpGreater, OpLess, OpSubtract, OpMultiply, OpDivide:
			b := m.pop()
			a := m.pop()
			if a.Tag != VTNum || b.Tag != VTNum {
				return m.fail(at, "Operands must be numbers.")
			}
			l, r := a.Data.(float64), b.Data.(float64)
			switch op {
			case OpGreater:
				m.push(Bool(l > r))
			case OpLess:
				m.push(Bool(l < r))
			case OpSubtract:
				m.push(Num(l - r))
			case OpMultiply:
				m.push(Num(l * r))
			case OpDivide:
				// IEEE semantics; no divide-by-zero error.
				m.push(Num(l / r))
			}

		case OpAdd:
			b := m.pop()
			a := m.pop()
			switch {
			case a.Tag == VTNum && b.Tag == VTNum:
				m.push(Num(a.Data.(float64) + b.Data.(float64)))
			case a.Tag == VTStr && b.Tag == VTStr:
				m.push(Str(a.Data.(string) + b.Data.(string)))
			default:
				return m.fail(at, "Operands must be two numbers or two strings.")
			}

		case OpNot:
			m.push(Bool(!Truthy(m.pop())))

		case OpNegate:
			v := m.pop()
			if v.Tag != VTNum {
				return m.fail(at, "Operand must be a number.")
			}
			m.push(Num(-v.Data.(float64)))

		case OpPrint:
			fmt.Fprintln(m.stdout, FormatValue(m.pop()))

		case OpJump:
			m.ip += int(m.readUint16())

		case OpJumpIfFalse:
			offset := int(m.readUint16())
			if !Truthy(m.peek(0)) {
				m.ip += offset
			}

		case OpLoop:
			m.ip -= int(m.readUint16())

		case OpReturn:
			return nil

		default:
			return m.fail(at, "Unknown opcode %d.", byte(op))
		}
	}

	return nil
}

// StackDepth reports the operand stack depth, for tests of the
// stack-neutrality invariant.
func (m *VM) StackDepth() int { return len(m.stack) }

func (m *VM) push(v Value) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek(distance int) Value {
	return m.stack[len(m.stack)-1-distance]
}

func (m *VM) readByte() byte {
	b := m.chunk.Code[m.ip]
	m.ip++
	return b
}

func (m *VM) readUint16() uint16 {
	v := m.chunk.ReadUint16(m.ip)
	m.ip += 2
	return v
}

func (m *VM) fail(at int, format string, args ...any) error {
	return &RuntimeError{
		Line: m.chunk.Lines[at],
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (m *VM) traceInstruction() {
	var b strings.Builder
	b.WriteString("          ")
	for _, v := range m.stack {
		fmt.Fprintf(&b, "[ %s ]", FormatValue(v))
	}
	b.WriteByte('\n')
	line, _ := DisassembleInstruction(m.chunk, m.ip)
	b.WriteString(line)
	logrus.Debug(b.String())
}
