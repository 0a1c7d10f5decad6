// chunk_test.go
package lox

import (
	"strings"
	"testing"
)

func Test_Chunk_Lines_Parallel_To_Code(t *testing.T) {
	var c Chunk
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpPop, 1)
	c.Write(byte(OpConstant), 2)
	c.Write(0, 2)
	if len(c.Code) != len(c.Lines) {
		t.Fatalf("len(Code)=%d len(Lines)=%d", len(c.Code), len(c.Lines))
	}
	if c.Lines[0] != 1 || c.Lines[3] != 2 {
		t.Fatalf("lines recorded wrong: %v", c.Lines)
	}
}

func Test_Chunk_Constant_Pool_Reuses_Equal_Values(t *testing.T) {
	var c Chunk
	a := c.AddConstant(Num(1))
	b := c.AddConstant(Str("x"))
	again := c.AddConstant(Num(1))
	if a == b {
		t.Fatal("distinct constants share an index")
	}
	if a != again {
		t.Fatalf("equal constant got a fresh index: %d vs %d", a, again)
	}
	if len(c.Constants) != 2 {
		t.Fatalf("pool size %d, want 2", len(c.Constants))
	}
}

func Test_Chunk_Uint16_Round_Trip(t *testing.T) {
	var c Chunk
	c.Write(0, 1)
	c.Write(0, 1)
	for _, v := range []uint16{0, 1, 0x1234, 0xffff} {
		c.PatchUint16(0, v)
		if got := c.ReadUint16(0); got != v {
			t.Fatalf("round trip %d → %d", v, got)
		}
	}
}

// opSequence re-reads the chunk's instruction stream by decoding opcode
// sizes, the same walk the disassembler performs.
func opSequence(c *Chunk) []OpCode {
	var ops []OpCode
	for offset := 0; offset < len(c.Code); {
		op := OpCode(c.Code[offset])
		ops = append(ops, op)
		offset += instructionSize(op)
	}
	return ops
}

func Test_Chunk_Compile_Disassemble_Round_Trip(t *testing.T) {
	chunk, err := NewCompiler("print 1 + 2;").Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := []OpCode{OpConstant, OpConstant, OpAdd, OpPrint, OpReturn}
	got := opSequence(chunk)
	if len(got) != len(want) {
		t.Fatalf("op sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// The disassembly walks the same stream: one line per instruction.
	text := DisassembleChunk(chunk, "test")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != len(want)+1 { // +1 for the header
		t.Fatalf("disassembly has %d lines:\n%s", len(lines), text)
	}
	if !strings.Contains(lines[1], "OP_CONSTANT") || !strings.Contains(lines[1], "'1'") {
		t.Fatalf("first instruction line %q", lines[1])
	}
}

func Test_Chunk_Disassembly_Elides_Repeated_Lines(t *testing.T) {
	chunk, err := NewCompiler("print 1;\nprint 2;").Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	text := DisassembleChunk(chunk, "test")
	lines := strings.Split(text, "\n")

	// First instruction of line 1 shows the number, the second shows '|'.
	if !strings.Contains(lines[1], "   1 ") {
		t.Fatalf("line 1 not shown: %q", lines[1])
	}
	if !strings.Contains(lines[2], "   | ") {
		t.Fatalf("repeated line not elided: %q", lines[2])
	}
	// The first instruction on source line 2 shows its line again.
	var sawLine2 bool
	for _, ln := range lines {
		if strings.Contains(ln, "   2 ") {
			sawLine2 = true
			break
		}
	}
	if !sawLine2 {
		t.Fatalf("line 2 never shown:\n%s", text)
	}
}

func Test_Chunk_Jump_Targets_In_Disassembly(t *testing.T) {
	chunk, err := NewCompiler("if (true) print 1; else print 2;").Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	text := DisassembleChunk(chunk, "test")
	if !strings.Contains(text, "OP_JUMP_IF_FALSE") || !strings.Contains(text, "OP_JUMP") {
		t.Fatalf("jumps missing from:\n%s", text)
	}
	if !strings.Contains(text, "->") {
		t.Fatalf("jump targets missing from:\n%s", text)
	}
}
