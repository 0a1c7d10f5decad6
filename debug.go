// debug.go — chunk disassembly.
//
// Disassembly renders "offset line opname operands" per instruction; the
// line column shows '|' when the line equals the previous instruction's.
package lox

import (
	"fmt"
	"strings"
)

// DisassembleChunk renders every instruction in the chunk under a header.
func DisassembleChunk(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = DisassembleInstruction(c, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction renders the instruction at offset and returns the
// offset of the next instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal:
		k := c.Code[offset+1]
		fmt.Fprintf(&b, "%-16s %4d '%s'", op, k, FormatValue(c.Constants[k]))
		return b.String(), offset + 2

	case OpGetLocal, OpSetLocal:
		slot := c.Code[offset+1]
		fmt.Fprintf(&b, "%-16s %4d", op, slot)
		return b.String(), offset + 2

	case OpJump, OpJumpIfFalse:
		jump := int(c.ReadUint16(offset + 1))
		fmt.Fprintf(&b, "%-16s %4d -> %d", op, offset, offset+3+jump)
		return b.String(), offset + 3

	case OpLoop:
		jump := int(c.ReadUint16(offset + 1))
		fmt.Fprintf(&b, "%-16s %4d -> %d", op, offset, offset+3-jump)
		return b.String(), offset + 3

	default:
		b.WriteString(op.String())
		return b.String(), offset + 1
	}
}

// instructionSize reports the byte length of an instruction with opcode op,
// opcode included.
func instructionSize(op OpCode) int {
	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal, OpGetLocal, OpSetLocal:
		return 2
	case OpJump, OpJumpIfFalse, OpLoop:
		return 3
	default:
		return 1
	}
}
